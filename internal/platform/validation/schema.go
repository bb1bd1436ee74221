package validation

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type structSchema[T any] struct{}

// Struct returns the schema backed by struct type T. Field names come from json tags,
// rules from validate tags, and query/params defaults from default tags.
func Struct[T any]() Schema {
	return structSchema[T]{}
}

func (structSchema[T]) parse(w http.ResponseWriter, r *http.Request, section Section, opts Options) (any, []Issue, error) {
	var value T
	var issues []Issue
	var err error

	switch section {
	case Body:
		issues, err = decodeBody(w, r, &value, opts)
	case Query:
		issues, err = bindValues(r.URL.Query(), &value, opts)
	case Params:
		issues, err = bindValues(routeParams(r), &value, opts)
	default:
		return nil, nil, fmt.Errorf("validation: unknown section %q", section)
	}
	if err != nil {
		return nil, nil, err
	}
	if sectionLevel(issues) {
		return nil, issues, nil
	}

	if n, ok := any(&value).(Normalizer); ok {
		n.Normalize()
	}

	tagIssues, err := checkTags(&value)
	if err != nil {
		return nil, nil, err
	}
	issues = mergeIssues(issues, tagIssues)
	if len(issues) > 0 {
		return nil, issues, nil
	}

	if rf, ok := any(&value).(Refiner); ok {
		if extra := rf.Refine(); len(extra) > 0 {
			return nil, extra, nil
		}
	}
	return value, nil, nil
}

// sectionLevel reports whether issues include one that concerns the section as a whole,
// such as a malformed body, in which case no field could be decoded.
func sectionLevel(issues []Issue) bool {
	for _, is := range issues {
		if is.Path == "" {
			return true
		}
	}
	return false
}

// mergeIssues appends tag violations for fields that did not already fail to decode.
func mergeIssues(decoded, tagged []Issue) []Issue {
	failed := make(map[string]struct{}, len(decoded))
	for _, is := range decoded {
		failed[is.Path] = struct{}{}
	}
	for _, is := range tagged {
		if _, ok := failed[is.Path]; ok {
			continue
		}
		decoded = append(decoded, is)
	}
	return decoded
}

func routeParams(r *http.Request) map[string][]string {
	out := map[string][]string{}
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return out
	}
	for i, key := range rctx.URLParams.Keys {
		if key == "*" || i >= len(rctx.URLParams.Values) {
			continue
		}
		out[key] = []string{rctx.URLParams.Values[i]}
	}
	return out
}

func checkTags(value any) ([]Issue, error) {
	eng := defaultEngine()
	err := eng.validate.Struct(value)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, fmt.Errorf("validation: %w", err)
	}
	root := reflect.TypeOf(value)
	issues := make([]Issue, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, Issue{
			Message: fe.Translate(eng.trans),
			Path:    issuePath(root, fe),
		})
	}
	return issues, nil
}

// issuePath maps a violation to its top-level wire key. Untagged embedded structs are
// flattened on the wire, so their segment is skipped.
func issuePath(root reflect.Type, fe validator.FieldError) string {
	goNames := strings.Split(fe.StructNamespace(), ".")
	wireNames := strings.Split(fe.Namespace(), ".")
	t := indirect(root)
	for i := 1; i < len(goNames) && i < len(wireNames); i++ {
		name, _, _ := strings.Cut(goNames[i], "[")
		sf, ok := t.FieldByName(name)
		if !ok || !sf.Anonymous || sf.Tag.Get("json") != "" || indirect(sf.Type).Kind() != reflect.Struct {
			return firstSegment(wireNames[i])
		}
		t = indirect(sf.Type)
	}
	return firstSegment(stripRoot(fe.Namespace()))
}

// stripRoot drops the struct type name validator prefixes to every namespace.
func stripRoot(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

// firstSegment reduces "permissions[1]" or "image.url" to its top-level key.
func firstSegment(path string) string {
	if i := strings.IndexAny(path, ".["); i >= 0 {
		return path[:i]
	}
	return path
}

// jsonName returns the wire name of a struct field and whether it is serialized at all.
func jsonName(sf reflect.StructField) (string, bool) {
	tag := sf.Tag.Get("json")
	if tag == "-" {
		return "", false
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		name = sf.Name
	}
	return name, true
}

// fieldSet lists the wire names of t's fields, flattening untagged embedded structs.
func fieldSet(t reflect.Type) map[string]struct{} {
	out := map[string]struct{}{}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return out
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Anonymous && sf.Tag.Get("json") == "" && indirect(sf.Type).Kind() == reflect.Struct {
			for k := range fieldSet(sf.Type) {
				out[k] = struct{}{}
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}
		if name, ok := jsonName(sf); ok {
			out[name] = struct{}{}
		}
	}
	return out
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
