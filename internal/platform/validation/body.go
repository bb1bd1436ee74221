package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sort"
)

func decodeBody(w http.ResponseWriter, r *http.Request, target any, opts Options) ([]Issue, error) {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("validation: %T is not a pointer to struct", target)
	}
	limit := opts.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return []Issue{{Message: fmt.Sprintf("Request body must not exceed %d bytes", limit)}}, nil
		}
		return nil, fmt.Errorf("validation: read body: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return []Issue{{Message: "Malformed JSON body"}}, nil
		}
		return []Issue{{Message: "Expected object, received " + jsonKind(raw)}}, nil
	}

	var issues []Issue
	if !opts.AllowUnknown {
		known := fieldSet(reflect.TypeOf(target))
		var unknown []string
		for key := range fields {
			if _, ok := known[key]; !ok {
				unknown = append(unknown, key)
			}
		}
		sort.Strings(unknown)
		for _, key := range unknown {
			issues = append(issues, Issue{Message: fmt.Sprintf("Unrecognized key %q", key), Path: key})
		}
	}

	slots := fieldValues(rv.Elem())
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		slot, ok := slots[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(fields[key], slot.Addr().Interface()); err != nil {
			issues = append(issues, Issue{Message: typeMismatch(err, slot.Type(), fields[key]), Path: key})
		}
	}
	return issues, nil
}

// fieldValues maps wire names to the addressable fields of v, flattening untagged
// embedded structs.
func fieldValues(v reflect.Value) map[string]reflect.Value {
	out := map[string]reflect.Value{}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		fv := v.Field(i)
		if sf.Anonymous && sf.Tag.Get("json") == "" && indirect(sf.Type).Kind() == reflect.Struct {
			if fv.Kind() == reflect.Pointer {
				if fv.IsNil() {
					fv.Set(reflect.New(sf.Type.Elem()))
				}
				fv = fv.Elem()
			}
			for k, nested := range fieldValues(fv) {
				out[k] = nested
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}
		if name, ok := jsonName(sf); ok {
			out[name] = fv
		}
	}
	return out
}

func typeMismatch(err error, want reflect.Type, raw json.RawMessage) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		got := typeErr.Value
		if got == "bool" {
			got = "boolean"
		}
		return fmt.Sprintf("Expected %s, received %s", describeType(typeErr.Type), got)
	}
	return fmt.Sprintf("Expected %s, received %s", describeType(want), jsonKind(bytes.TrimSpace(raw)))
}

func jsonKind(raw []byte) string {
	switch raw[0] {
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}

func describeType(t reflect.Type) string {
	t = indirect(t)
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Struct, reflect.Map:
		return "object"
	default:
		return t.String()
	}
}
