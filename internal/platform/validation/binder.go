package validation

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
)

// conversionError marks a value that could not be coerced to the field type.
type conversionError struct {
	want string
	got  string
}

func (e conversionError) Error() string {
	return fmt.Sprintf("Expected %s, received %q", e.want, e.got)
}

// bindValues coerces string key/values (query or route params) into the struct at target.
func bindValues(values map[string][]string, target any, opts Options) ([]Issue, error) {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("validation: %T is not a pointer to struct", target)
	}

	var issues []Issue
	seen := map[string]struct{}{}
	if err := bindStruct(rv.Elem(), values, seen, &issues); err != nil {
		return nil, err
	}

	if !opts.AllowUnknown {
		var unknown []string
		for key := range values {
			if _, ok := seen[key]; !ok {
				unknown = append(unknown, key)
			}
		}
		sort.Strings(unknown)
		for _, key := range unknown {
			issues = append(issues, Issue{Message: fmt.Sprintf("Unrecognized key %q", key), Path: key})
		}
	}
	return issues, nil
}

func bindStruct(v reflect.Value, values map[string][]string, seen map[string]struct{}, issues *[]Issue) error {
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
			if err := bindStruct(fv, values, seen, issues); err != nil {
				return err
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}
		name, ok := jsonName(sf)
		if !ok {
			continue
		}
		seen[name] = struct{}{}

		raw := nonEmpty(values[name])
		if len(raw) == 0 {
			def, hasDefault := sf.Tag.Lookup("default")
			if !hasDefault {
				continue
			}
			raw = []string{def}
		}

		if err := assign(fv, raw); err != nil {
			if ce, ok := err.(conversionError); ok {
				*issues = append(*issues, Issue{Message: ce.Error(), Path: name})
				continue
			}
			return fmt.Errorf("validation: field %s: %w", name, err)
		}
	}
	return nil
}

func nonEmpty(raw []string) []string {
	out := raw[:0:0]
	for _, s := range raw {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func assign(v reflect.Value, raw []string) error {
	switch v.Kind() {
	case reflect.Pointer:
		elem := reflect.New(v.Type().Elem())
		if err := assign(elem.Elem(), raw); err != nil {
			return err
		}
		v.Set(elem)
		return nil
	case reflect.Slice:
		out := reflect.MakeSlice(v.Type(), len(raw), len(raw))
		for i, s := range raw {
			if err := assignScalar(out.Index(i), s); err != nil {
				return err
			}
		}
		v.Set(out)
		return nil
	default:
		return assignScalar(v, raw[len(raw)-1])
	}
}

func assignScalar(v reflect.Value, s string) error {
	switch v.Kind() {
	case reflect.String:
		v.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return conversionError{want: "boolean", got: s}
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, v.Type().Bits())
		if err != nil {
			return conversionError{want: "number", got: s}
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, v.Type().Bits())
		if err != nil {
			return conversionError{want: "number", got: s}
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, v.Type().Bits())
		if err != nil {
			return conversionError{want: "number", got: s}
		}
		v.SetFloat(f)
	default:
		return fmt.Errorf("unsupported kind %s", v.Kind())
	}
	return nil
}
