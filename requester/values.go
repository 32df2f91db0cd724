package requester

import (
	"encoding"
	"encoding/json"
	"reflect"
	"strconv"

	"github.com/spf13/cast"
)

// FormatValue returns the wire representation of v, or "" when v has none.
// Path parameters, header values and query values all go through it.
func FormatValue(v any) string {
	s, err := FormatValueE(v)
	if err != nil {
		return ""
	}
	return s
}

// FormatValueE returns the wire representation of v. Pointers are followed,
// nil becomes "", encoding.TextMarshaler and fmt.Stringer are honored, named
// scalar types use their underlying kind and structs or maps become JSON text.
func FormatValueE(v any) (string, error) {
	rv, ok := indirect(reflect.ValueOf(v))
	if !ok {
		return "", nil
	}
	v = rv.Interface()

	if tm, ok := v.(encoding.TextMarshaler); ok {
		b, err := tm.MarshalText()
		if err != nil {
			return "", NewSerializationError("cannot format %T: %v", v, err)
		}
		return string(b), nil
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s, nil
	}

	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), nil
	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array:
		b, err := json.Marshal(v)
		if err != nil {
			return "", wrapJSONError(err)
		}
		return string(b), nil
	}
	return "", NewSerializationError("cannot format value of type %T", v)
}

// formatValues formats v as a list: nil contributes nothing and slices or
// arrays (other than byte slices) contribute one entry per element.
func formatValues(v any) []string {
	rv, ok := indirect(reflect.ValueOf(v))
	if !ok {
		return nil
	}
	if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type().Elem().Kind() != reflect.Uint8 {
		out := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elem, ok := indirect(rv.Index(i))
			if !ok {
				continue
			}
			if s, err := FormatValueE(elem.Interface()); err == nil {
				out = append(out, s)
			}
		}
		return out
	}
	s, err := FormatValueE(rv.Interface())
	if err != nil {
		return nil
	}
	return []string{s}
}

// indirect follows pointers and interfaces. It reports false for nil.
func indirect(rv reflect.Value) (reflect.Value, bool) {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		if rv.Kind() == reflect.Pointer && rv.Type().Implements(textMarshalerType) {
			// keep pointer receivers such as *big.Int intact
			if _, ok := rv.Elem().Interface().(encoding.TextMarshaler); !ok {
				return rv, true
			}
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return reflect.Value{}, false
	}
	return rv, true
}

var textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
