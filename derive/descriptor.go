package derive

import (
	"encoding"
	"fmt"
	"net/http"
	"reflect"
	"sync"

	"github.com/brizzai/reqbuilder/requester"
)

// Field describes one routed struct field.
type Field struct {
	// GoName is the struct field name.
	GoName string
	// Index is the field index in the request struct.
	Index int
	Role  Role
	// Key is the placeholder, query, header or body member name.
	Key string
	// Optional is set for pointer fields; nil values are omitted.
	Optional bool
}

// Descriptor is the validated, cached description of a request type.
// It is immutable and safe for concurrent use.
type Descriptor struct {
	Type   reflect.Type
	Method string
	Path   string
	Body   requester.BodyKind
	Fields []Field

	headerType reflect.Type
	bodyType   reflect.Type
}

// HeaderType returns the companion header record type, or nil when the
// request has no header fields. Its fields are strings whose json tags are
// the header names.
func (d *Descriptor) HeaderType() reflect.Type {
	return d.headerType
}

// FieldsByRole returns the fields with the given role in declaration order.
func (d *Descriptor) FieldsByRole(role Role) []Field {
	var out []Field
	for _, f := range d.Fields {
		if f.Role == role {
			out = append(out, f)
		}
	}
	return out
}

type cacheEntry struct {
	desc *Descriptor
	err  error
}

var cache sync.Map // reflect.Type -> cacheEntry

// Describe returns the descriptor of t, building and validating it on first
// use. Pointer types describe their element type.
func Describe(t reflect.Type) (*Descriptor, error) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return nil, invalidf("nil type")
	}
	if e, ok := cache.Load(t); ok {
		entry := e.(cacheEntry)
		return entry.desc, entry.err
	}
	desc, err := build(t)
	e, _ := cache.LoadOrStore(t, cacheEntry{desc: desc, err: err})
	entry := e.(cacheEntry)
	return entry.desc, entry.err
}

// Register validates T and caches its descriptor.
func Register[T any]() (*Descriptor, error) {
	return Describe(reflect.TypeFor[T]())
}

// MustRegister is like Register but panics on an invalid definition. It is
// meant for package-level variables so mistakes surface at program start.
func MustRegister[T any]() *Descriptor {
	d, err := Register[T]()
	if err != nil {
		panic(err)
	}
	return d
}

func build(t reflect.Type) (*Descriptor, error) {
	if t.Kind() != reflect.Struct {
		return nil, invalidf("%s is not a struct", t)
	}

	var (
		attrs        RequestAttrs
		haveAttrs    bool
		fields       []Field
		pathNames    []string
		headerFields []reflect.StructField
		bodyFields   []reflect.StructField
		headerNames  = map[string]string{}
	)

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)

		if sf.Name == "_" {
			tag, ok := sf.Tag.Lookup(ContainerTag)
			if !ok {
				continue
			}
			if haveAttrs {
				return nil, invalidf("%s: more than one %q tag", t.Name(), ContainerTag)
			}
			a, err := ParseRequestTag(tag)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", t.Name(), err)
			}
			attrs, haveAttrs = a, true
			continue
		}

		tag, tagged := sf.Tag.Lookup(FieldTag)
		if !sf.IsExported() {
			if tagged {
				return nil, invalidf("%s.%s: unexported fields cannot carry a %q tag", t.Name(), sf.Name, FieldTag)
			}
			continue
		}
		fa, err := ParseFieldTag(tag)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.Name(), sf.Name, err)
		}
		if fa.Role == RoleSkip {
			continue
		}
		if sf.Anonymous {
			return nil, invalidf("%s.%s: embedded fields are not supported", t.Name(), sf.Name)
		}

		field := Field{
			GoName:   sf.Name,
			Index:    i,
			Role:     fa.Role,
			Key:      KeyName(sf.Name, sf.Tag.Get("json"), fa),
			Optional: sf.Type.Kind() == reflect.Pointer,
		}

		switch fa.Role {
		case RolePath:
			if !isScalar(sf.Type) {
				return nil, invalidf("%s.%s: path parameter of type %s is not a scalar", t.Name(), sf.Name, sf.Type)
			}
			pathNames = append(pathNames, field.Key)
		case RoleQuery:
			if !isScalar(sf.Type) && !isScalarList(sf.Type) {
				return nil, invalidf("%s.%s: query parameter of type %s is not a scalar or list of scalars", t.Name(), sf.Name, sf.Type)
			}
		case RoleHeader:
			if !isScalar(sf.Type) {
				return nil, invalidf("%s.%s: header of type %s is not a scalar", t.Name(), sf.Name, sf.Type)
			}
			canonical := http.CanonicalHeaderKey(field.Key)
			if other, dup := headerNames[canonical]; dup {
				return nil, invalidf("%s.%s: header %q is also set by %s", t.Name(), sf.Name, field.Key, other)
			}
			headerNames[canonical] = sf.Name
			headerFields = append(headerFields, companionHeaderField(sf, field))
		case RoleBody:
			if _, skipped := JSONName(sf.Name, sf.Tag.Get("json")); skipped {
				continue
			}
			bodyFields = append(bodyFields, reflect.StructField{
				Name: sf.Name,
				Type: sf.Type,
				Tag:  sf.Tag,
			})
		}
		fields = append(fields, field)
	}

	if !haveAttrs {
		return nil, invalidf("%s: missing %q tag on a blank field", t.Name(), ContainerTag)
	}
	if err := ValidatePath(attrs.Path, pathNames); err != nil {
		return nil, fmt.Errorf("%s: %w", t.Name(), err)
	}

	d := &Descriptor{
		Type:   t,
		Method: attrs.Method,
		Path:   attrs.Path,
		Body:   attrs.Body,
		Fields: fields,
	}
	if len(headerFields) > 0 {
		d.headerType = reflect.StructOf(headerFields)
	}
	if attrs.Body == requester.BodyJSON || attrs.Body == requester.BodyForm {
		d.bodyType = reflect.StructOf(bodyFields)
	}
	return d, nil
}

// companionHeaderField is the header record field for a header-tagged field.
// Optional sources are omitted from the record when nil.
func companionHeaderField(sf reflect.StructField, f Field) reflect.StructField {
	tag := f.Key
	if f.Optional {
		tag += ",omitempty"
	}
	return reflect.StructField{
		Name: sf.Name,
		Type: reflect.TypeFor[string](),
		Tag:  reflect.StructTag(fmt.Sprintf(`json:%q`, tag)),
	}
}

var (
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
	stringerType      = reflect.TypeFor[fmt.Stringer]()
)

// isScalar reports whether values of t format to a single string.
func isScalar(t reflect.Type) bool {
	if t.Implements(textMarshalerType) || t.Implements(stringerType) {
		return true
	}
	if t.Kind() == reflect.Pointer {
		return isScalar(t.Elem())
	}
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Slice:
		return t.Elem().Kind() == reflect.Uint8
	}
	return false
}

func isScalarList(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Slice && t.Kind() != reflect.Array {
		return false
	}
	return isScalar(t.Elem())
}
