package derive

import (
	"net/url"
	"reflect"
	"strings"

	"github.com/brizzai/reqbuilder/requester"
)

// Bind returns a requester.Request backed by a copy of v, which must be a
// value of (or pointer to) the described type.
func (d *Descriptor) Bind(v any) (requester.Request, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, requester.NewInvalidRequestError("cannot bind a nil %s", d.Type)
		}
		rv = rv.Elem()
	}
	if rv.Type() != d.Type {
		return nil, requester.NewInvalidRequestError("cannot bind %s to a %s descriptor", rv.Type(), d.Type)
	}
	cp := reflect.New(d.Type).Elem()
	cp.Set(rv)
	return &boundRequest{desc: d, value: cp}, nil
}

// New describes T and binds v in one step.
func New[T any](v T) (requester.Request, error) {
	d, err := Register[T]()
	if err != nil {
		return nil, err
	}
	return d.Bind(v)
}

// boundRequest implements requester.Request from a descriptor and a value.
type boundRequest struct {
	desc  *Descriptor
	value reflect.Value
}

var _ requester.Request = (*boundRequest)(nil)

func (r *boundRequest) field(f Field) any {
	return r.value.Field(f.Index).Interface()
}

func (r *boundRequest) Method() string {
	return r.desc.Method
}

func (r *boundRequest) Endpoint() string {
	endpoint := r.desc.Path
	for _, f := range r.desc.Fields {
		if f.Role != RolePath {
			continue
		}
		endpoint = strings.ReplaceAll(endpoint, "{"+f.Key+"}", url.PathEscape(requester.FormatValue(r.field(f))))
	}
	return endpoint
}

func (r *boundRequest) Headers() any {
	if r.desc.headerType == nil {
		return nil
	}
	record := reflect.New(r.desc.headerType).Elem()
	i := 0
	for _, f := range r.desc.Fields {
		if f.Role != RoleHeader {
			continue
		}
		record.Field(i).SetString(requester.FormatValue(r.field(f)))
		i++
	}
	return record.Interface()
}

func (r *boundRequest) QueryParams() requester.QueryParams {
	var q requester.QueryParams
	for _, f := range r.desc.Fields {
		if f.Role == RoleQuery {
			q = q.Append(f.Key, r.field(f))
		}
	}
	return q
}

func (r *boundRequest) Body() requester.RequestBody {
	switch r.desc.Body {
	case requester.BodyNone:
		return requester.NoBody{}
	case requester.BodyMultipart:
		var parts []requester.Part
		for _, f := range r.desc.Fields {
			if f.Role == RoleBody {
				parts = append(parts, requester.MultipartParts(f.Key, r.field(f))...)
			}
		}
		return requester.MultipartBody{Parts: parts}
	}

	body := reflect.New(r.desc.bodyType).Elem()
	i := 0
	for _, f := range r.desc.Fields {
		if f.Role != RoleBody {
			continue
		}
		body.Field(i).Set(r.value.Field(f.Index))
		i++
	}
	if r.desc.Body == requester.BodyForm {
		return requester.FormBody{Value: body.Interface()}
	}
	return requester.JSONBody{Value: body.Interface()}
}
