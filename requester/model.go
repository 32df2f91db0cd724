package requester

import (
	"bytes"
	"io"
)

// BodyKind names a body encoding.
type BodyKind string

const (
	BodyJSON      BodyKind = "json"
	BodyForm      BodyKind = "form"
	BodyMultipart BodyKind = "multipart"
	BodyNone      BodyKind = "none"
)

// ParseBodyKind maps json|form|multipart|none to a BodyKind.
func ParseBodyKind(s string) (BodyKind, bool) {
	switch BodyKind(s) {
	case BodyJSON, BodyForm, BodyMultipart, BodyNone:
		return BodyKind(s), true
	}
	return "", false
}

// RequestBody is one of JSONBody, FormBody, MultipartBody or NoBody.
type RequestBody interface {
	Kind() BodyKind
	isRequestBody()
}

// JSONBody encodes Value with encoding/json.
type JSONBody struct {
	Value any
}

// FormBody encodes a flat mapping as application/x-www-form-urlencoded.
// Value is a Params list, a map[string]string, or anything that encodes to
// a JSON object (typically a struct).
type FormBody struct {
	Value any
}

// MultipartBody encodes named parts as multipart/form-data.
type MultipartBody struct {
	Parts []Part
}

// NoBody sends an empty body without a content type.
type NoBody struct{}

func (JSONBody) Kind() BodyKind      { return BodyJSON }
func (FormBody) Kind() BodyKind      { return BodyForm }
func (MultipartBody) Kind() BodyKind { return BodyMultipart }
func (NoBody) Kind() BodyKind        { return BodyNone }

func (JSONBody) isRequestBody()      {}
func (FormBody) isRequestBody()      {}
func (MultipartBody) isRequestBody() {}
func (NoBody) isRequestBody()        {}

// Part is one named segment of a multipart body. Exactly one of Value or File
// is meaningful: a part with a File is a file part.
type Part struct {
	Name  string
	Value string
	File  *FileUpload
}

// TextPart returns a scalar multipart field.
func TextPart(name, value string) Part {
	return Part{Name: name, Value: value}
}

// FilePart returns a multipart file field.
func FilePart(name string, file *FileUpload) Part {
	return Part{Name: name, File: file}
}

// MultipartParts converts a value into the parts it contributes under name:
// a *FileUpload (or FileUpload) becomes a file part, nil contributes nothing,
// slices contribute one part per element and scalars a text part. Structs and
// maps are sent as their JSON text.
func MultipartParts(name string, v any) []Part {
	switch f := v.(type) {
	case *FileUpload:
		if f == nil {
			return nil
		}
		return []Part{FilePart(name, f)}
	case FileUpload:
		return []Part{FilePart(name, &f)}
	case []*FileUpload:
		parts := make([]Part, 0, len(f))
		for _, file := range f {
			if file != nil {
				parts = append(parts, FilePart(name, file))
			}
		}
		return parts
	}
	values := formatValues(v)
	parts := make([]Part, 0, len(values))
	for _, s := range values {
		parts = append(parts, TextPart(name, s))
	}
	return parts
}

// EncodedBody is the wire form of a RequestBody.
type EncodedBody struct {
	Bytes       []byte
	ContentType string
}

func bodyReader(b []byte) io.Reader {
	if len(b) == 0 {
		return nil
	}
	return bytes.NewReader(b)
}
