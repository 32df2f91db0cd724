package openapi

import (
	"strconv"
	"strings"

	"github.com/brizzai/reqbuilder/derive"
	"github.com/brizzai/reqbuilder/internal/codegen"
	"github.com/brizzai/reqbuilder/requester"
	"github.com/getkin/kin-openapi/openapi3"
)

const fileUploadType = "*requester.FileUpload"

// mergeParameters applies operation parameters over the path item's, keyed
// by location and name.
func mergeParameters(itemParams, opParams openapi3.Parameters) []*openapi3.Parameter {
	type key struct{ in, name string }
	var (
		order  []key
		byName = map[key]*openapi3.Parameter{}
	)
	for _, params := range []openapi3.Parameters{itemParams, opParams} {
		for _, ref := range params {
			if ref == nil || ref.Value == nil {
				continue
			}
			k := key{ref.Value.In, ref.Value.Name}
			if _, ok := byName[k]; !ok {
				order = append(order, k)
			}
			byName[k] = ref.Value
		}
	}
	out := make([]*openapi3.Parameter, 0, len(order))
	for _, k := range order {
		out = append(out, byName[k])
	}
	return out
}

// scalarType maps a primitive schema to a Go type; ok is false for arrays,
// objects and untyped schemas.
func scalarType(s *openapi3.Schema) (string, bool) {
	if s == nil || s.Type == nil {
		return "", false
	}
	switch {
	case s.Type.Is(openapi3.TypeString):
		return "string", true
	case s.Type.Is(openapi3.TypeInteger):
		if s.Format == "int32" {
			return "int32", true
		}
		return "int64", true
	case s.Type.Is(openapi3.TypeNumber):
		if s.Format == "float" {
			return "float32", true
		}
		return "float64", true
	case s.Type.Is(openapi3.TypeBoolean):
		return "bool", true
	}
	return "", false
}

// paramType is the Go type of a parameter. Only query parameters may be
// lists; everything else that is not a primitive becomes a string.
func paramType(ref *openapi3.SchemaRef, allowList bool) string {
	if ref == nil {
		return "string"
	}
	s := ref.Value
	if t, ok := scalarType(s); ok {
		return t
	}
	if allowList && s != nil && s.Type != nil && s.Type.Is(openapi3.TypeArray) && s.Items != nil {
		if t, ok := scalarType(s.Items.Value); ok {
			return "[]" + t
		}
	}
	return "string"
}

// requestBody picks the body kind from the operation's request content and
// returns its object schema, if any.
func requestBody(op *openapi3.Operation) (requester.BodyKind, *openapi3.Schema) {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return requester.BodyNone, nil
	}
	content := op.RequestBody.Value.Content
	for _, ct := range bodyContentTypes {
		media := content.Get(ct.ContentType)
		if media == nil {
			continue
		}
		if media.Schema == nil || media.Schema.Value == nil || len(media.Schema.Value.Properties) == 0 {
			return ct.Kind, nil
		}
		return ct.Kind, media.Schema.Value
	}
	if len(content) > 0 {
		// Other JSON-ish media types such as application/merge-patch+json.
		for mediaType, media := range content {
			if strings.HasSuffix(mediaType, "+json") && media.Schema != nil && media.Schema.Value != nil &&
				len(media.Schema.Value.Properties) > 0 {
				return requester.BodyJSON, media.Schema.Value
			}
		}
	}
	return requester.BodyNone, nil
}

// bodyType is the Go type of a body property.
func bodyType(ref *openapi3.SchemaRef, kind requester.BodyKind) string {
	if ref == nil || ref.Value == nil {
		return "any"
	}
	s := ref.Value
	if kind == requester.BodyMultipart && s.Type != nil && s.Type.Is(openapi3.TypeString) &&
		(s.Format == "binary" || s.Format == "base64") {
		return fileUploadType
	}
	if t, ok := scalarType(s); ok {
		return t
	}
	if s.Type != nil && s.Type.Is(openapi3.TypeArray) {
		return "[]" + bodyType(s.Items, kind)
	}
	if s.Type != nil && s.Type.Is(openapi3.TypeObject) && s.AdditionalProperties.Schema != nil && len(s.Properties) == 0 {
		return "map[string]" + bodyType(s.AdditionalProperties.Schema, kind)
	}
	return "any"
}

func schemaDescription(ref *openapi3.SchemaRef) string {
	if ref == nil || ref.Value == nil {
		return ""
	}
	return ref.Value.Description
}

func usesFileUpload(req codegen.Request) bool {
	for _, f := range req.Fields {
		if strings.Contains(f.TypeExpr, fileUploadType) {
			return true
		}
	}
	return false
}

// fieldNames hands out unique Go field names within one struct. A clash is
// resolved by suffixing the role, then a counter.
type fieldNames map[string]bool

func (n fieldNames) claim(name string, role derive.Role) string {
	if !n[name] {
		n[name] = true
		return name
	}
	base := name + ExportedName(string(role))
	candidate := base
	for i := 2; n[candidate]; i++ {
		candidate = base + strconv.Itoa(i)
	}
	n[candidate] = true
	return candidate
}
