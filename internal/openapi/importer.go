// Package openapi imports OpenAPI 3 and Swagger 2 documents as annotated
// request structs.
package openapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/brizzai/reqbuilder/derive"
	"github.com/brizzai/reqbuilder/internal/codegen"
	"github.com/brizzai/reqbuilder/internal/logger"
	"github.com/brizzai/reqbuilder/requester"
	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedVersion is returned for documents that are neither
// Swagger 2.0 nor OpenAPI 3.x.
var ErrUnsupportedVersion = errors.New("unsupported OpenAPI version")

// Content types mapped to body kinds, in order of preference.
var bodyContentTypes = []struct {
	ContentType string
	Kind        requester.BodyKind
}{
	{"application/json", requester.BodyJSON},
	{"application/x-www-form-urlencoded", requester.BodyForm},
	{"multipart/form-data", requester.BodyMultipart},
}

// Header parameters with these names are described elsewhere in OpenAPI and
// are not imported.
var reservedHeaders = map[string]bool{
	"Accept":        true,
	"Content-Type":  true,
	"Authorization": true,
}

var operationMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}

// Importer converts OpenAPI documents into codegen request models.
type Importer struct {
	fs       afero.Fs
	adjuster *Adjuster
	doc      *openapi3.T
}

// NewImporter creates an Importer. A nil adjuster selects every operation.
func NewImporter(fs afero.Fs, adjuster *Adjuster) *Importer {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if adjuster == nil {
		adjuster = NewAdjuster(fs)
	}
	return &Importer{fs: fs, adjuster: adjuster}
}

// LoadFile reads and parses an OpenAPI document from a JSON or YAML file.
func (im *Importer) LoadFile(path string) error {
	data, err := afero.ReadFile(im.fs, path)
	if err != nil {
		return fmt.Errorf("failed to read spec file: %w", err)
	}
	return im.Parse(data)
}

// ParseReader parses an OpenAPI document from r.
func (im *Importer) ParseReader(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read OpenAPI document: %w", err)
	}
	return im.Parse(data)
}

// Parse detects the document version and loads it, converting Swagger 2.0
// to OpenAPI 3.
func (im *Importer) Parse(data []byte) error {
	var probe struct {
		Swagger string `yaml:"swagger"`
		OpenAPI string `yaml:"openapi"`
	}
	// YAML is a superset of JSON, so one probe covers both encodings.
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("invalid OpenAPI document: %w", err)
	}

	switch {
	case probe.Swagger != "":
		doc, err := convertV2(data, probe.Swagger)
		if err != nil {
			return err
		}
		im.doc = doc
		return nil
	case strings.HasPrefix(probe.OpenAPI, "3."):
	case probe.OpenAPI != "":
		return fmt.Errorf("%w: %s", ErrUnsupportedVersion, probe.OpenAPI)
	default:
		return errors.New("document is missing 'swagger' or 'openapi' version field")
	}

	doc, err := openapi3.NewLoader().LoadFromData(data)
	if err != nil {
		return fmt.Errorf("failed to parse OpenAPI spec: %w", err)
	}
	logger.Info("Parsed OpenAPI 3 document", zap.String("title", infoTitle(doc)))
	im.doc = doc
	return nil
}

func convertV2(data []byte, version string) (*openapi3.T, error) {
	if version != "2.0" {
		return nil, fmt.Errorf("%w: swagger %s", ErrUnsupportedVersion, version)
	}
	// openapi2.T only decodes JSON; normalize YAML input first.
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI 2.0 spec: %w", err)
	}
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI 2.0 spec: %w", err)
	}
	var doc2 openapi2.T
	if err := json.Unmarshal(jsonData, &doc2); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI 2.0 spec: %w", err)
	}

	logger.Info("Detected OpenAPI 2.0 spec, converting to OpenAPI 3.0")
	doc, err := openapi2conv.ToV3(&doc2)
	if err != nil {
		return nil, fmt.Errorf("failed to convert OpenAPI 2.0 to 3.0: %w", err)
	}
	return doc, nil
}

func infoTitle(doc *openapi3.T) string {
	if doc.Info == nil {
		return ""
	}
	return doc.Info.Title
}

// File builds the request models of every selected operation, ordered by
// path and then method. Operations that cannot form a valid request are
// skipped with a warning.
func (im *Importer) File(pkg string) (*codegen.File, error) {
	if im.doc == nil {
		return nil, errors.New("no OpenAPI document loaded")
	}
	file := &codegen.File{Package: pkg, Imports: map[string]string{}}
	if im.doc.Paths == nil {
		return file, nil
	}

	paths := im.doc.Paths.InMatchingOrder()
	sort.Strings(paths)
	seen := map[string]string{}
	for _, path := range paths {
		item := im.doc.Paths.Value(path)
		for _, method := range operationMethods {
			op := item.GetOperation(method)
			if op == nil || !im.adjuster.Selected(path, method) {
				continue
			}
			req, err := im.request(path, method, item, op)
			if err != nil {
				logger.Warn("Skipping operation",
					zap.String("method", method),
					zap.String("path", path),
					zap.Error(err))
				continue
			}
			if other, dup := seen[req.TypeName]; dup {
				return nil, fmt.Errorf("type name %s used by %s and %s %s", req.TypeName, other, method, path)
			}
			seen[req.TypeName] = method + " " + path
			if usesFileUpload(req) {
				file.Imports[codegen.RequesterImport] = "requester"
			}
			file.Requests = append(file.Requests, req)
		}
	}
	return file, nil
}

func (im *Importer) request(path, method string, item *openapi3.PathItem, op *openapi3.Operation) (codegen.Request, error) {
	desc := op.Description
	if desc == "" {
		desc = op.Summary
	}
	req := codegen.Request{
		TypeName: im.adjuster.TypeName(path, method, defaultTypeName(method, path, op.OperationID)),
		Doc:      im.adjuster.Description(path, method, desc),
		Method:   method,
		Path:     path,
		Body:     requester.BodyNone,
	}
	names := fieldNames{}

	for _, p := range mergeParameters(item.Parameters, op.Parameters) {
		var role derive.Role
		switch p.In {
		case openapi3.ParameterInPath:
			role = derive.RolePath
		case openapi3.ParameterInQuery:
			role = derive.RoleQuery
		case openapi3.ParameterInHeader:
			if reservedHeaders[http.CanonicalHeaderKey(p.Name)] {
				continue
			}
			role = derive.RoleHeader
		default:
			continue
		}
		optional := !p.Required && role != derive.RolePath
		typeExpr := paramType(p.Schema, role == derive.RoleQuery)
		if optional && !strings.HasPrefix(typeExpr, "[]") {
			typeExpr = "*" + typeExpr
		}
		req.Fields = append(req.Fields, codegen.Field{
			GoName:   names.claim(ExportedName(p.Name), role),
			Role:     role,
			Key:      p.Name,
			TypeExpr: typeExpr,
			Tag:      fmt.Sprintf(`req:"%s,name=%s"`, role, p.Name),
			Optional: optional,
			Doc:      p.Description,
		})
	}

	if kind, schema := requestBody(op); schema != nil {
		req.Body = kind
		required := map[string]bool{}
		for _, r := range schema.Required {
			required[r] = true
		}
		props := make([]string, 0, len(schema.Properties))
		for name := range schema.Properties {
			props = append(props, name)
		}
		sort.Strings(props)
		for _, name := range props {
			prop := schema.Properties[name]
			jsonName := name
			if !required[name] {
				jsonName += ",omitempty"
			}
			req.Fields = append(req.Fields, codegen.Field{
				GoName:   names.claim(ExportedName(name), derive.RoleBody),
				Role:     derive.RoleBody,
				Key:      name,
				TypeExpr: bodyType(prop, kind),
				Tag:      fmt.Sprintf(`json:%q`, jsonName),
				Doc:      schemaDescription(prop),
			})
		}
	} else if kind != requester.BodyNone {
		req.Body = kind
	}

	if err := req.Validate(); err != nil {
		return codegen.Request{}, err
	}
	return req, nil
}
