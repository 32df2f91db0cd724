// Package manifest describes a single HTTP request in YAML and turns it into
// a requester.Request.
package manifest

import (
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"github.com/brizzai/reqbuilder/derive"
	"github.com/brizzai/reqbuilder/requester"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Manifest is the YAML description of one request:
//
//	method: POST
//	path: /users/{id}/avatar
//	path_params:
//	  id: 42
//	query:
//	  - key: notify
//	    value: true
//	headers:
//	  X-Request-Id: abc
//	body:
//	  kind: multipart
//	  fields:
//	    caption: holiday
//	  files:
//	    - name: file
//	      path: ./avatar.png
type Manifest struct {
	Method     string            `yaml:"method" validate:"required,oneof=GET POST PUT PATCH DELETE HEAD OPTIONS"`
	Path       string            `yaml:"path" validate:"required"`
	PathParams map[string]any    `yaml:"path_params"`
	Query      []QueryParam      `yaml:"query" validate:"dive"`
	Headers    map[string]string `yaml:"headers"`
	Body       *Body             `yaml:"body"`

	// dir resolves relative file paths.
	dir string
}

// QueryParam is one query pair. A list value repeats the key.
type QueryParam struct {
	Key   string `yaml:"key" validate:"required"`
	Value any    `yaml:"value"`
}

// Body describes the request body. Fields keep their YAML order.
type Body struct {
	Kind   string    `yaml:"kind" validate:"required,oneof=json form multipart none"`
	Fields yaml.Node `yaml:"fields"`
	Files  []File    `yaml:"files" validate:"dive"`
}

// File is a multipart file part read from disk.
type File struct {
	Name        string `yaml:"name" validate:"required"`
	Path        string `yaml:"path" validate:"required"`
	ContentType string `yaml:"content_type"`
}

// Load reads and validates a manifest file.
func Load(fs afero.Fs, path string) (*Manifest, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

// Parse decodes and validates manifest YAML.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	m.Method = strings.ToUpper(m.Method)
	if err := validate.Struct(&m); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	if err := m.check(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &m, nil
}

func (m *Manifest) check() error {
	names := make([]string, 0, len(m.PathParams))
	for name := range m.PathParams {
		names = append(names, name)
	}
	sort.Strings(names)
	if err := derive.ValidatePath(m.Path, names); err != nil {
		return err
	}
	if m.Body == nil {
		return nil
	}
	if len(m.Body.Files) > 0 && m.Body.Kind != string(requester.BodyMultipart) {
		return fmt.Errorf("files require a multipart body, got %s", m.Body.Kind)
	}
	if m.Body.Fields.Kind != 0 && m.Body.Fields.Kind != yaml.MappingNode {
		return fmt.Errorf("body fields must be a mapping")
	}
	return nil
}

// Request builds the request, reading multipart files through fs. A nil fs
// means the OS filesystem.
func (m *Manifest) Request(fs afero.Fs) (requester.Request, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	req := &request{
		method:  m.Method,
		headers: m.Headers,
		body:    requester.NoBody{},
	}

	req.endpoint = m.Path
	for name, v := range m.PathParams {
		req.endpoint = strings.ReplaceAll(req.endpoint, "{"+name+"}", url.PathEscape(requester.FormatValue(v)))
	}
	for _, q := range m.Query {
		req.query = req.query.Append(q.Key, q.Value)
	}

	if m.Body == nil {
		return req, nil
	}
	switch requester.BodyKind(m.Body.Kind) {
	case requester.BodyJSON:
		raw, err := nodeJSON(&m.Body.Fields)
		if err != nil {
			return nil, err
		}
		req.body = requester.JSONBody{Value: raw}
	case requester.BodyForm:
		raw, err := nodeJSON(&m.Body.Fields)
		if err != nil {
			return nil, err
		}
		req.body = requester.FormBody{Value: raw}
	case requester.BodyMultipart:
		parts, err := m.multipartParts(fs)
		if err != nil {
			return nil, err
		}
		req.body = requester.MultipartBody{Parts: parts}
	}
	return req, nil
}

func (m *Manifest) multipartParts(fs afero.Fs) ([]requester.Part, error) {
	var parts []requester.Part
	fields := &m.Body.Fields
	for i := 0; i+1 < len(fields.Content); i += 2 {
		key, val := fields.Content[i].Value, fields.Content[i+1]
		if val.Kind == yaml.ScalarNode {
			if val.Tag == "!!null" {
				continue
			}
			parts = append(parts, requester.TextPart(key, val.Value))
			continue
		}
		raw, err := nodeJSON(val)
		if err != nil {
			return nil, err
		}
		parts = append(parts, requester.TextPart(key, string(raw)))
	}
	for _, f := range m.Body.Files {
		path := f.Path
		if !filepath.IsAbs(path) && m.dir != "" {
			path = filepath.Join(m.dir, path)
		}
		opts := []requester.FileOption{requester.WithFs(fs)}
		if f.ContentType != "" {
			opts = append(opts, requester.WithContentType(f.ContentType))
		}
		upload, err := requester.FromPath(path, opts...)
		if err != nil {
			return nil, err
		}
		parts = append(parts, requester.FilePart(f.Name, upload))
	}
	return parts, nil
}

// request is the requester.Request built from a manifest.
type request struct {
	method   string
	endpoint string
	headers  map[string]string
	query    requester.QueryParams
	body     requester.RequestBody
}

func (r *request) Method() string {
	if r.method == "" {
		return http.MethodGet
	}
	return r.method
}

func (r *request) Endpoint() string { return r.endpoint }

func (r *request) Headers() any {
	if len(r.headers) == 0 {
		return nil
	}
	return r.headers
}

func (r *request) QueryParams() requester.QueryParams { return r.query }

func (r *request) Body() requester.RequestBody { return r.body }
