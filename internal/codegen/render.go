package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"github.com/brizzai/reqbuilder/derive"
	"github.com/brizzai/reqbuilder/requester"
)

// RequesterImport is the import path generated code depends on.
const RequesterImport = "github.com/brizzai/reqbuilder/requester"

var funcs = template.FuncMap{
	"quote":     strconv.Quote,
	"rawTag":    rawTag,
	"lowerName": lowerName,
	"path":      func(r Request) []Field { return r.FieldsByRole(derive.RolePath) },
	"query":     func(r Request) []Field { return r.FieldsByRole(derive.RoleQuery) },
	"headers":   func(r Request) []Field { return r.FieldsByRole(derive.RoleHeader) },
	"body":      func(r Request) []Field { return r.FieldsByRole(derive.RoleBody) },
	"headerTag": headerTag,
	"isJSON":    func(r Request) bool { return r.Body == requester.BodyJSON },
	"isForm":    func(r Request) bool { return r.Body == requester.BodyForm },
	"isMulti":   func(r Request) bool { return r.Body == requester.BodyMultipart },
	"comment":   comment,
}

var implTemplate = template.Must(template.New("impl").Funcs(funcs).Parse(`// Code generated by reqbuilder gen. DO NOT EDIT.

package {{.File.Package}}

import (
{{- if .NeedsPath}}
	"net/url"
	"strings"
{{- end}}

	"{{.Requester}}"
{{- range .Imports}}
	{{if .Name}}{{.Name}} {{end}}"{{.Path}}"
{{- end}}
)
{{range $r := .File.Requests}}
{{- $recv := $r.TypeName}}
{{- if headers $r}}
// {{$r.TypeName}}Headers is the header record of {{$r.TypeName}}.
type {{$r.TypeName}}Headers struct {
{{- range headers $r}}
	{{.GoName}} string {{headerTag .}}
{{- end}}
}
{{end}}
{{- if or (isJSON $r) (isForm $r)}}
type {{lowerName $r.TypeName}}Body struct {
{{- range body $r}}
	{{.GoName}} {{.TypeExpr}}{{if .Tag}} {{rawTag .Tag}}{{end}}
{{- end}}
}
{{end}}
// Method implements requester.Request.
func (r {{$recv}}) Method() string {
	return {{quote $r.Method}}
}

// Endpoint implements requester.Request.
func (r {{$recv}}) Endpoint() string {
{{- if path $r}}
	endpoint := {{quote $r.Path}}
{{- range path $r}}
	endpoint = strings.ReplaceAll(endpoint, {{quote (printf "{%s}" .Key)}}, url.PathEscape(requester.FormatValue(r.{{.GoName}})))
{{- end}}
	return endpoint
{{- else}}
	return {{quote $r.Path}}
{{- end}}
}

// Headers implements requester.Request.
func (r {{$recv}}) Headers() any {
{{- if headers $r}}
	return {{$r.TypeName}}Headers{
{{- range headers $r}}
		{{.GoName}}: requester.FormatValue(r.{{.GoName}}),
{{- end}}
	}
{{- else}}
	return nil
{{- end}}
}

// QueryParams implements requester.Request.
func (r {{$recv}}) QueryParams() requester.QueryParams {
{{- if query $r}}
	var q requester.QueryParams
{{- range query $r}}
	q = q.Append({{quote .Key}}, r.{{.GoName}})
{{- end}}
	return q
{{- else}}
	return nil
{{- end}}
}

// Body implements requester.Request.
func (r {{$recv}}) Body() requester.RequestBody {
{{- if isMulti $r}}
	var parts []requester.Part
{{- range body $r}}
	parts = append(parts, requester.MultipartParts({{quote .Key}}, r.{{.GoName}})...)
{{- end}}
	return requester.MultipartBody{Parts: parts}
{{- else if or (isJSON $r) (isForm $r)}}
	return requester.{{if isForm $r}}FormBody{{else}}JSONBody{{end}}{Value: {{lowerName $r.TypeName}}Body{
{{- range body $r}}
		{{.GoName}}: r.{{.GoName}},
{{- end}}
	}}
{{- else}}
	return requester.NoBody{}
{{- end}}
}
{{end}}`))

var defsTemplate = template.Must(template.New("defs").Funcs(funcs).Parse(`// Code generated by reqbuilder import. DO NOT EDIT.

package {{.File.Package}}
{{if .Imports}}
import (
{{- range .Imports}}
	{{if .Name}}{{.Name}} {{end}}"{{.Path}}"
{{- end}}
)
{{end}}
//go:generate reqbuilder gen
{{range $r := .File.Requests}}
{{comment $r.Doc ""}}type {{$r.TypeName}} struct {
	_ struct{} {{rawTag (printf "request:%q" (printf "method=%s,path=%s,body=%s" $r.Method $r.Path $r.Body))}}
{{range $r.Fields}}
{{- comment .Doc "\t"}}	{{.GoName}} {{.TypeExpr}}{{if .Tag}} {{rawTag .Tag}}{{end}}
{{end -}}
}
{{end}}`))

type renderData struct {
	File      *File
	Requester string
	Imports   []importSpec
	NeedsPath bool
}

// Render returns the gofmt'ed implementation file for f.
func Render(f *File) ([]byte, error) {
	for _, r := range f.Requests {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", r.TypeName, err)
		}
	}
	data := renderData{
		File:      f,
		Requester: RequesterImport,
	}
	for _, r := range f.Requests {
		if len(r.FieldsByRole(derive.RolePath)) > 0 {
			data.NeedsPath = true
		}
	}
	imports, err := f.implImports(data.NeedsPath)
	if err != nil {
		return nil, err
	}
	data.Imports = imports
	return execute(implTemplate, data)
}

// implImports returns the body field imports that the implementation file
// adds to the ones its template always writes.
func (f *File) implImports(needsPath bool) ([]importSpec, error) {
	fixed := map[string]string{"requester": RequesterImport}
	if needsPath {
		fixed["url"] = "net/url"
		fixed["strings"] = "strings"
	}
	fixedPaths := make(map[string]bool, len(fixed))
	for _, path := range fixed {
		fixedPaths[path] = true
	}

	var out []importSpec
	seen := map[string]string{}
	for _, spec := range f.sortedImports() {
		if fixedPaths[spec.Path] {
			continue
		}
		name := spec.Name
		if name == "" {
			name = lastElem(spec.Path)
		}
		if path, clash := fixed[name]; clash {
			return nil, fmt.Errorf("body field package %q is named %s, which generated code reserves for %q", spec.Path, name, path)
		}
		if path, clash := seen[name]; clash {
			return nil, fmt.Errorf("body field packages %q and %q are both named %s", path, spec.Path, name)
		}
		seen[name] = spec.Path
		out = append(out, spec)
	}
	return out, nil
}

// RenderDefinitions returns the gofmt'ed request struct definitions for f.
func RenderDefinitions(f *File) ([]byte, error) {
	return execute(defsTemplate, renderData{
		File:    f,
		Imports: f.sortedImports(),
	})
}

func execute(t *template.Template, data renderData) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format generated source: %w", err)
	}
	return src, nil
}

func rawTag(tag string) string {
	if strings.Contains(tag, "`") {
		return strconv.Quote(tag)
	}
	return "`" + tag + "`"
}

func headerTag(f Field) string {
	name := f.Key
	if f.Optional {
		name += ",omitempty"
	}
	return rawTag(fmt.Sprintf("json:%q", name))
}

func lowerName(name string) string {
	if name == "" {
		return name
	}
	runes := []rune(name)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

// comment renders text as a line comment block with the given indent.
func comment(text, indent string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		b.WriteString(indent)
		b.WriteString("// ")
		b.WriteString(strings.TrimRight(line, " \t"))
		b.WriteString("\n")
	}
	return b.String()
}
