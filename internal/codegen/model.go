package codegen

import (
	"sort"

	"github.com/brizzai/reqbuilder/derive"
	"github.com/brizzai/reqbuilder/requester"
)

// File is everything rendered into one generated Go file.
type File struct {
	Package  string
	Requests []Request
	// Imports maps import paths to the package names used in type expressions.
	Imports map[string]string
}

// Request is one annotated request struct.
type Request struct {
	TypeName string
	Doc      string
	Method   string
	Path     string
	Body     requester.BodyKind
	Fields   []Field
}

// Field is one routed field of a request struct.
type Field struct {
	GoName string
	Role   derive.Role
	// Key is the placeholder, query, header or body member name.
	Key string
	// TypeExpr is the field type as written in the generated package.
	TypeExpr string
	// Tag is the complete struct tag, without backquotes.
	Tag      string
	Optional bool
	Doc      string
}

// FieldsByRole returns the fields with the given role in declaration order.
func (r Request) FieldsByRole(role derive.Role) []Field {
	var out []Field
	for _, f := range r.Fields {
		if f.Role == role {
			out = append(out, f)
		}
	}
	return out
}

// Validate applies the shared path placeholder rules.
func (r Request) Validate() error {
	var names []string
	for _, f := range r.FieldsByRole(derive.RolePath) {
		names = append(names, f.Key)
	}
	return derive.ValidatePath(r.Path, names)
}

type importSpec struct {
	Name string
	Path string
}

// sortedImports returns the extra imports in path order. The name is
// omitted when it equals the last path element.
func (f *File) sortedImports() []importSpec {
	specs := make([]importSpec, 0, len(f.Imports))
	for path, name := range f.Imports {
		spec := importSpec{Path: path}
		if name != lastElem(path) {
			spec.Name = name
		}
		specs = append(specs, spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Path < specs[j].Path })
	return specs
}

func lastElem(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
