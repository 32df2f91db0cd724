package codegen

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"strings"
	"testing"

	"github.com/brizzai/reqbuilder/derive"
	"github.com/brizzai/reqbuilder/requester"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFile() *File {
	return &File{
		Package: "api",
		Imports: map[string]string{"time": "time"},
		Requests: []Request{
			{
				TypeName: "GetPost",
				Method:   "GET",
				Path:     "/users/{user_id}/posts/{post_id}",
				Body:     requester.BodyNone,
				Fields: []Field{
					{GoName: "UserID", Role: derive.RolePath, Key: "user_id", Tag: `req:"path,name=user_id"`},
					{GoName: "PostID", Role: derive.RolePath, Key: "post_id", Tag: `req:"path,name=post_id"`},
					{GoName: "Tags", Role: derive.RoleQuery, Key: "tag", Tag: `req:"query,name=tag"`},
					{GoName: "Token", Role: derive.RoleHeader, Key: "Authorization", Tag: `req:"header,name=Authorization"`},
					{GoName: "TraceID", Role: derive.RoleHeader, Key: "X-Trace-Id", Tag: `req:"header,name=X-Trace-Id"`, Optional: true},
				},
			},
			{
				TypeName: "CreateEvent",
				Method:   "POST",
				Path:     "/events",
				Body:     requester.BodyJSON,
				Fields: []Field{
					{GoName: "Name", Role: derive.RoleBody, Key: "name", TypeExpr: "string", Tag: `json:"name"`},
					{GoName: "At", Role: derive.RoleBody, Key: "at", TypeExpr: "time.Time", Tag: `json:"at"`},
				},
			},
			{
				TypeName: "UploadFile",
				Method:   "PUT",
				Path:     "/files",
				Body:     requester.BodyMultipart,
				Fields: []Field{
					{GoName: "File", Role: derive.RoleBody, Key: "file", TypeExpr: "*requester.FileUpload", Tag: `json:"file"`},
				},
			},
		},
	}
}

func parseSource(t *testing.T, src []byte) *ast.File {
	t.Helper()
	f, err := parser.ParseFile(token.NewFileSet(), "generated.go", src, parser.ParseComments)
	require.NoError(t, err, string(src))
	return f
}

func importPaths(f *ast.File) []string {
	var paths []string
	for _, imp := range f.Imports {
		p, _ := strconv.Unquote(imp.Path.Value)
		paths = append(paths, p)
	}
	return paths
}

// declared returns the type names and "Recv.Method" names declared in f.
func declared(f *ast.File) (typeNames, methods []string) {
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				if ts, ok := spec.(*ast.TypeSpec); ok {
					typeNames = append(typeNames, ts.Name.Name)
				}
			}
		case *ast.FuncDecl:
			if d.Recv != nil {
				recv := d.Recv.List[0].Type.(*ast.Ident).Name
				methods = append(methods, recv+"."+d.Name.Name)
			}
		}
	}
	return typeNames, methods
}

func TestRender(t *testing.T) {
	src, err := Render(sampleFile())
	require.NoError(t, err)
	code := string(src)

	assert.True(t, strings.HasPrefix(code, "// Code generated by reqbuilder gen. DO NOT EDIT."))

	f := parseSource(t, src)
	assert.Equal(t, "api", f.Name.Name)
	assert.ElementsMatch(t, []string{"net/url", "strings", RequesterImport, "time"}, importPaths(f))

	typeNames, methods := declared(f)
	assert.Equal(t, []string{"GetPostHeaders", "createEventBody"}, typeNames)
	for _, typ := range []string{"GetPost", "CreateEvent", "UploadFile"} {
		for _, m := range []string{"Method", "Endpoint", "Headers", "QueryParams", "Body"} {
			assert.Contains(t, methods, typ+"."+m)
		}
	}

	for _, snippet := range []string{
		`endpoint := "/users/{user_id}/posts/{post_id}"`,
		`endpoint = strings.ReplaceAll(endpoint, "{user_id}", url.PathEscape(requester.FormatValue(r.UserID)))`,
		`endpoint = strings.ReplaceAll(endpoint, "{post_id}", url.PathEscape(requester.FormatValue(r.PostID)))`,
		`q = q.Append("tag", r.Tags)`,
		"`json:\"Authorization\"`",
		"`json:\"X-Trace-Id,omitempty\"`",
		`return requester.NoBody{}`,
		`return requester.JSONBody{Value: createEventBody{`,
		`parts = append(parts, requester.MultipartParts("file", r.File)...)`,
		`return requester.MultipartBody{Parts: parts}`,
		`return "/events"`,
	} {
		assert.Contains(t, code, snippet)
	}
}

func TestRender_FormBody(t *testing.T) {
	src, err := Render(&File{
		Package: "api",
		Requests: []Request{{
			TypeName: "Login",
			Method:   "POST",
			Path:     "/login",
			Body:     requester.BodyForm,
			Fields: []Field{
				{GoName: "Username", Role: derive.RoleBody, Key: "username", TypeExpr: "string", Tag: `json:"username"`},
			},
		}},
	})
	require.NoError(t, err)

	f := parseSource(t, src)
	assert.Equal(t, []string{RequesterImport}, importPaths(f))
	assert.Contains(t, string(src), `return requester.FormBody{Value: loginBody{`)
	assert.Contains(t, string(src), "return nil\n")
}

func TestRender_InvalidPath(t *testing.T) {
	_, err := Render(&File{
		Package: "api",
		Requests: []Request{{
			TypeName: "GetUser",
			Method:   "GET",
			Path:     "/users/{id}",
			Body:     requester.BodyNone,
		}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, derive.ErrInvalidDefinition)
	assert.Contains(t, err.Error(), "GetUser")
}

func TestRenderDefinitions(t *testing.T) {
	src, err := RenderDefinitions(&File{
		Package: "petstore",
		Requests: []Request{{
			TypeName: "AddPetRequest",
			Doc:      "Add a new pet.\nThe pet is stored as given.",
			Method:   "POST",
			Path:     "/pets/{store}",
			Body:     requester.BodyJSON,
			Fields: []Field{
				{GoName: "Store", Role: derive.RolePath, Key: "store", TypeExpr: "string", Tag: `req:"path,name=store"`},
				{GoName: "Name", Role: derive.RoleBody, Key: "name", TypeExpr: "string", Tag: `json:"name"`, Doc: "Name of the pet."},
				{GoName: "Tag", Role: derive.RoleBody, Key: "tag", TypeExpr: "*string", Tag: `json:"tag,omitempty"`},
			},
		}},
	})
	require.NoError(t, err)
	code := string(src)

	assert.True(t, strings.HasPrefix(code, "// Code generated by reqbuilder import. DO NOT EDIT."))
	assert.Contains(t, code, "//go:generate reqbuilder gen")
	assert.Contains(t, code, "// Add a new pet.\n// The pet is stored as given.\ntype AddPetRequest struct {")
	assert.Contains(t, code, "`request:\"method=POST,path=/pets/{store},body=json\"`")
	assert.Contains(t, code, "\t// Name of the pet.\n")

	f := parseSource(t, src)
	assert.Empty(t, f.Imports)
	typeNames, _ := declared(f)
	assert.Equal(t, []string{"AddPetRequest"}, typeNames)
}

func TestRenderDefinitions_RoundTrip(t *testing.T) {
	want := &File{
		Package: "api",
		Requests: []Request{{
			TypeName: "ListItems",
			Method:   "GET",
			Path:     "/items",
			Body:     requester.BodyNone,
			Fields: []Field{
				{GoName: "Page", Role: derive.RoleQuery, Key: "page", TypeExpr: "*int", Tag: `req:"query,name=page"`},
				{GoName: "Token", Role: derive.RoleHeader, Key: "X-Token", TypeExpr: "string", Tag: `req:"header,name=X-Token"`},
			},
		}},
	}
	src, err := RenderDefinitions(want)
	require.NoError(t, err)

	got, err := collect(checkSource(t, string(src)))
	require.NoError(t, err)
	require.Len(t, got.Requests, 1)

	r := got.Requests[0]
	assert.Equal(t, "ListItems", r.TypeName)
	assert.Equal(t, "GET", r.Method)
	assert.Equal(t, "/items", r.Path)
	assert.Equal(t, requester.BodyNone, r.Body)
	require.Len(t, r.Fields, 2)
	assert.Equal(t, "page", r.Fields[0].Key)
	assert.True(t, r.Fields[0].Optional)
	assert.Equal(t, derive.RoleHeader, r.Fields[1].Role)
	assert.Equal(t, "X-Token", r.Fields[1].Key)
}

func TestRawTag(t *testing.T) {
	assert.Equal(t, "`json:\"a\"`", rawTag(`json:"a"`))
	assert.Equal(t, strconv.Quote("a`b"), rawTag("a`b"))
}

func TestLowerName(t *testing.T) {
	assert.Equal(t, "getPost", lowerName("GetPost"))
	assert.Equal(t, "", lowerName(""))
	assert.Equal(t, "éclair", lowerName("Éclair"))
}

func TestComment(t *testing.T) {
	assert.Equal(t, "", comment("  ", ""))
	assert.Equal(t, "\t// one\n\t// two\n", comment("one  \ntwo\n", "\t"))
}

func TestSortedImports(t *testing.T) {
	f := &File{Imports: map[string]string{
		"time":                      "time",
		"example.com/models/v2":     "models",
		"example.com/shared/errors": "errors",
	}}
	assert.Equal(t, []importSpec{
		{Path: "example.com/models/v2", Name: "models"},
		{Path: "example.com/shared/errors"},
		{Path: "time"},
	}, f.sortedImports())
}

func TestRender_BodyImports(t *testing.T) {
	hook := func(imports map[string]string, withPath bool) *File {
		r := Request{
			TypeName: "CreateHook",
			Method:   "POST",
			Path:     "/hooks",
			Body:     requester.BodyJSON,
			Fields: []Field{
				{GoName: "Callback", Role: derive.RoleBody, Key: "callback", TypeExpr: "*url.URL", Tag: `json:"callback"`},
			},
		}
		if withPath {
			r.Path = "/repos/{repo}/hooks"
			r.Fields = append(r.Fields, Field{GoName: "Repo", Role: derive.RolePath, Key: "repo", Tag: `req:"path,name=repo"`})
		}
		return &File{Package: "api", Imports: imports, Requests: []Request{r}}
	}

	tests := []struct {
		name        string
		file        *File
		wantImports []string
		wantErr     string
	}{
		{
			name:        "net/url and requester are written once",
			file:        hook(map[string]string{"net/url": "url", RequesterImport: "requester"}, true),
			wantImports: []string{"net/url", "strings", RequesterImport},
		},
		{
			name:        "net/url without path fields",
			file:        hook(map[string]string{"net/url": "url"}, false),
			wantImports: []string{RequesterImport, "net/url"},
		},
		{
			name:        "package named strings without path fields",
			file:        hook(map[string]string{"example.com/strings": "strings"}, false),
			wantImports: []string{RequesterImport, "example.com/strings"},
		},
		{
			name:    "package named strings next to path fields",
			file:    hook(map[string]string{"example.com/strings": "strings"}, true),
			wantErr: `body field package "example.com/strings" is named strings`,
		},
		{
			name:    "foreign package named requester",
			file:    hook(map[string]string{"example.com/v2/requester": "requester"}, false),
			wantErr: "is named requester",
		},
		{
			name:    "two packages with one name",
			file:    hook(map[string]string{"example.com/a/util": "util", "example.com/b/util": "util"}, false),
			wantErr: `body field packages "example.com/a/util" and "example.com/b/util" are both named util`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Render(tt.file)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.wantImports, importPaths(parseSource(t, src)))
		})
	}
}
