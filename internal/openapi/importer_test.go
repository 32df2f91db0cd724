package openapi

import (
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/brizzai/reqbuilder/derive"
	"github.com/brizzai/reqbuilder/internal/codegen"
	"github.com/brizzai/reqbuilder/internal/models"
	"github.com/brizzai/reqbuilder/requester"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petstoreV3 = `
openapi: 3.0.3
info:
  title: Pets
  version: "1"
paths:
  /pets:
    get:
      operationId: listPets
      summary: List pets
      parameters:
        - name: limit
          in: query
          schema: {type: integer, format: int32}
        - name: tags
          in: query
          required: true
          schema:
            type: array
            items: {type: string}
        - name: X-Request-Id
          in: header
          schema: {type: string}
        - name: Authorization
          in: header
          schema: {type: string}
        - name: session
          in: cookie
          schema: {type: string}
    post:
      operationId: createPet
      requestBody:
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/NewPet'
  /pets/{petId}:
    parameters:
      - name: petId
        in: path
        required: true
        schema: {type: integer}
    get:
      description: Fetch one pet.
    delete:
      operationId: deletePet
  /pets/{petId}/photo:
    parameters:
      - name: petId
        in: path
        required: true
        schema: {type: integer}
    put:
      operationId: uploadPhoto
      requestBody:
        content:
          multipart/form-data:
            schema:
              type: object
              required: [file]
              properties:
                file: {type: string, format: binary}
                caption: {type: string}
  /broken/{id}:
    get:
      operationId: broken
components:
  schemas:
    NewPet:
      type: object
      required: [name]
      properties:
        name:
          type: string
          description: Name of the pet.
        tag: {type: string}
        attributes:
          type: object
          additionalProperties: {type: string}
        aliases:
          type: array
          items: {type: string}
        weight: {type: number, format: float}
`

func importFile(t *testing.T, doc string, adjuster *Adjuster) *codegen.File {
	t.Helper()
	im := NewImporter(afero.NewMemMapFs(), adjuster)
	require.NoError(t, im.Parse([]byte(doc)))
	file, err := im.File("petstore")
	require.NoError(t, err)
	return file
}

func requestNamed(t *testing.T, file *codegen.File, name string) codegen.Request {
	t.Helper()
	for _, r := range file.Requests {
		if r.TypeName == name {
			return r
		}
	}
	require.Failf(t, "request not found", "%s", name)
	return codegen.Request{}
}

func fieldSummary(r codegen.Request) []string {
	var out []string
	for _, f := range r.Fields {
		out = append(out, f.GoName+" "+f.TypeExpr+" "+f.Tag)
	}
	return out
}

func TestImporter_File(t *testing.T) {
	file := importFile(t, petstoreV3, nil)

	assert.Equal(t, "petstore", file.Package)
	var names []string
	for _, r := range file.Requests {
		names = append(names, r.TypeName)
	}
	// /broken/{id} has no path parameter and is skipped
	assert.Equal(t, []string{
		"ListPetsRequest",
		"CreatePetRequest",
		"GetPetsByPetIDRequest",
		"DeletePetRequest",
		"UploadPhotoRequest",
	}, names)
	assert.Equal(t, map[string]string{codegen.RequesterImport: "requester"}, file.Imports)

	list := requestNamed(t, file, "ListPetsRequest")
	assert.Equal(t, "GET", list.Method)
	assert.Equal(t, "/pets", list.Path)
	assert.Equal(t, "List pets", list.Doc)
	assert.Equal(t, requester.BodyNone, list.Body)
	assert.Equal(t, []string{
		`Limit *int32 req:"query,name=limit"`,
		`Tags []string req:"query,name=tags"`,
		`XRequestID *string req:"header,name=X-Request-Id"`,
	}, fieldSummary(list))
	assert.True(t, list.Fields[0].Optional)
	assert.False(t, list.Fields[1].Optional)

	create := requestNamed(t, file, "CreatePetRequest")
	assert.Equal(t, requester.BodyJSON, create.Body)
	assert.Equal(t, []string{
		`Aliases []string json:"aliases,omitempty"`,
		`Attributes map[string]string json:"attributes,omitempty"`,
		`Name string json:"name"`,
		`Tag string json:"tag,omitempty"`,
		`Weight float32 json:"weight,omitempty"`,
	}, fieldSummary(create))
	assert.Equal(t, "Name of the pet.", create.Fields[2].Doc)
	assert.Equal(t, derive.RoleBody, create.Fields[2].Role)

	get := requestNamed(t, file, "GetPetsByPetIDRequest")
	assert.Equal(t, "Fetch one pet.", get.Doc)
	assert.Equal(t, []string{`PetID int64 req:"path,name=petId"`}, fieldSummary(get))
	assert.Equal(t, "petId", get.Fields[0].Key)

	upload := requestNamed(t, file, "UploadPhotoRequest")
	assert.Equal(t, requester.BodyMultipart, upload.Body)
	assert.Equal(t, []string{
		`PetID int64 req:"path,name=petId"`,
		`Caption string json:"caption,omitempty"`,
		`File *requester.FileUpload json:"file"`,
	}, fieldSummary(upload))
}

func TestImporter_RenderDefinitions(t *testing.T) {
	file := importFile(t, petstoreV3, nil)

	src, err := codegen.RenderDefinitions(file)
	require.NoError(t, err)

	_, err = parser.ParseFile(token.NewFileSet(), "requests.go", src, parser.ParseComments)
	require.NoError(t, err, string(src))

	code := string(src)
	assert.Contains(t, code, "package petstore")
	assert.Contains(t, code, `"github.com/brizzai/reqbuilder/requester"`)
	assert.Contains(t, code, "// List pets\ntype ListPetsRequest struct {")
	assert.Contains(t, code, "`request:\"method=PUT,path=/pets/{petId}/photo,body=multipart\"`")
}

func TestImporter_Adjustments(t *testing.T) {
	adjuster := &Adjuster{adjustments: &models.ImportAdjustments{
		Routes: []models.RouteSelection{
			{Path: "/pets", Methods: []string{"GET"}},
			{Path: "/pets/{petId}", Methods: []string{"DELETE"}},
		},
		Descriptions: []models.RouteDescription{
			{Path: "/pets", Updates: []models.RouteFieldUpdate{{Method: "GET", NewDescription: "Search pets."}}},
		},
		Renames: []models.RouteRename{
			{Path: "/pets", Method: "GET", TypeName: "SearchPets"},
		},
	}}

	file := importFile(t, petstoreV3, adjuster)
	require.Len(t, file.Requests, 2)
	assert.Equal(t, "SearchPets", file.Requests[0].TypeName)
	assert.Equal(t, "Search pets.", file.Requests[0].Doc)
	assert.Equal(t, "DeletePetRequest", file.Requests[1].TypeName)
	assert.Empty(t, file.Imports)
}

func TestImporter_DuplicateTypeNames(t *testing.T) {
	im := NewImporter(nil, nil)
	require.NoError(t, im.Parse([]byte(`
openapi: 3.0.0
info: {title: Dup, version: "1"}
paths:
  /a:
    get: {operationId: fetch}
  /b:
    get: {operationId: fetch}
`)))
	_, err := im.File("api")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type name FetchRequest used by GET /a and GET /b")
}

const legacyV2 = `
swagger: "2.0"
info:
  title: Legacy
  version: "1"
basePath: /v1
paths:
  /login:
    post:
      operationId: login
      consumes: [application/x-www-form-urlencoded]
      parameters:
        - name: username
          in: formData
          type: string
          required: true
        - name: password
          in: formData
          type: string
          required: true
  /users/{id}:
    put:
      operationId: updateUser
      consumes: [application/json]
      parameters:
        - name: id
          in: path
          required: true
          type: string
        - name: body
          in: body
          schema:
            type: object
            properties:
              id: {type: string}
              email: {type: string}
`

func TestImporter_Swagger2(t *testing.T) {
	file := importFile(t, legacyV2, nil)
	require.Len(t, file.Requests, 2)

	login := requestNamed(t, file, "LoginRequest")
	assert.Equal(t, requester.BodyForm, login.Body)
	var keys []string
	for _, f := range login.FieldsByRole(derive.RoleBody) {
		keys = append(keys, f.Key)
	}
	assert.ElementsMatch(t, []string{"username", "password"}, keys)

	update := requestNamed(t, file, "UpdateUserRequest")
	assert.Equal(t, "PUT", update.Method)
	assert.Equal(t, requester.BodyJSON, update.Body)
	var goNames []string
	for _, f := range update.Fields {
		goNames = append(goNames, f.GoName)
	}
	assert.Equal(t, []string{"ID", "Email", "IDBody"}, goNames)
}

func TestImporter_ParseReaderJSON(t *testing.T) {
	im := NewImporter(nil, nil)
	doc := `{"openapi":"3.0.3","info":{"title":"T","version":"1"},"paths":{"/ping":{"head":{"operationId":"ping"}}}}`
	require.NoError(t, im.ParseReader(strings.NewReader(doc)))

	file, err := im.File("api")
	require.NoError(t, err)
	require.Len(t, file.Requests, 1)
	assert.Equal(t, "PingRequest", file.Requests[0].TypeName)
	assert.Equal(t, "HEAD", file.Requests[0].Method)
}

func TestImporter_LoadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/specs/pets.yaml", []byte(petstoreV3), 0o644))

	im := NewImporter(fs, nil)
	require.NoError(t, im.LoadFile("/specs/pets.yaml"))
	file, err := im.File("pets")
	require.NoError(t, err)
	assert.Len(t, file.Requests, 5)

	assert.Error(t, im.LoadFile("/specs/missing.yaml"))
}

func TestImporter_ParseErrors(t *testing.T) {
	tests := []struct {
		name        string
		doc         string
		unsupported bool
	}{
		{name: "openapi 4", doc: "openapi: 4.0.0\n", unsupported: true},
		{name: "swagger 1.2", doc: "swagger: '1.2'\n", unsupported: true},
		{name: "no version", doc: "info: {title: x}\n"},
		{name: "not yaml", doc: "openapi: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewImporter(nil, nil).Parse([]byte(tt.doc))
			require.Error(t, err)
			if tt.unsupported {
				assert.ErrorIs(t, err, ErrUnsupportedVersion)
			}
		})
	}
}

func TestImporter_FileWithoutDocument(t *testing.T) {
	_, err := NewImporter(nil, nil).File("api")
	assert.Error(t, err)
}
