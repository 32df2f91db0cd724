package models

// RouteFieldUpdate overrides the doc comment of one method of a route.
type RouteFieldUpdate struct {
	Method         string `yaml:"method"`
	NewDescription string `yaml:"new_description"`
}

type RouteDescription struct {
	Path    string             `yaml:"path"`
	Updates []RouteFieldUpdate `yaml:"updates"`
}

type RouteSelection struct {
	Path    string   `yaml:"path"`
	Methods []string `yaml:"methods"`
}

// RouteRename sets the Go type name generated for one operation.
type RouteRename struct {
	Path     string `yaml:"path"`
	Method   string `yaml:"method"`
	TypeName string `yaml:"type_name"`
}

// ImportAdjustments tunes which operations an OpenAPI import emits and how
// the resulting request structs are named and documented.
type ImportAdjustments struct {
	Descriptions []RouteDescription `yaml:"descriptions,omitempty"`
	Routes       []RouteSelection   `yaml:"routes,omitempty"`
	Renames      []RouteRename      `yaml:"renames,omitempty"`
}
