package derive

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/brizzai/reqbuilder/requester"
)

// Struct tag keys. The container tag sits on a blank field:
//
//	type CreatePost struct {
//		_ struct{} `request:"method=POST,path=/users/{id}/posts,body=json"`
//
//		ID    uint64 `req:"path,name=id"`
//		Draft *bool  `req:"query"`
//		Token string `req:"header,name=Authorization"`
//		Title string `json:"title"`
//	}
const (
	ContainerTag = "request"
	FieldTag     = "req"
)

// ErrInvalidDefinition is wrapped by every tag parsing and validation error.
var ErrInvalidDefinition = errors.New("invalid request definition")

// Role says where a field goes in the assembled request.
type Role string

const (
	RolePath   Role = "path"
	RoleQuery  Role = "query"
	RoleHeader Role = "header"
	RoleBody   Role = "body"
	RoleSkip   Role = "-"
)

var supportedMethods = map[string]bool{
	"GET":     true,
	"POST":    true,
	"PUT":     true,
	"DELETE":  true,
	"PATCH":   true,
	"HEAD":    true,
	"OPTIONS": true,
}

// RequestAttrs are the container attributes of a request type.
type RequestAttrs struct {
	Method string
	Path   string
	Body   requester.BodyKind
}

// FieldAttrs are the attributes of one field. Name is the rename given with
// name=..., empty when absent.
type FieldAttrs struct {
	Role Role
	Name string
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidDefinition, fmt.Sprintf(format, args...))
}

// splitOptions splits a tag on commas. A segment without '=' that follows a
// key=value segment is treated as part of that value, so paths may contain commas.
func splitOptions(tag string) []string {
	var parts []string
	for _, seg := range strings.Split(tag, ",") {
		if len(parts) > 0 && !strings.Contains(seg, "=") && strings.Contains(parts[len(parts)-1], "=") {
			parts[len(parts)-1] += "," + seg
			continue
		}
		parts = append(parts, seg)
	}
	return parts
}

// ParseRequestTag parses the container tag, e.g. "method=GET,path=/users/{id}".
// method and path are required; body defaults to json.
func ParseRequestTag(tag string) (RequestAttrs, error) {
	attrs := RequestAttrs{Body: requester.BodyJSON}
	var haveMethod, havePath bool

	for _, part := range splitOptions(tag) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return RequestAttrs{}, invalidf("container option %q must be key=value", part)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch key {
		case "method":
			m := strings.ToUpper(value)
			if !supportedMethods[m] {
				return RequestAttrs{}, invalidf("unsupported HTTP method: %s", value)
			}
			attrs.Method = m
			haveMethod = true
		case "path":
			if value == "" {
				return RequestAttrs{}, invalidf("path must not be empty")
			}
			attrs.Path = value
			havePath = true
		case "body":
			kind, ok := requester.ParseBodyKind(strings.ToLower(value))
			if !ok {
				return RequestAttrs{}, invalidf("unsupported body type: %s", value)
			}
			attrs.Body = kind
		default:
			return RequestAttrs{}, invalidf("unknown container option %q", key)
		}
	}

	if !haveMethod {
		return RequestAttrs{}, invalidf("missing required 'method' attribute")
	}
	if !havePath {
		return RequestAttrs{}, invalidf("missing required 'path' attribute")
	}
	return attrs, nil
}

// ParseFieldTag parses a field tag such as "query,name=page". An empty tag
// makes the field a body member.
func ParseFieldTag(tag string) (FieldAttrs, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return FieldAttrs{Role: RoleBody}, nil
	}

	parts := strings.Split(tag, ",")
	attrs := FieldAttrs{Role: Role(strings.TrimSpace(parts[0]))}
	switch attrs.Role {
	case RolePath, RoleQuery, RoleHeader, RoleBody:
	case RoleSkip:
		if len(parts) > 1 {
			return FieldAttrs{}, invalidf("'-' takes no options")
		}
		return attrs, nil
	default:
		return FieldAttrs{}, invalidf("unknown field role %q", parts[0])
	}

	for _, opt := range parts[1:] {
		key, value, ok := strings.Cut(strings.TrimSpace(opt), "=")
		if !ok || key != "name" {
			return FieldAttrs{}, invalidf("unknown %s option %q", attrs.Role, opt)
		}
		if attrs.Role == RoleBody {
			return FieldAttrs{}, invalidf("body fields are renamed with their json tag, not name=")
		}
		if value == "" {
			return FieldAttrs{}, invalidf("%s name must not be empty", attrs.Role)
		}
		attrs.Name = value
	}
	return attrs, nil
}

var placeholderPattern = regexp.MustCompile(`\{([^{}/]*)\}`)

// Placeholders returns the placeholder names of a path template in order.
func Placeholders(path string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(path, -1)
	if len(matches) == 0 {
		return nil
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// ValidatePath checks that every placeholder of path has exactly one path
// field and that every path field has a placeholder.
func ValidatePath(path string, pathFields []string) error {
	count := make(map[string]int, len(pathFields))
	for _, name := range pathFields {
		count[name]++
	}
	for _, name := range pathFields {
		if n := count[name]; n > 1 {
			return invalidf("path parameter {%s} is bound by %d fields", name, n)
		}
	}

	seen := make(map[string]bool)
	for _, name := range Placeholders(path) {
		if name == "" {
			return invalidf("empty placeholder in path %q", path)
		}
		if count[name] == 0 {
			return invalidf("path placeholder {%s} has no matching path field", name)
		}
		seen[name] = true
	}
	for _, name := range pathFields {
		if !seen[name] {
			return invalidf("path field %q has no placeholder in %q", name, path)
		}
	}
	return nil
}

// JSONName returns the name encoding/json uses for a field with the given
// Go name and json tag, and whether the field is skipped ("-").
func JSONName(goName, jsonTag string) (string, bool) {
	if jsonTag == "-" {
		return "", true
	}
	name, _, _ := strings.Cut(jsonTag, ",")
	if name == "" {
		return goName, false
	}
	return name, false
}

// KeyName returns the wire name of a field: its name= rename, else its json
// name, else its Go name.
func KeyName(goName, jsonTag string, attrs FieldAttrs) string {
	if attrs.Name != "" {
		return attrs.Name
	}
	if name, skipped := JSONName(goName, jsonTag); !skipped {
		return name
	}
	return goName
}
