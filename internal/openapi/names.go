package openapi

import (
	"strings"
	"unicode"
)

var initialisms = map[string]bool{
	"API": true, "ASCII": true, "CPU": true, "CSS": true, "DNS": true, "EOF": true,
	"GUID": true, "HTML": true, "HTTP": true, "HTTPS": true, "ID": true, "IP": true,
	"JSON": true, "JWT": true, "OS": true, "SQL": true, "SSH": true, "TCP": true,
	"TLS": true, "TTL": true, "UI": true, "UID": true, "URI": true, "URL": true,
	"UTF8": true, "UUID": true, "XML": true,
}

// ExportedName turns an OpenAPI identifier such as "user_id", "X-Request-Id"
// or "listPets" into an exported Go identifier.
func ExportedName(s string) string {
	var b strings.Builder
	for _, word := range splitWords(s) {
		upper := strings.ToUpper(word)
		if initialisms[upper] {
			b.WriteString(upper)
			continue
		}
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	name := b.String()
	if name == "" {
		return "Field"
	}
	if unicode.IsDigit([]rune(name)[0]) {
		name = "X" + name
	}
	return name
}

// splitWords splits on non-alphanumerics and lower-to-upper case changes.
func splitWords(s string) []string {
	var (
		words []string
		cur   []rune
		prev  rune
	)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	for _, r := range s {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
		prev = r
	}
	flush()
	return words
}

// defaultTypeName derives a request type name from the operation id or,
// without one, from the method and path.
func defaultTypeName(method, path, operationID string) string {
	if operationID != "" {
		return ExportedName(operationID) + "Request"
	}
	var b strings.Builder
	b.WriteString(ExportedName(strings.ToLower(method)))
	for _, seg := range strings.Split(path, "/") {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			b.WriteString("By")
			seg = strings.Trim(seg, "{}")
		}
		if seg != "" {
			b.WriteString(ExportedName(seg))
		}
	}
	b.WriteString("Request")
	return b.String()
}
