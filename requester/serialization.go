package requester

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"golang.org/x/net/http/httpguts"
)

// policy decides what happens to a detected violation: the lenient policy
// drops the offending piece and continues, the strict one stops and reports.
type policy int

const (
	lenient policy = iota
	strict
)

// report returns err under the strict policy and nil under the lenient one.
func (p policy) report(err *Error) error {
	if p == strict {
		return err
	}
	return nil
}

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

var placeholderPattern = regexp.MustCompile(`\{[^{}/]+\}`)

// SerializeHeaders converts a header record into an http.Header, silently
// skipping entries whose name or value is not valid on the wire.
func SerializeHeaders(record any) http.Header {
	h, _ := serializeHeaders(record, lenient)
	return h
}

// TrySerializeHeaders converts a header record into an http.Header and
// returns a KindHeader error for the first invalid entry.
func TrySerializeHeaders(record any) (http.Header, error) {
	return serializeHeaders(record, strict)
}

func serializeHeaders(record any, p policy) (http.Header, error) {
	header := make(http.Header)
	if record == nil {
		return header, nil
	}

	obj, err := jsonObject(record, "headers")
	if err != nil {
		if reported := p.report(err); reported != nil {
			return nil, reported
		}
		return header, nil
	}

	var walkErr error
	obj.ForEach(func(key, val gjson.Result) bool {
		name := key.String()
		switch val.Type {
		case gjson.Null:
			return true
		case gjson.String:
		default:
			walkErr = p.report(NewHeaderError(name, val.Raw, "header value must be a string"))
			return walkErr == nil
		}
		value := val.String()
		if !httpguts.ValidHeaderFieldName(name) {
			walkErr = p.report(NewHeaderError(name, value, "invalid header name"))
			return walkErr == nil
		}
		if !httpguts.ValidHeaderFieldValue(value) || !visibleASCII(value) {
			walkErr = p.report(NewHeaderError(name, value, "invalid header value"))
			return walkErr == nil
		}
		header.Set(name, value)
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return header, nil
}

// visibleASCII reports whether v holds only tab and printable ASCII. httpguts
// still admits obs-text bytes above 0x7F.
func visibleASCII(v string) bool {
	for i := 0; i < len(v); i++ {
		if c := v[i]; c != '\t' && (c < 0x20 || c > 0x7e) {
			return false
		}
	}
	return true
}

// EncodeQuery percent-encodes params in order, dropping pairs that cannot be
// encoded.
func EncodeQuery(params QueryParams) string {
	s, _ := encodeQuery(params, lenient)
	return s
}

// TryEncodeQuery percent-encodes params in order and returns a
// KindSerialization error for the first pair that cannot be encoded.
func TryEncodeQuery(params QueryParams) (string, error) {
	return encodeQuery(params, strict)
}

func encodeQuery(params QueryParams, p policy) (string, error) {
	var b strings.Builder
	for _, param := range params {
		if err := checkParam(param); err != nil {
			if err := p.report(err); err != nil {
				return "", err
			}
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(param.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(param.Value))
	}
	return b.String(), nil
}

func checkParam(param Param) *Error {
	if param.Key == "" {
		return NewSerializationError("query parameter with value %q has an empty key", param.Value)
	}
	if !utf8.ValidString(param.Key) || !utf8.ValidString(param.Value) {
		return NewSerializationError("query parameter %q is not valid UTF-8", param.Key)
	}
	return nil
}

// FormParams flattens data into ordered form pairs. Strings are kept as is,
// numbers and booleans become their text, nulls are skipped and nested arrays
// or objects are encoded as JSON text. Failures yield an empty list.
func FormParams(data any) Params {
	params, _ := formParams(data, lenient)
	return params
}

// TryFormParams is FormParams returning a KindSerialization error when data
// cannot be encoded or does not encode to a JSON object.
func TryFormParams(data any) (Params, error) {
	return formParams(data, strict)
}

func formParams(data any, p policy) (Params, error) {
	switch v := data.(type) {
	case nil:
		return nil, nil
	case Params:
		return v, nil
	case url.Values:
		params := Params{}
		for _, key := range slices.Sorted(maps.Keys(v)) {
			for _, value := range v[key] {
				params = params.Add(key, value)
			}
		}
		return params, nil
	}

	obj, err := jsonObject(data, "form data")
	if err != nil {
		return nil, p.report(err)
	}
	params := Params{}
	obj.ForEach(func(key, val gjson.Result) bool {
		switch val.Type {
		case gjson.Null:
		case gjson.String:
			params = params.Add(key.String(), val.String())
		default:
			// numbers, booleans and nested JSON keep their literal text
			params = params.Add(key.String(), val.Raw)
		}
		return true
	})
	return params, nil
}

// jsonObject encodes v and checks that it is a JSON object.
func jsonObject(v any, what string) (gjson.Result, *Error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return gjson.Result{}, wrapJSONError(err)
	}
	obj := gjson.ParseBytes(raw)
	if !obj.IsObject() {
		return gjson.Result{}, NewSerializationError("%s must serialize to a JSON object", what)
	}
	return obj, nil
}

// ConstructURL joins base and endpoint with exactly one slash between them.
// An empty endpoint yields the base without its trailing slash. A query on
// the base is kept after the endpoint's own query.
func ConstructURL(base *url.URL, endpoint string) string {
	b := *base
	b.RawQuery, b.Fragment, b.RawFragment = "", "", ""
	joined := strings.TrimRight(b.String(), "/")
	if endpointStr := strings.TrimLeft(endpoint, "/"); endpointStr != "" {
		joined += "/" + endpointStr
	}
	if base.RawQuery == "" {
		return joined
	}
	if strings.Contains(joined, "?") {
		return joined + "&" + base.RawQuery
	}
	return joined + "?" + base.RawQuery
}

// JoinURL resolves endpoint against base. Absolute endpoints replace the base.
// Placeholders left unsubstituted in the endpoint are a KindInvalidRequest
// error and an unparsable result is a KindURL error.
func JoinURL(base *url.URL, endpoint string) (*url.URL, error) {
	return joinURL(base, endpoint, strict)
}

func joinURL(base *url.URL, endpoint string, p policy) (*url.URL, error) {
	if p == strict {
		if ph := placeholderPattern.FindString(endpoint); ph != "" {
			return nil, NewInvalidRequestError("unresolved path placeholder %s in %q", ph, endpoint)
		}
	}

	if abs, err := url.Parse(endpoint); err == nil && abs.IsAbs() {
		return abs, nil
	}

	joined, err := url.Parse(ConstructURL(base, endpoint))
	if err != nil {
		if p == strict {
			return nil, wrapURLError(err)
		}
		// keep the base so the lenient builder still produces a request
		copied := *base
		return &copied, nil
	}
	return joined, nil
}

// ParseBaseURL parses an absolute base URL.
func ParseBaseURL(raw string) (*url.URL, error) {
	base, err := url.Parse(raw)
	if err != nil {
		return nil, wrapURLError(err)
	}
	if !base.IsAbs() || base.Host == "" {
		return nil, NewURLError("base URL %q must be absolute", raw)
	}
	return base, nil
}

// withQuery appends the encoded query to u, keeping any query already in u.
func withQuery(u *url.URL, query string) *url.URL {
	if query == "" {
		return u
	}
	out := *u
	if out.RawQuery == "" {
		out.RawQuery = query
	} else {
		out.RawQuery = out.RawQuery + "&" + query
	}
	return &out
}

// EncodeBody encodes body best effort. An encoding failure yields an empty
// body without a content type.
func EncodeBody(body RequestBody) EncodedBody {
	enc, err := encodeBody(body, lenient)
	if err != nil {
		return EncodedBody{}
	}
	return enc
}

// TryEncodeBody encodes body and reports failures as *Error.
func TryEncodeBody(body RequestBody) (EncodedBody, error) {
	return encodeBody(body, strict)
}

func encodeBody(body RequestBody, p policy) (EncodedBody, error) {
	switch b := body.(type) {
	case nil, NoBody, *NoBody:
		return EncodedBody{}, nil
	case JSONBody:
		return encodeJSON(b.Value, p)
	case *JSONBody:
		return encodeJSON(b.Value, p)
	case FormBody:
		return encodeForm(b.Value, p)
	case *FormBody:
		return encodeForm(b.Value, p)
	case MultipartBody:
		return encodeMultipart(b.Parts, p)
	case *MultipartBody:
		return encodeMultipart(b.Parts, p)
	}
	return EncodedBody{}, p.report(NewInvalidRequestError("unsupported body type %T", body))
}

func encodeJSON(v any, p policy) (EncodedBody, error) {
	if v == nil {
		return EncodedBody{}, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return EncodedBody{}, p.report(wrapJSONError(err))
	}
	// a body without members is not sent
	if s := string(raw); s == "{}" || s == "null" {
		return EncodedBody{}, nil
	}
	return EncodedBody{Bytes: raw, ContentType: contentTypeJSON}, nil
}

func encodeForm(v any, p policy) (EncodedBody, error) {
	params, err := formParams(v, p)
	if err != nil {
		return EncodedBody{}, err
	}
	encoded, err := encodeQuery(params, p)
	if err != nil {
		return EncodedBody{}, err
	}
	return EncodedBody{Bytes: []byte(encoded), ContentType: contentTypeForm}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func encodeMultipart(parts []Part, p policy) (EncodedBody, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, part := range parts {
		if err := writePart(writer, part); err != nil {
			if err := p.report(err); err != nil {
				return EncodedBody{}, err
			}
		}
	}

	if err := writer.Close(); err != nil {
		return EncodedBody{}, p.report(NewSerializationError("failed to close multipart writer: %v", err))
	}
	return EncodedBody{Bytes: buf.Bytes(), ContentType: writer.FormDataContentType()}, nil
}

func writePart(writer *multipart.Writer, part Part) *Error {
	if part.Name == "" {
		return NewSerializationError("multipart part without a name")
	}
	if part.File == nil {
		if err := writer.WriteField(part.Name, part.Value); err != nil {
			return NewSerializationError("failed to write form field %q: %v", part.Name, err)
		}
		return nil
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(part.Name), quoteEscaper.Replace(part.File.Filename)))
	h.Set("Content-Type", part.File.ContentType)
	w, err := writer.CreatePart(h)
	if err != nil {
		return NewSerializationError("failed to create form file %q: %v", part.Name, err)
	}
	if _, err := w.Write(part.File.Content); err != nil {
		return NewSerializationError("failed to copy file %q: %v", part.File.Filename, err)
	}
	return nil
}
