package requester

import (
	"context"
	"net/http"
	"net/url"
)

// Request is the capability contract a request type satisfies, either by hand
// or through the derive package and the reqbuilder generator.
// Implementations must not mutate the receiver.
type Request interface {
	// Method returns the HTTP method, e.g. http.MethodPost.
	Method() string
	// Endpoint returns the request path with path parameters already substituted.
	// It may be relative to the base URL or absolute.
	Endpoint() string
	// Headers returns a header record: a struct whose json tags name the headers,
	// a map[string]string, or nil when there are no headers to add.
	Headers() any
	// QueryParams returns the ordered query pairs, possibly empty.
	QueryParams() QueryParams
	// Body declares the body encoding and carries the value to encode.
	Body() RequestBody
}

// Param is a single key/value pair of a query string or a form.
type Param struct {
	Key   string
	Value string
}

// QueryParams is an ordered list of query pairs. Duplicate keys are allowed
// and each produces its own key=value pair.
type QueryParams []Param

// Add returns q with the pair appended.
func (q QueryParams) Add(key, value string) QueryParams {
	return append(q, Param{Key: key, Value: value})
}

// Append returns q with v appended under key. A nil pointer or nil value adds
// nothing; slices and arrays add one pair per element.
func (q QueryParams) Append(key string, v any) QueryParams {
	for _, s := range formatValues(v) {
		q = append(q, Param{Key: key, Value: s})
	}
	return q
}

// Get returns the first value for key.
func (q QueryParams) Get(key string) (string, bool) {
	for _, p := range q {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Params is an ordered flat mapping used for form bodies.
type Params = QueryParams

// AssembledRequest is a request ready to hand to a transport.
type AssembledRequest struct {
	Method      string
	URL         *url.URL
	Header      http.Header
	Body        []byte
	ContentType string
}

// NewHTTPRequest converts the assembled request into an *http.Request.
// ContentType is applied unless the header record already set Content-Type.
func (a *AssembledRequest) NewHTTPRequest(ctx context.Context) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, a.Method, a.URL.String(), bodyReader(a.Body))
	if err != nil {
		return nil, wrapURLError(err)
	}
	for key, values := range a.Header {
		req.Header[key] = append([]string(nil), values...)
	}
	if a.ContentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", a.ContentType)
	}
	return req, nil
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// Transport sends assembled requests.
type Transport interface {
	Do(ctx context.Context, req *AssembledRequest) (*Response, error)
}
