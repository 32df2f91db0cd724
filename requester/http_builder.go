package requester

import (
	"context"
	"net/http"
)

// Assemble builds req against baseURL without reporting problems: invalid
// headers and query pairs are dropped and a body that cannot be encoded is
// sent empty. It only fails when baseURL cannot be parsed.
//
// Assemble keeps the permissive behavior older callers rely on; new code
// should prefer TryAssemble.
func Assemble(req Request, baseURL string) (*AssembledRequest, error) {
	return assemble(req, baseURL, lenient)
}

// TryAssemble builds req against baseURL and returns the first failure.
// Steps run in a fixed order: headers, query, body, then the URL join.
func TryAssemble(req Request, baseURL string) (*AssembledRequest, error) {
	return assemble(req, baseURL, strict)
}

func assemble(req Request, baseURL string, p policy) (*AssembledRequest, error) {
	if req == nil {
		return nil, NewInvalidRequestError("request is nil")
	}
	header, query, body, err := buildParts(req, p)
	if err != nil {
		return nil, err
	}
	base, err := ParseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	u, err := joinURL(base, req.Endpoint(), p)
	if err != nil {
		return nil, err
	}
	return &AssembledRequest{
		Method:      req.Method(),
		URL:         withQuery(u, query),
		Header:      header,
		Body:        body.Bytes,
		ContentType: body.ContentType,
	}, nil
}

// buildParts serializes headers, query and body in that order.
func buildParts(req Request, p policy) (http.Header, string, EncodedBody, error) {
	header, err := serializeHeaders(req.Headers(), p)
	if err != nil {
		return nil, "", EncodedBody{}, err
	}
	query, err := encodeQuery(req.QueryParams(), p)
	if err != nil {
		return nil, "", EncodedBody{}, err
	}
	body, err := encodeBody(req.Body(), p)
	if err != nil {
		return nil, "", EncodedBody{}, err
	}
	return header, query, body, nil
}

// IntoHTTP assembles req leniently and returns it as an *http.Request.
func IntoHTTP(ctx context.Context, req Request, baseURL string) (*http.Request, error) {
	assembled, err := Assemble(req, baseURL)
	if err != nil {
		return nil, err
	}
	return assembled.NewHTTPRequest(ctx)
}

// TryIntoHTTP assembles req strictly and returns it as an *http.Request.
func TryIntoHTTP(ctx context.Context, req Request, baseURL string) (*http.Request, error) {
	assembled, err := TryAssemble(req, baseURL)
	if err != nil {
		return nil, err
	}
	return assembled.NewHTTPRequest(ctx)
}
