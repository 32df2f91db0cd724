package requester

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brizzai/reqbuilder/internal/logger"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single round trip of HTTPRequester.
const DefaultTimeout = 30 * time.Second

// HTTPRequester sends assembled requests with net/http.
type HTTPRequester struct {
	client         *http.Client
	authMgr        AuthManager
	defaultHeaders map[string]string
}

// NewHTTPRequester creates a new HTTPRequester. A nil authMgr sends requests
// unauthenticated.
func NewHTTPRequester(authMgr AuthManager, defaultHeaders map[string]string) *HTTPRequester {
	if authMgr == nil {
		authMgr = NoAuth{}
	}
	return &HTTPRequester{
		client: &http.Client{
			Timeout: DefaultTimeout,
		},
		authMgr:        authMgr,
		defaultHeaders: defaultHeaders,
	}
}

// SetTimeout sets the timeout for the HTTP client
func (r *HTTPRequester) SetTimeout(timeout time.Duration) {
	r.client.Timeout = timeout
}

// Do implements Transport. Default headers are only applied when the request
// does not carry them already.
func (r *HTTPRequester) Do(ctx context.Context, req *AssembledRequest) (*Response, error) {
	httpReq, err := req.NewHTTPRequest(ctx)
	if err != nil {
		return nil, err
	}
	for key, value := range r.defaultHeaders {
		if httpReq.Header.Get(key) == "" {
			httpReq.Header.Set(key, value)
		}
	}
	if err := r.authMgr.ApplyAuth(httpReq); err != nil {
		return nil, fmt.Errorf("failed to apply authentication: %w", err)
	}

	logger.Info("sending request",
		zap.String("method", httpReq.Method),
		zap.String("url", httpReq.URL.Redacted()))

	resp, err := r.client.Do(httpReq)
	if err != nil {
		logger.Error("failed to execute request", zap.Error(err))
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Warn("failed to close response body", zap.Error(closeErr))
		}
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	logger.Debug("received response",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(bodyBytes)))

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       bodyBytes,
		Headers:    resp.Header,
	}, nil
}

// Send assembles req against baseURL and sends it through t. With strict set
// the first assembly failure is returned instead of being skipped.
func Send(ctx context.Context, t Transport, req Request, baseURL string, strict bool) (*Response, error) {
	build := Assemble
	if strict {
		build = TryAssemble
	}
	assembled, err := build(req, baseURL)
	if err != nil {
		return nil, err
	}
	return t.Do(ctx, assembled)
}
