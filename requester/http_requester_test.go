package requester_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brizzai/reqbuilder/internal/config"
	"github.com/brizzai/reqbuilder/internal/echo"
	"github.com/brizzai/reqbuilder/requester"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func decodeReply(t *testing.T, body []byte) echo.Reply {
	t.Helper()
	var reply echo.Reply
	require.NoError(t, json.Unmarshal(body, &reply))
	return reply
}

func TestHTTPRequester_Send(t *testing.T) {
	srv := echo.NewServer()
	defer srv.Close()

	auth := requester.NewHTTPAuthManager(requester.AuthTypeBearer, map[string]string{"token": "secret"})
	r := requester.NewHTTPRequester(auth, map[string]string{"User-Agent": "reqbuilder-test", "X-Token": "default"})

	req := stubRequest{
		method:   http.MethodPost,
		endpoint: "/users/42/notes",
		headers:  accountHeaders{Token: "from-record"},
		query:    requester.QueryParams{{"draft", "true"}},
		body:     requester.JSONBody{Value: map[string]string{"text": "hello"}},
	}

	resp, err := requester.Send(context.Background(), r, req, srv.URL, true)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	reply := decodeReply(t, resp.Body)
	assert.Equal(t, http.MethodPost, reply.Method)
	assert.Equal(t, "/users/42/notes", reply.Path)
	assert.Equal(t, "draft=true", reply.RawQuery)
	assert.Equal(t, "application/json", reply.ContentType)
	assert.JSONEq(t, `{"text":"hello"}`, reply.Body)
	assert.Equal(t, "Bearer secret", reply.Header.Get("Authorization"))
	assert.Equal(t, "reqbuilder-test", reply.Header.Get("User-Agent"))
	assert.Equal(t, "from-record", reply.Header.Get("X-Token"))
}

func TestHTTPRequester_ErrorStatusIsAResponse(t *testing.T) {
	srv := echo.NewServer()
	defer srv.Close()

	req := stubRequest{
		method:   http.MethodGet,
		endpoint: "/brew",
		headers:  map[string]string{"X-Echo-Status": "teapot"},
	}
	resp, err := requester.Send(context.Background(), requester.NewHTTPRequester(nil, nil), req, srv.URL, false)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Contains(t, string(resp.Body), "refusing to brew")
}

func TestSend_StrictFailureSendsNothing(t *testing.T) {
	var called bool
	transport := transportFunc(func(context.Context, *requester.AssembledRequest) (*requester.Response, error) {
		called = true
		return &requester.Response{StatusCode: http.StatusOK}, nil
	})

	req := stubRequest{method: http.MethodGet, endpoint: "/users/{id}"}
	_, err := requester.Send(context.Background(), transport, req, baseURL, true)
	assert.ErrorIs(t, err, requester.ErrInvalidRequest)
	assert.False(t, called)
}

func TestHTTPRequester_Timeout(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-blocked:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(blocked)

	r := requester.NewHTTPRequester(nil, nil)
	r.SetTimeout(50 * time.Millisecond)

	_, err := requester.Send(context.Background(), r, stubRequest{method: http.MethodGet, endpoint: "/slow"}, srv.URL, true)
	assert.Error(t, err)
}

func TestModule_ProvidesTransport(t *testing.T) {
	srv := echo.NewServer()
	defer srv.Close()

	var transport requester.Transport
	app := fxtest.New(t,
		fx.Supply(&config.EndpointConfig{
			BaseURL:    srv.URL,
			AuthType:   config.AuthTypeAPIKey,
			AuthConfig: map[string]string{"key": "k-1"},
			Timeout:    5 * time.Second,
		}),
		requester.Module,
		fx.Populate(&transport),
	)
	defer app.RequireStart().RequireStop()

	resp, err := requester.Send(context.Background(), transport, stubRequest{method: http.MethodGet, endpoint: "/ping"}, srv.URL, true)
	require.NoError(t, err)
	assert.Equal(t, "k-1", decodeReply(t, resp.Body).Header.Get("X-API-Key"))
}

type transportFunc func(context.Context, *requester.AssembledRequest) (*requester.Response, error)

func (f transportFunc) Do(ctx context.Context, req *requester.AssembledRequest) (*requester.Response, error) {
	return f(ctx, req)
}
