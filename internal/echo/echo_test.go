package echo

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_Reflects(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/files/a%2Fb?tag=x&tag=y", strings.NewReader(`{"a":1}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Token", "abc")
	rec := httptest.NewRecorder()

	Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var reply Reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Equal(t, http.MethodPost, reply.Method)
	assert.Equal(t, "/files/a/b", reply.Path)
	assert.Equal(t, "/files/a%2Fb", reply.RawPath)
	assert.Equal(t, "tag=x&tag=y", reply.RawQuery)
	assert.Equal(t, "application/json", reply.ContentType)
	assert.Equal(t, "abc", reply.Header.Get("X-Token"))
	assert.Equal(t, `{"a":1}`, reply.Body)
}

func TestHandler_Teapot(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/brew", nil)
	req.Header.Set("X-Echo-Status", "teapot")
	rec := httptest.NewRecorder()

	Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.JSONEq(t, `{"error":"teapot","error_description":"refusing to brew"}`, rec.Body.String())
}
