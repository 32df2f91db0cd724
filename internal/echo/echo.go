// Package echo serves a handler that reflects each received request back as
// JSON. Transport and CLI tests send assembled requests to it.
package echo

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/brizzai/reqbuilder/internal/logger"
	"go.uber.org/zap"
)

// Reply is the JSON document the handler answers with.
type Reply struct {
	Method      string      `json:"method"`
	Path        string      `json:"path"`
	RawPath     string      `json:"raw_path,omitempty"`
	RawQuery    string      `json:"raw_query,omitempty"`
	Header      http.Header `json:"header"`
	ContentType string      `json:"content_type,omitempty"`
	Body        string      `json:"body,omitempty"`
}

// Handler answers every request with its Reply. A request carrying an
// "X-Echo-Status" header of "teapot" is answered with an error document and
// status 418.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Echo-Status") == "teapot" {
			WriteError(w, "teapot", "refusing to brew", http.StatusTeapot)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			WriteError(w, "read_failed", err.Error(), http.StatusBadRequest)
			return
		}
		WriteJSON(w, Reply{
			Method:      r.Method,
			Path:        r.URL.Path,
			RawPath:     r.URL.RawPath,
			RawQuery:    r.URL.RawQuery,
			Header:      r.Header,
			ContentType: r.Header.Get("Content-Type"),
			Body:        string(body),
		})
	})
}

// NewServer starts an httptest server running Handler.
func NewServer() *httptest.Server {
	return httptest.NewServer(Handler())
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"error":             code,
		"error_description": message,
	}); err != nil {
		logger.Error("Failed to encode error response", zap.Error(err))
	}
}
