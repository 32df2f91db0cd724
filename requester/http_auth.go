package requester

import (
	"fmt"
	"net/http"

	"github.com/brizzai/reqbuilder/internal/config"
)

// AuthManager handles request authentication
type AuthManager interface {
	ApplyAuth(req *http.Request) error
}

// AuthType represents the type of authentication to use. It is the type the
// endpoint configuration decodes into.
type AuthType = config.AuthType

const (
	AuthTypeNone   = config.AuthTypeNone
	AuthTypeBasic  = config.AuthTypeBasic
	AuthTypeBearer = config.AuthTypeBearer
	AuthTypeAPIKey = config.AuthTypeAPIKey
)

// NoAuth leaves requests untouched.
type NoAuth struct{}

// ApplyAuth implements AuthManager.
func (NoAuth) ApplyAuth(*http.Request) error { return nil }

// HTTPAuthManager applies static credentials to outgoing requests.
type HTTPAuthManager struct {
	authType   AuthType
	authConfig map[string]string
}

// NewHTTPAuthManager creates a new HTTPAuthManager
func NewHTTPAuthManager(authType AuthType, authConfig map[string]string) *HTTPAuthManager {
	return &HTTPAuthManager{
		authType:   authType,
		authConfig: authConfig,
	}
}

// ApplyAuth adds authentication to the request. Credentials set by the
// request's own header record are left alone.
func (a *HTTPAuthManager) ApplyAuth(req *http.Request) error {
	switch a.authType {
	case AuthTypeNone, "":
		return nil
	case AuthTypeBasic:
		if req.Header.Get("Authorization") != "" {
			return nil
		}
		req.SetBasicAuth(a.authConfig["username"], a.authConfig["password"])
	case AuthTypeBearer:
		if req.Header.Get("Authorization") != "" {
			return nil
		}
		req.Header.Set("Authorization", "Bearer "+a.authConfig["token"])
	case AuthTypeAPIKey:
		header := a.authConfig["header"]
		if header == "" {
			header = "X-API-Key"
		}
		if req.Header.Get(header) != "" {
			return nil
		}
		req.Header.Set(header, a.authConfig["key"])
	default:
		return fmt.Errorf("unsupported auth type: %s", a.authType)
	}
	return nil
}
