package requester

import (
	"github.com/brizzai/reqbuilder/internal/config"

	"go.uber.org/fx"
)

// HTTPRequesterParams holds the parameters for creating an HTTPRequester
type HTTPRequesterParams struct {
	fx.In

	EndpointConfig *config.EndpointConfig
	AuthManager    AuthManager
}

// NewHTTPRequesterFromConfig creates an HTTPRequester from the endpoint configuration.
func NewHTTPRequesterFromConfig(params HTTPRequesterParams) *HTTPRequester {
	r := NewHTTPRequester(params.AuthManager, params.EndpointConfig.Headers)
	if params.EndpointConfig.Timeout > 0 {
		r.SetTimeout(params.EndpointConfig.Timeout)
	}
	return r
}

// NewAuthManagerFromConfig creates the AuthManager described by the endpoint configuration.
func NewAuthManagerFromConfig(cfg *config.EndpointConfig) *HTTPAuthManager {
	return NewHTTPAuthManager(cfg.AuthType, cfg.AuthConfig)
}

// Module provides the requester module dependencies
var Module = fx.Module("requester",
	fx.Provide(
		fx.Annotate(
			NewAuthManagerFromConfig,
			fx.As(new(AuthManager)),
		),
		NewHTTPRequesterFromConfig,
		func(r *HTTPRequester) Transport { return r },
	),
)
