package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/grantgate/internal/gateway/domain"
	"github.com/aussiebroadwan/grantgate/pkg/gatewaysdk"
)

// apiError maps a service error onto the response the client sees. Upstream
// failures are reported generically; their detail is only logged.
func apiError(err error) *gatewaysdk.APIError {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return gatewaysdk.ErrUnauthenticated
	case errors.Is(err, domain.ErrUpstreamUnauthorized):
		return gatewaysdk.ErrInvalidToken
	case errors.Is(err, domain.ErrInvalidCredential):
		return gatewaysdk.ErrInvalidGrant
	case errors.Is(err, domain.ErrInvalidRequest):
		return gatewaysdk.ErrInvalidRequest
	case errors.Is(err, domain.ErrForbidden):
		return gatewaysdk.ErrAccessDenied
	case errors.Is(err, domain.ErrUpstream):
		return gatewaysdk.ErrServerError
	case errors.Is(err, domain.ErrUpstreamUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return gatewaysdk.ErrTemporarilyUnavailable
	default:
		return gatewaysdk.ErrServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	apiError(err).WriteError(w)
}
