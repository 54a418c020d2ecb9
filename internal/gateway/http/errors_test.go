package http

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/grantgate/internal/gateway/domain"
)

func TestAPIError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{domain.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
		{fmt.Errorf("userinfo: %w", domain.ErrUpstreamUnauthorized), http.StatusUnauthorized, "invalid_token"},
		{fmt.Errorf("%w: id token", domain.ErrInvalidCredential), http.StatusUnauthorized, "invalid_grant"},
		{domain.ErrInvalidRequest, http.StatusBadRequest, "invalid_request"},
		{fmt.Errorf("%w: role", domain.ErrForbidden), http.StatusForbidden, "access_denied"},
		{domain.ErrUpstreamUnavailable, http.StatusServiceUnavailable, "temporarily_unavailable"},
		{context.DeadlineExceeded, http.StatusServiceUnavailable, "temporarily_unavailable"},
		{&domain.UpstreamError{Status: http.StatusBadGateway}, http.StatusInternalServerError, "server_error"},
		{&domain.UpstreamError{Err: context.DeadlineExceeded}, http.StatusInternalServerError, "server_error"},
		{fmt.Errorf("search: %w", &domain.UpstreamError{Err: context.Canceled}), http.StatusInternalServerError, "server_error"},
		{fmt.Errorf("store session: disk full"), http.StatusInternalServerError, "server_error"},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			got := apiError(tt.err)
			require.Equal(t, tt.wantStatus, got.StatusCode)
			require.Equal(t, tt.wantCode, got.Code)
		})
	}
}
