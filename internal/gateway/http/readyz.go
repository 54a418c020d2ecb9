package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/grantgate/internal/gateway/store"
	"github.com/aussiebroadwan/grantgate/pkg/gatewaysdk"
	"github.com/aussiebroadwan/grantgate/pkg/httpx"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe reporting the session store and identity provider status.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	gatewaysdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	gatewaysdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	providerPing func(ctx context.Context) error,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &gatewaysdk.HealthChecks{
			Store:    "ok",
			Provider: "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Store = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if providerPing == nil {
			checks.Provider = "error: not configured"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		} else if err := providerPing(r.Context()); err != nil {
			checks.Provider = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		response := gatewaysdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		}
		httpx.WriteJSON(w, statusCode, response)
	}
}
