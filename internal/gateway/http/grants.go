package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/grantgate/internal/gateway/domain"
	"github.com/aussiebroadwan/grantgate/internal/gateway/service"
	"github.com/aussiebroadwan/grantgate/pkg/gatewaysdk"
	"github.com/aussiebroadwan/grantgate/pkg/httpx"
	"github.com/aussiebroadwan/grantgate/pkg/slogx"
)

// GrantsHandler serves GET /api/grantedprojects: the projects granted to the
// organization named in the orgid header, searched with the gateway's
// service credential on behalf of the signed-in user.
type GrantsHandler struct {
	SessionService *service.SessionService
	GrantsService  *service.GrantsService
	CookieName     string
}

// ServeHTTP godoc
//
//	@Summary		Search project grants for an organization
//	@Description	Checks that the signed-in user holds the required role for the organization in
//	@Description	the orgid header, then runs the project grant search with the gateway's service
//	@Description	credential. The upstream response is relayed unchanged.
//	@Tags			Grants
//	@Produce		json
//	@Security		SessionCookie
//	@Param			orgid	header		string	true	"Organization the grants were made to"
//	@Success		200		{object}	object	"Upstream search result"
//	@Failure		400		{object}	gatewaysdk.ErrorResponse	"invalid_request"
//	@Failure		401		{object}	gatewaysdk.ErrorResponse	"unauthenticated or invalid_token"
//	@Failure		403		{object}	gatewaysdk.ErrorResponse	"access_denied"
//	@Failure		429		{object}	gatewaysdk.ErrorResponse	"rate_limit_exceeded"
//	@Failure		500		{object}	gatewaysdk.ErrorResponse	"server_error"
//	@Failure		503		{object}	gatewaysdk.ErrorResponse	"temporarily_unavailable"
//	@Router			/api/grantedprojects [get].
func (h *GrantsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	// 1. A session cookie is required
	cookie := httpx.ReadCookie(r, h.CookieName)
	if cookie == "" {
		gatewaysdk.ErrUnauthenticated.WriteError(w)
		return
	}

	// 2. The organization is validated before any call to the identity provider
	orgID := strings.TrimSpace(r.Header.Get(gatewaysdk.OrganizationHeader))
	if orgID == "" {
		gatewaysdk.ErrMissingOrganization.WriteError(w)
		return
	}

	// 3. Resolve the session, refreshing its token if needed
	sess, err := h.SessionService.Resolve(ctx, cookie)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		if !errors.Is(err, domain.ErrUnauthenticated) {
			log.Error("session resolve failed", "error", err)
		}
		writeError(w, err)
		return
	}

	// 4. Authorize and search
	res, err := h.GrantsService.GrantedProjects(ctx, sess, orgID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		writeError(w, err)
		return
	}

	httpx.WriteRaw(w, res.Status, res.ContentType, res.Body)
}
