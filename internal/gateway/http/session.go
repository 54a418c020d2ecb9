package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/grantgate/internal/gateway/domain"
	"github.com/aussiebroadwan/grantgate/internal/gateway/service"
	"github.com/aussiebroadwan/grantgate/pkg/gatewaysdk"
	"github.com/aussiebroadwan/grantgate/pkg/httpx"
	"github.com/aussiebroadwan/grantgate/pkg/slogx"
)

// maxEstablishBody bounds the login token payload.
const maxEstablishBody = 64 << 10

// SessionHandler serves /api/auth/session.
type SessionHandler struct {
	SessionService *service.SessionService
	Cookie         httpx.CookieConfig
}

// HandleEstablish godoc
//
//	@Summary		Establish a session
//	@Description	Hands the tokens of a completed login to the gateway. The ID token is verified
//	@Description	against the identity provider and the tokens are stored server-side. If the
//	@Description	request carries the cookie of a live session for the same user, that session is
//	@Description	populated instead; token fields it already holds are kept.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			request	body		gatewaysdk.EstablishRequest	true	"Login tokens"
//	@Success		200		{object}	gatewaysdk.SessionView
//	@Failure		400		{object}	gatewaysdk.ErrorResponse	"invalid_request"
//	@Failure		401		{object}	gatewaysdk.ErrorResponse	"invalid_grant"
//	@Failure		429		{object}	gatewaysdk.ErrorResponse	"rate_limit_exceeded"
//	@Failure		500		{object}	gatewaysdk.ErrorResponse	"server_error"
//	@Header			200		{string}	Set-Cookie					"session cookie"
//	@Router			/api/auth/session [post].
func (h *SessionHandler) HandleEstablish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req gatewaysdk.EstablishRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEstablishBody)).Decode(&req); err != nil {
		gatewaysdk.ErrInvalidJSONBody.WriteError(w)
		return
	}
	if req.ExpiresIn < 0 {
		gatewaysdk.ErrInvalidRequest.WriteError(w)
		return
	}

	cookie, sess, err := h.SessionService.Establish(ctx, service.EstablishParams{
		IDToken:        req.IDToken,
		AccessToken:    req.AccessToken,
		RefreshToken:   req.RefreshToken,
		ExpiresIn:      time.Duration(req.ExpiresIn) * time.Second,
		ExistingCookie: httpx.ReadCookie(r, h.Cookie.Name),
	})
	if err != nil {
		log.Warn("session establish failed", "error", err)
		writeError(w, err)
		return
	}

	httpx.SetSessionCookie(w, h.Cookie, cookie)
	httpx.WriteJSON(w, http.StatusOK, sessionView(sess))
}

// HandleGet godoc
//
//	@Summary		Get the current session
//	@Description	Returns the session's user and client. The access token is refreshed first if it
//	@Description	has expired; when that fails the session is returned with its error set and the
//	@Description	user has to sign in again.
//	@Tags			Session
//	@Produce		json
//	@Security		SessionCookie
//	@Success		200	{object}	gatewaysdk.SessionView
//	@Failure		401	{object}	gatewaysdk.ErrorResponse	"unauthenticated"
//	@Failure		503	{object}	gatewaysdk.ErrorResponse	"temporarily_unavailable"
//	@Router			/api/auth/session [get].
func (h *SessionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, err := h.SessionService.Resolve(ctx, httpx.ReadCookie(r, h.Cookie.Name))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		if errors.Is(err, domain.ErrUnauthenticated) {
			httpx.ClearSessionCookie(w, h.Cookie)
		} else {
			slogx.FromContext(ctx).Error("session resolve failed", "error", err)
		}
		writeError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, sessionView(sess))
}

// HandleDelete godoc
//
//	@Summary		End the current session
//	@Description	Deletes the session and clears the cookie. Succeeds when there is no session.
//	@Tags			Session
//	@Security		SessionCookie
//	@Success		204	"Session ended"
//	@Failure		500	{object}	gatewaysdk.ErrorResponse	"server_error"
//	@Router			/api/auth/session [delete].
func (h *SessionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.SessionService.Destroy(ctx, httpx.ReadCookie(r, h.Cookie.Name)); err != nil {
		slogx.FromContext(ctx).Error("session destroy failed", "error", err)
		writeError(w, err)
		return
	}

	httpx.ClearSessionCookie(w, h.Cookie)
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

func sessionView(sess domain.Session) gatewaysdk.SessionView {
	v := sess.View(false)
	return gatewaysdk.SessionView{
		User: gatewaysdk.User{
			ID:        v.User.ID,
			Email:     v.User.Email,
			Name:      v.User.Name,
			FirstName: v.User.FirstName,
			LastName:  v.User.LastName,
			LoginName: v.User.LoginName,
			Image:     v.User.Image,
			Organization: gatewaysdk.Organization{
				ID:            v.User.Organization.ID,
				Name:          v.User.Organization.Name,
				PrimaryDomain: v.User.Organization.PrimaryDomain,
			},
		},
		Error:    v.Error,
		ClientID: v.ClientID,
	}
}
