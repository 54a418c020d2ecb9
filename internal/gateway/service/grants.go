package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/aussiebroadwan/grantgate/internal/gateway/domain"
	"github.com/aussiebroadwan/grantgate/internal/gateway/metrics"
	"github.com/aussiebroadwan/grantgate/internal/gateway/upstream"
	"github.com/aussiebroadwan/grantgate/pkg/slogx"
)

const DefaultRequiredRole = "reader"

// GrantsService answers "which projects are granted to this organization"
// for a signed-in user. The search itself runs with the gateway's service
// credential, so the user's role claims are checked first and a denial
// never reaches the upstream API.
type GrantsService struct {
	Claims   ClaimsFetcher
	Upstream GrantSearcher
	Metrics  *metrics.Metrics

	// RequiredRole must be granted to the user for the requested organization.
	RequiredRole string
	Query        upstream.SearchQuery

	// ClaimRetries is how many extra attempts a claim fetch gets when the
	// identity provider is unavailable. Rejections are never retried.
	ClaimRetries int
	// RetryInterval is the first backoff delay between claim fetch attempts.
	RetryInterval time.Duration
}

// GrantedProjects runs the privileged search for orgID on behalf of sess.
//
// Errors: domain.ErrUnauthenticated when the session has no usable token,
// domain.ErrInvalidRequest for an empty orgID, the claim fetch errors
// (domain.ErrUpstreamUnauthorized, domain.ErrUpstreamUnavailable),
// domain.ErrForbidden when the claims do not grant the role, and
// domain.ErrUpstream when the search fails.
func (s *GrantsService) GrantedProjects(ctx context.Context, sess domain.Session, orgID string) (upstream.Result, error) {
	if !sess.Token.Usable() {
		return upstream.Result{}, domain.ErrUnauthenticated
	}
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return upstream.Result{}, fmt.Errorf("%w: organization id is required", domain.ErrInvalidRequest)
	}

	log := slogx.FromContext(ctx)

	claims, err := s.fetchClaims(ctx, sess.Token.AccessToken)
	if err != nil {
		log.Warn("role claim fetch failed", "session_id", sess.ID, "error", err)
		return upstream.Result{}, err
	}

	req := domain.Requirement{Role: s.role(), OrganizationID: orgID}
	allowed := domain.Authorize(claims, req)
	s.Metrics.ObserveDecision(allowed)
	if !allowed {
		log.Info("authorization denied",
			"user_id", sess.User.ID,
			"role", req.Role,
			"organization_id", req.OrganizationID,
		)
		return upstream.Result{}, fmt.Errorf("%w: role %q not granted for organization %q", domain.ErrForbidden, req.Role, orgID)
	}

	start := time.Now()
	res, err := s.Upstream.SearchProjectGrants(ctx, orgID, s.Query)
	status := res.Status
	var ue *domain.UpstreamError
	if errors.As(err, &ue) {
		status = ue.Status
	}
	s.Metrics.ObserveUpstream(status, time.Since(start))

	if err != nil {
		attrs := []any{"organization_id", orgID, "error", err}
		if ue != nil && len(ue.Body) > 0 {
			attrs = append(attrs, "upstream_body", string(ue.Body))
		}
		log.Error("project grant search failed", attrs...)
		return upstream.Result{}, err
	}
	return res, nil
}

func (s *GrantsService) role() string {
	if s.RequiredRole == "" {
		return DefaultRequiredRole
	}
	return s.RequiredRole
}

func (s *GrantsService) fetchClaims(ctx context.Context, accessToken string) (domain.RoleClaimMap, error) {
	op := func() (domain.RoleClaimMap, error) {
		claims, err := s.Claims.FetchRoleClaims(ctx, accessToken)
		switch {
		case err == nil:
			s.Metrics.ObserveClaimFetch("success")
			return claims, nil
		case errors.Is(err, domain.ErrUpstreamUnavailable):
			s.Metrics.ObserveClaimFetch("unavailable")
			return nil, err
		default:
			s.Metrics.ObserveClaimFetch("rejected")
			return nil, backoff.Permanent(err)
		}
	}

	eb := backoff.NewExponentialBackOff()
	if s.RetryInterval > 0 {
		eb.InitialInterval = s.RetryInterval
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(uint(max(s.ClaimRetries, 0)+1)),
	)
}
