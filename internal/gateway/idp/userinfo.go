package idp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/aussiebroadwan/grantgate/internal/gateway/domain"
)

// FetchRoleClaims asks the userinfo endpoint for the caller's project roles.
//
// A 401 or 403 means the access token itself was refused and maps to
// domain.ErrUpstreamUnauthorized. Every other failure, including malformed
// bodies, is domain.ErrUpstreamUnavailable. A response without the role claim
// yields an empty map.
func (p *Provider) FetchRoleClaims(ctx context.Context, accessToken string) (domain.RoleClaimMap, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: userinfo returned %d", domain.ErrUpstreamUnauthorized, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: userinfo returned %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var claims map[string]json.RawMessage
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&claims); err != nil {
		return nil, fmt.Errorf("%w: decode userinfo: %w", domain.ErrUpstreamUnavailable, err)
	}

	return domain.ParseRoleClaims(claims[p.roleClaim]), nil
}
