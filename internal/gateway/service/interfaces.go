package service

//go:generate mockgen -destination=mocks/mock_interfaces.go -package=mocks -source=interfaces.go

import (
	"context"

	"github.com/aussiebroadwan/grantgate/internal/gateway/domain"
	"github.com/aussiebroadwan/grantgate/internal/gateway/upstream"
)

// Refresher exchanges a token's refresh credential for a new access token.
type Refresher interface {
	Refresh(ctx context.Context, tok domain.Token) (domain.Token, error)
}

// IdentityVerifier turns a login's ID token into a user profile.
type IdentityVerifier interface {
	VerifyIdentity(ctx context.Context, rawIDToken string) (domain.User, error)
}

// ClaimsFetcher resolves the role claims carried by an access token.
type ClaimsFetcher interface {
	FetchRoleClaims(ctx context.Context, accessToken string) (domain.RoleClaimMap, error)
}

// GrantSearcher performs the privileged project grant search.
type GrantSearcher interface {
	SearchProjectGrants(ctx context.Context, grantedOrgID string, q upstream.SearchQuery) (upstream.Result, error)
}
