package idp

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/grantgate/internal/gateway/domain"
)

type idTokenClaims struct {
	Subject           string `json:"sub"`
	Name              string `json:"name"`
	GivenName         string `json:"given_name"`
	FamilyName        string `json:"family_name"`
	Email             string `json:"email"`
	PreferredUsername string `json:"preferred_username"`
	Picture           string `json:"picture"`
	OrgID             string `json:"urn:zitadel:iam:user:resourceowner:id"`
	OrgName           string `json:"urn:zitadel:iam:user:resourceowner:name"`
	OrgDomain         string `json:"urn:zitadel:iam:user:resourceowner:primary_domain"`
}

// VerifyIdentity checks rawIDToken's signature, issuer, audience and expiry
// and maps its claims to a user profile.
func (p *Provider) VerifyIdentity(ctx context.Context, rawIDToken string) (domain.User, error) {
	tok, err := p.verifier.Verify(p.clientContext(ctx), rawIDToken)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: id token: %w", domain.ErrInvalidCredential, err)
	}

	var c idTokenClaims
	if err := tok.Claims(&c); err != nil {
		return domain.User{}, fmt.Errorf("%w: id token claims: %w", domain.ErrInvalidCredential, err)
	}

	return domain.User{
		ID:        c.Subject,
		Email:     c.Email,
		Name:      c.Name,
		FirstName: c.GivenName,
		LastName:  c.FamilyName,
		LoginName: c.PreferredUsername,
		Image:     c.Picture,
		Organization: domain.Organization{
			ID:            c.OrgID,
			Name:          c.OrgName,
			PrimaryDomain: c.OrgDomain,
		},
	}, nil
}
