package idp

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/aussiebroadwan/grantgate/internal/gateway/domain"
	"github.com/aussiebroadwan/grantgate/pkg/slogx"
)

// Refresh exchanges tok's refresh token for a new access token.
//
// It never mutates shared state. On success the returned token replaces tok
// entirely. On failure the returned token is tok with only the error tag set,
// and the error wraps domain.ErrRefreshFailed.
func (p *Provider) Refresh(ctx context.Context, tok domain.Token) (domain.Token, error) {
	if tok.RefreshToken == "" {
		return tok, domain.ErrInvalidCredential
	}

	log := slogx.FromContext(ctx)

	src := p.oauth2Config.TokenSource(p.clientContext(ctx), &oauth2.Token{RefreshToken: tok.RefreshToken})
	fresh, err := src.Token()
	if err != nil {
		attrs := []any{"error", err}
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			attrs = append(attrs, "error_code", re.ErrorCode)
			if re.Response != nil {
				attrs = append(attrs, "status", re.Response.StatusCode)
			}
		}
		log.Warn("access token refresh failed", attrs...)

		failed := tok
		failed.Error = domain.TokenErrorRefreshFailed
		return failed, fmt.Errorf("%w: %w", domain.ErrRefreshFailed, err)
	}

	expiresAt := p.now().UnixMilli()
	if !fresh.Expiry.IsZero() {
		expiresAt = fresh.Expiry.UnixMilli()
	}

	// x/oauth2 carries the old refresh token over when the provider does not rotate it.
	next := domain.Token{
		AccessToken:  fresh.AccessToken,
		RefreshToken: fresh.RefreshToken,
		ExpiresAt:    expiresAt,
	}

	log.Debug("access token refreshed",
		"rotated", fresh.RefreshToken != tok.RefreshToken,
		"expires_at", fresh.Expiry,
	)
	return next, nil
}
