// Package jwtx reads credentials that happen to be JWTs.
package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT is returned for opaque credentials.
var ErrNotJWT = errors.New("credential is not a JWT")

// CredentialClaims are the registered claims of a credential, read without
// verifying its signature.
type CredentialClaims struct {
	Subject   string
	Issuer    string
	ExpiresAt time.Time // zero when the credential carries no exp claim
}

// Inspect parses raw without verifying it. It must only be used to report on
// the gateway's own credentials, never to make an authorization decision.
func Inspect(raw string) (CredentialClaims, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return CredentialClaims{}, fmt.Errorf("%w: %w", ErrNotJWT, err)
	}

	out := CredentialClaims{
		Subject: claims.Subject,
		Issuer:  claims.Issuer,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// ExpiresWithin reports whether c has an expiry that falls before now+d.
// An already expired credential is reported as well.
func (c CredentialClaims) ExpiresWithin(now time.Time, d time.Duration) bool {
	return !c.ExpiresAt.IsZero() && c.ExpiresAt.Before(now.Add(d))
}
