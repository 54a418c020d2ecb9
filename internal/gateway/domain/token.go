package domain

import "time"

// Error tags carried on a Token after a failed lifecycle step.
const (
	TokenErrorRefreshFailed     = "RefreshAccessTokenError"
	TokenErrorInvalidCredential = "InvalidCredential"
)

// Token is the user's delegated credential bundle as held in a session.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    int64  `json:"expires_at"` // unix milliseconds
	Error        string `json:"error,omitempty"`
}

// Valid reports whether the access token may be served without refreshing.
func (t Token) Valid(now time.Time) bool {
	return t.Error == "" && now.UnixMilli() < t.ExpiresAt
}

// Usable reports whether the token can back a privileged call at all.
// An errored token is never usable, even when it is not yet expired.
func (t Token) Usable() bool {
	return t.AccessToken != "" && t.Error == ""
}

// Expiry returns ExpiresAt as a time.Time.
func (t Token) Expiry() time.Time {
	return time.UnixMilli(t.ExpiresAt)
}

// MergeToken populates existing from incoming with "set if absent" precedence:
// a field already present on existing is kept, an empty one is filled in.
// The error tag is lifecycle state and is always taken from existing.
func MergeToken(existing, incoming Token) Token {
	out := existing
	if out.AccessToken == "" {
		out.AccessToken = incoming.AccessToken
	}
	if out.RefreshToken == "" {
		out.RefreshToken = incoming.RefreshToken
	}
	if out.ExpiresAt == 0 {
		out.ExpiresAt = incoming.ExpiresAt
	}
	return out
}
