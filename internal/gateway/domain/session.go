package domain

import "time"

type Organization struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	PrimaryDomain string `json:"primaryDomain,omitempty"`
}

// User is the profile captured from the ID token at login.
type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email,omitempty"`
	Name         string       `json:"name,omitempty"`
	FirstName    string       `json:"firstName,omitempty"`
	LastName     string       `json:"lastName,omitempty"`
	LoginName    string       `json:"loginName,omitempty"`
	Image        string       `json:"image,omitempty"`
	Organization Organization `json:"organization"`
}

// Session is one immutable snapshot of a user's session. Writers produce a new
// snapshot with Version+1 and store it with a compare-and-swap on Version.
type Session struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"` // fingerprint of the cookie value
	User      User      `json:"user"`
	Token     Token     `json:"token"`
	ClientID  string    `json:"client_id"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// SessionView is what consumers of a session are allowed to see.
type SessionView struct {
	User        User   `json:"user"`
	AccessToken string `json:"accessToken,omitempty"`
	Error       string `json:"error,omitempty"`
	ClientID    string `json:"clientId"`
}

// View builds the consumer view. The access token is only included when
// withToken is set; the browser-facing endpoint never asks for it.
func (s Session) View(withToken bool) SessionView {
	v := SessionView{
		User:     s.User,
		Error:    s.Token.Error,
		ClientID: s.ClientID,
	}
	if withToken {
		v.AccessToken = s.Token.AccessToken
	}
	return v
}
