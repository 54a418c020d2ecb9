package gatewaysdk

import "encoding/json"

// ErrorResponse is the wire form of an APIError.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ============================================================================
// Session Types
// ============================================================================

// EstablishRequest carries the tokens of a completed login.
type EstablishRequest struct {
	IDToken      string `json:"id_token"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64 `json:"expires_in"`
}

type Organization struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	PrimaryDomain string `json:"primaryDomain,omitempty"`
}

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

// SessionView is the session as exposed to the browser. Error is set when the
// session's token could not be refreshed; the user has to sign in again.
type SessionView struct {
	User     User   `json:"user"`
	Error    string `json:"error,omitempty"`
	ClientID string `json:"clientId"`
}

// ============================================================================
// Grant Types
// ============================================================================

// GrantedProjectsResponse is the upstream search result, relayed unchanged.
type GrantedProjectsResponse struct {
	StatusCode  int
	ContentType string
	Body        json.RawMessage
}

// ============================================================================
// Health Types
// ============================================================================

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Store    string `json:"store"`
	Provider string `json:"provider"`
}
