package gatewaysdk

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// OrganizationHeader carries the organization a grant search is for.
const OrganizationHeader = "orgid"

// Client talks to a grantgate instance on behalf of one browser-like user.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client with its own cookie jar.
func NewClient(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
	}, nil
}

// Establish hands the tokens of a completed login to the gateway, which
// answers with the session view and a session cookie.
func (c *Client) Establish(ctx context.Context, req EstablishRequest) (*SessionView, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/auth/session", req, nil)
	if err != nil {
		return nil, err
	}

	var view SessionView
	if err := decodeJSON(resp, &view, http.StatusOK); err != nil {
		return nil, err
	}
	return &view, nil
}

// GetSession returns the current session. A token refresh may happen on the
// server as a side effect.
func (c *Client) GetSession(ctx context.Context) (*SessionView, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/auth/session", nil, nil)
	if err != nil {
		return nil, err
	}

	var view SessionView
	if err := decodeJSON(resp, &view, http.StatusOK); err != nil {
		return nil, err
	}
	return &view, nil
}

// Logout ends the current session.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, "/api/auth/session", nil, nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// GrantedProjects runs the project grant search for orgID. Any 2xx upstream
// response is returned as is.
func (c *Client) GrantedProjects(ctx context.Context, orgID string) (*GrantedProjectsResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/grantedprojects", nil, map[string]string{
		OrganizationHeader: orgID,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if err := parseErrorResponse(resp, body); err != nil {
		return nil, err
	}

	return &GrantedProjectsResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// GetLiveness checks the /livez endpoint.
func (c *Client) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/livez")
}

// GetReadiness checks the /readyz endpoint. A degraded service is reported
// through the response, not as an error.
func (c *Client) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/readyz")
}

func (c *Client) health(ctx context.Context, path string) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	expected := http.StatusOK
	if resp.StatusCode == http.StatusServiceUnavailable {
		expected = http.StatusServiceUnavailable
	}
	if err := decodeJSON(resp, &health, expected); err != nil {
		return nil, err
	}
	return &health, nil
}
