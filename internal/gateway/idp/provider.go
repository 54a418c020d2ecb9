// Package idp talks to the OpenID Connect identity provider on behalf of a
// user session: refreshing access tokens, resolving role claims and verifying
// the ID token presented at login.
package idp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// DefaultRoleClaim is where the provider publishes project roles in userinfo.
const DefaultRoleClaim = "urn:zitadel:iam:org:project:roles"

// maxResponseSize bounds how much of a provider response is read.
const maxResponseSize = 1 << 20

type Config struct {
	Issuer       string
	ClientID     string
	ClientSecret string // optional, public clients leave it empty
	RoleClaim    string

	// HTTPClient is used for discovery, token, userinfo and JWKS requests.
	HTTPClient *http.Client
}

func (c *Config) Validate() error {
	if c.Issuer == "" {
		return errors.New("issuer is required")
	}
	if _, err := url.ParseRequestURI(c.Issuer); err != nil {
		return fmt.Errorf("invalid issuer: %w", err)
	}
	if c.ClientID == "" {
		return errors.New("client id is required")
	}
	return nil
}

// discoveryClaims are the discovery fields go-oidc does not expose directly.
type discoveryClaims struct {
	UserInfoEndpoint string `json:"userinfo_endpoint"`
	JWKSURI          string `json:"jwks_uri"`
}

type Provider struct {
	httpClient   *http.Client
	oauth2Config *oauth2.Config
	verifier     *oidc.IDTokenVerifier
	userInfoURL  string
	jwksURL      string
	roleClaim    string
	clientID     string
	now          func() time.Time
}

// New discovers the provider's endpoints from cfg.Issuer.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid idp config: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	roleClaim := cfg.RoleClaim
	if roleClaim == "" {
		roleClaim = DefaultRoleClaim
	}

	op, err := oidc.NewProvider(oidc.ClientContext(ctx, httpClient), cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC endpoints: %w", err)
	}

	var doc discoveryClaims
	if err := op.Claims(&doc); err != nil {
		return nil, fmt.Errorf("failed to extract provider claims: %w", err)
	}
	if doc.UserInfoEndpoint == "" {
		return nil, errors.New("provider does not publish a userinfo endpoint")
	}

	endpoint := op.Endpoint()
	p := &Provider{
		httpClient: httpClient,
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   endpoint.AuthURL,
				TokenURL:  endpoint.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		verifier:    op.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		userInfoURL: doc.UserInfoEndpoint,
		jwksURL:     doc.JWKSURI,
		roleClaim:   roleClaim,
		clientID:    cfg.ClientID,
		now:         time.Now,
	}

	slog.Debug("oidc provider discovered",
		"issuer", cfg.Issuer,
		"token_endpoint", endpoint.TokenURL,
		"userinfo_endpoint", doc.UserInfoEndpoint,
	)

	return p, nil
}

// ClientID is the OAuth client the gateway acts as.
func (p *Provider) ClientID() string { return p.clientID }

// Ping checks the provider is still serving its signing keys, which every
// login verification depends on.
func (p *Provider) Ping(ctx context.Context) error {
	if p.jwksURL == "" {
		return errors.New("provider does not publish a jwks_uri")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.jwksURL, nil)
	if err != nil {
		return fmt.Errorf("build jwks request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch jwks: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// clientContext carries the provider's HTTP client to go-oidc and x/oauth2.
func (p *Provider) clientContext(ctx context.Context) context.Context {
	return context.WithValue(oidc.ClientContext(ctx, p.httpClient), oauth2.HTTPClient, p.httpClient)
}
