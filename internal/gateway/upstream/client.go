// Package upstream performs the privileged, service-credential backed calls
// against the protected management API.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/grantgate/internal/gateway/domain"
	"github.com/aussiebroadwan/grantgate/pkg/slogx"
)

const (
	DefaultScopeHeader = "x-zitadel-org"
	DefaultSearchLimit = 100

	projectGrantSearchPath = "/management/v1/projectgrants/_search"

	// maxBodySize bounds relayed and diagnostic bodies.
	maxBodySize = 4 << 20
)

type Config struct {
	BaseURL string

	// Credential is the service account's bearer token. It is never logged.
	Credential string

	// ScopeHeader names the header carrying ScopeOrgID, the tenant context
	// the service account operates in.
	ScopeHeader string
	ScopeOrgID  string

	HTTPClient *http.Client
}

func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return errors.New("upstream base url is required")
	case c.Credential == "":
		return errors.New("service credential is required")
	case c.ScopeOrgID == "":
		return errors.New("scope organization id is required")
	}
	return nil
}

// SearchQuery controls paging of a project grant search.
type SearchQuery struct {
	Limit int
	Asc   bool
}

// Result is an upstream response relayed verbatim.
type Result struct {
	Status      int
	ContentType string
	Body        []byte
}

type Client struct {
	baseURL     string
	credential  string
	scopeHeader string
	scopeOrgID  string
	httpClient  *http.Client
	now         func() time.Time
}

func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid upstream config: %w", err)
	}

	scopeHeader := cfg.ScopeHeader
	if scopeHeader == "" {
		scopeHeader = DefaultScopeHeader
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		credential:  cfg.Credential,
		scopeHeader: scopeHeader,
		scopeOrgID:  cfg.ScopeOrgID,
		httpClient:  httpClient,
		now:         time.Now,
	}, nil
}

type searchRequest struct {
	Query   searchPaging  `json:"query"`
	Queries []searchQuery `json:"queries"`
}

type searchPaging struct {
	Limit int  `json:"limit"`
	Asc   bool `json:"asc"`
}

type searchQuery struct {
	GrantedOrgIDQuery grantedOrgIDQuery `json:"grantedOrgIdQuery"`
}

type grantedOrgIDQuery struct {
	GrantedOrgID string `json:"grantedOrgId"`
}

// SearchProjectGrants lists the project grants given to grantedOrgID.
//
// The call is authorized with the service credential, not the user's token,
// so callers must have authorized the user first. Every call is written to
// the audit log before it is sent.
func (c *Client) SearchProjectGrants(ctx context.Context, grantedOrgID string, q SearchQuery) (Result, error) {
	if strings.TrimSpace(grantedOrgID) == "" {
		return Result{}, fmt.Errorf("%w: organization id is required", domain.ErrInvalidRequest)
	}
	if q.Limit <= 0 {
		q.Limit = DefaultSearchLimit
	}

	body, err := json.Marshal(searchRequest{
		Query:   searchPaging{Limit: q.Limit, Asc: q.Asc},
		Queries: []searchQuery{{GrantedOrgIDQuery: grantedOrgIDQuery{GrantedOrgID: grantedOrgID}}},
	})
	if err != nil {
		return Result{}, fmt.Errorf("encode search: %w", err)
	}

	endpoint := c.baseURL + projectGrantSearchPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, &domain.UpstreamError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.credential)
	req.Header.Set(c.scopeHeader, c.scopeOrgID)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	log := slogx.FromContext(ctx)
	log.Info("privileged upstream call",
		"timestamp", c.now().UTC().Format(time.RFC3339Nano),
		"endpoint", endpoint,
		"scope_header", c.scopeHeader,
		"scope_org_id", c.scopeOrgID,
		"query", json.RawMessage(body),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, &domain.UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return Result{}, &domain.UpstreamError{Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, &domain.UpstreamError{Status: resp.StatusCode, Body: respBody}
	}

	return Result{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        respBody,
	}, nil
}
