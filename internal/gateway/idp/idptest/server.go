// Package idptest runs an in-process OpenID Connect provider for tests: it
// serves discovery, JWKS, a refresh-token endpoint and userinfo, and can sign
// ID tokens.
package idptest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	ClientID = "test-client"
	keyID    = "test-key"
)

// Server is a fake identity provider. Responses can be changed at any time.
type Server struct {
	*httptest.Server

	key *rsa.PrivateKey

	mu                 sync.Mutex
	rotateRefreshToken bool
	tokenStatus        int
	tokenBody          map[string]any
	userInfoStatus     int
	userInfo           map[string]any
	keysStatus         int
	tokenDelay         time.Duration
	lastAuthorization  string
	issued             int

	tokenCalls    atomic.Int64
	userInfoCalls atomic.Int64
}

// NewServer starts a provider that, by default, accepts every refresh token
// and returns an empty userinfo document.
func NewServer(t testing.TB) *Server {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	s := &Server{
		key:            key,
		tokenStatus:    http.StatusOK,
		userInfoStatus: http.StatusOK,
		keysStatus:     http.StatusOK,
		userInfo:       map[string]any{"sub": "user-1"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/openid-configuration", s.discovery)
	mux.HandleFunc("GET /oauth/v2/keys", s.jwks)
	mux.HandleFunc("POST /oauth/v2/token", s.token)
	mux.HandleFunc("GET /oidc/v1/userinfo", s.userinfo)

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Issuer is the provider's issuer URL.
func (s *Server) Issuer() string { return s.URL }

func (s *Server) TokenCalls() int64    { return s.tokenCalls.Load() }
func (s *Server) UserInfoCalls() int64 { return s.userInfoCalls.Load() }

// LastAuthorization is the Authorization header of the latest userinfo call.
func (s *Server) LastAuthorization() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAuthorization
}

// RotateRefreshTokens makes successful refreshes issue a new refresh token.
func (s *Server) RotateRefreshTokens(rotate bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rotateRefreshToken = rotate
}

// FailRefresh makes the token endpoint answer with status and an OAuth error body.
func (s *Server) FailRefresh(status int, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenStatus = status
	s.tokenBody = map[string]any{"error": code, "error_description": "refresh rejected"}
}

// FailKeys makes the JWKS endpoint answer with status. http.StatusOK restores it.
func (s *Server) FailKeys(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keysStatus = status
}

// SetTokenDelay slows the token endpoint down.
func (s *Server) SetTokenDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenDelay = d
}

// SetUserInfo sets the userinfo response.
func (s *Server) SetUserInfo(status int, body map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userInfoStatus = status
	s.userInfo = body
}

// SetRoles publishes role -> org grants under the default role claim.
func (s *Server) SetRoles(roles map[string][]string) {
	claim := map[string]any{}
	for role, orgs := range roles {
		granted := map[string]any{}
		for _, org := range orgs {
			granted[org] = org + ".example.com"
		}
		claim[role] = granted
	}
	s.SetUserInfo(http.StatusOK, map[string]any{
		"sub":                                "user-1",
		"urn:zitadel:iam:org:project:roles": claim,
	})
}

// IDToken signs an ID token for ClientID. Extra claims override the defaults.
func (s *Server) IDToken(t testing.TB, extra map[string]any) string {
	t.Helper()

	now := time.Now()
	claims := jwt.MapClaims{
		"iss":                s.URL,
		"aud":                ClientID,
		"sub":                "user-1",
		"iat":                now.Unix(),
		"exp":                now.Add(time.Hour).Unix(),
		"name":               "Ada Lovelace",
		"given_name":         "Ada",
		"family_name":        "Lovelace",
		"email":              "ada@example.com",
		"preferred_username": "ada",
		"picture":            "https://example.com/ada.png",
		"urn:zitadel:iam:user:resourceowner:id":             "org-home",
		"urn:zitadel:iam:user:resourceowner:name":           "Home Org",
		"urn:zitadel:iam:user:resourceowner:primary_domain": "home.example.com",
	}
	for k, v := range extra {
		claims[k] = v
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = keyID
	raw, err := tok.SignedString(s.key)
	if err != nil {
		t.Fatalf("sign id token: %v", err)
	}
	return raw
}

func (s *Server) discovery(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"issuer":                                s.URL,
		"authorization_endpoint":                s.URL + "/oauth/v2/authorize",
		"token_endpoint":                        s.URL + "/oauth/v2/token",
		"userinfo_endpoint":                     s.URL + "/oidc/v1/userinfo",
		"jwks_uri":                              s.URL + "/oauth/v2/keys",
		"response_types_supported":              []string{"code"},
		"subject_types_supported":               []string{"public"},
		"id_token_signing_alg_values_supported": []string{"RS256"},
	})
}

func (s *Server) jwks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	status := s.keysStatus
	s.mu.Unlock()
	if status != http.StatusOK {
		w.WriteHeader(status)
		return
	}

	pub := s.key.PublicKey
	writeJSON(w, http.StatusOK, map[string]any{
		"keys": []map[string]any{{
			"kty": "RSA",
			"kid": keyID,
			"use": "sig",
			"alg": "RS256",
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	})
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	s.tokenCalls.Add(1)

	s.mu.Lock()
	delay := s.tokenDelay
	status := s.tokenStatus
	body := s.tokenBody
	rotate := s.rotateRefreshToken
	s.issued++
	n := s.issued
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_request"})
		return
	}
	if r.PostForm.Get("grant_type") != "refresh_token" || r.PostForm.Get("refresh_token") == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "unsupported_grant_type"})
		return
	}
	if r.PostForm.Get("client_id") != ClientID {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid_client"})
		return
	}

	if status != http.StatusOK {
		writeJSON(w, status, body)
		return
	}

	resp := map[string]any{
		"access_token": fmt.Sprintf("access-%d", n),
		"token_type":   "Bearer",
		"expires_in":   3600,
	}
	if rotate {
		resp["refresh_token"] = fmt.Sprintf("refresh-%d", n)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) userinfo(w http.ResponseWriter, r *http.Request) {
	s.userInfoCalls.Add(1)

	s.mu.Lock()
	s.lastAuthorization = r.Header.Get("Authorization")
	status := s.userInfoStatus
	body := s.userInfo
	s.mu.Unlock()

	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
