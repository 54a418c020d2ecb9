package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("GATEWAY_ISSUER", "https://idp.example.com")
	t.Setenv("GATEWAY_CLIENT_ID", "client-1")
	t.Setenv("SERVICE_ACCOUNT_ACCESS_TOKEN", "svc")
	t.Setenv("ORG_ID", "org-1")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequired(t)

	cfg := LoadConfig()
	require.NoError(t, cfg.Validate())

	require.Equal(t, "https://idp.example.com", cfg.UpstreamBaseURL)
	require.Equal(t, "x-zitadel-org", cfg.UpstreamScopeHeader)
	require.Equal(t, "urn:zitadel:iam:org:project:roles", cfg.RoleClaim)
	require.Equal(t, "reader", cfg.RequiredRole)
	require.Equal(t, 100, cfg.SearchLimit)
	require.Equal(t, 1, cfg.ClaimRetries)
	require.Equal(t, StoreSQLite, cfg.SessionStore)
	require.Equal(t, "gateway.db", cfg.DatabaseFile)
	require.Equal(t, "grantgate_session", cfg.SessionCookieName)
	require.Equal(t, 720*time.Hour, cfg.SessionTTL)
	require.Equal(t, 10*time.Second, cfg.RefreshTimeout)
	require.Equal(t, 8080, cfg.Port)
	require.False(t, cfg.CookieSecure, "dev serves plain http")
	require.Positive(t, cfg.RateLimits.Proxy.RequestsPerWindow)
}

func TestLoadConfig_Aliases(t *testing.T) {
	t.Setenv("ZITADEL_API", "https://zitadel.example.com")
	t.Setenv("ZITADEL_CLIENT_ID", "zitadel-client")

	cfg := LoadConfig()
	require.Equal(t, "https://zitadel.example.com", cfg.Issuer)
	require.Equal(t, "zitadel-client", cfg.ClientID)

	t.Setenv("GATEWAY_ISSUER", "https://preferred.example.com")
	require.Equal(t, "https://preferred.example.com", LoadConfig().Issuer)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ENV", "prod")
	t.Setenv("UPSTREAM_BASE_URL", "https://api.example.com")
	t.Setenv("SESSION_STORE", "Redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("SESSION_TTL", "24h")
	t.Setenv("REFRESH_TIMEOUT", "abc")
	t.Setenv("HOUSEKEEPING_INTERVAL", "5")
	t.Setenv("RATELIMIT_PROXY_REQUESTS", "7")

	cfg := LoadConfig()
	require.NoError(t, cfg.Validate())

	require.Equal(t, "https://api.example.com", cfg.UpstreamBaseURL)
	require.Equal(t, StoreRedis, cfg.SessionStore)
	require.Equal(t, 24*time.Hour, cfg.SessionTTL)
	require.Equal(t, 10*time.Second, cfg.RefreshTimeout, "invalid values fall back to the default")
	require.Equal(t, 5*time.Minute, cfg.HousekeepingInterval)
	require.Equal(t, 7, cfg.RateLimits.Proxy.RequestsPerWindow)
	require.True(t, cfg.CookieSecure)
}

func TestConfig_Validate(t *testing.T) {
	err := Config{SessionStore: "postgres", SessionTTL: time.Hour, SearchLimit: 1}.Validate()
	require.Error(t, err)
	for _, want := range []string{"GATEWAY_ISSUER", "GATEWAY_CLIENT_ID", "SERVICE_ACCOUNT_ACCESS_TOKEN", "ORG_ID", "postgres"} {
		require.ErrorContains(t, err, want)
	}

	setRequired(t)
	t.Setenv("SESSION_STORE", "redis")
	require.ErrorContains(t, LoadConfig().Validate(), "REDIS_URL")
}
