package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/grantgate/internal/gateway/idp"
	"github.com/aussiebroadwan/grantgate/internal/gateway/service"
	"github.com/aussiebroadwan/grantgate/internal/gateway/upstream"
	"github.com/aussiebroadwan/grantgate/pkg/httpx"
)

// Session store backends.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Config struct {
	Issuer       string // Required: identity provider issuer URL
	ClientID     string // Required: OAuth client id the sessions belong to
	ClientSecret string // Optional: confidential clients only

	ServiceCredential string // Required: service account token for upstream calls
	OrganizationID    string // Required: org the service account acts in

	UpstreamBaseURL     string        // Optional: management API base (default: Issuer)
	UpstreamScopeHeader string        // Optional: header carrying OrganizationID (default: x-zitadel-org)
	RoleClaim           string        // Optional: userinfo claim holding role grants
	RequiredRole        string        // Optional: role required for the grant search (default: reader)
	SearchLimit         int           // Optional: upstream page size (default: 100)
	ClaimRetries        int           // Optional: retries for an unavailable userinfo endpoint (default: 1)
	UpstreamTimeout     time.Duration // Optional: HTTP timeout towards the IdP and upstream (default: 15s)

	SessionStore      string        // Optional: sqlite, redis or memory (default: sqlite)
	DatabaseFile      string        // Optional: SQLite database file (default: gateway.db)
	RedisURL          string        // Required for the redis store
	SessionSecret     string        // Optional: key material for sealing stored sessions (default: ephemeral)
	SessionCookieName string        // Optional: (default: grantgate_session)
	SessionTTL        time.Duration // Optional: absolute session lifetime (default: 720h)
	CookieSecure      bool          // Optional: Secure cookie attribute (default: true outside dev)
	RefreshTimeout    time.Duration // Optional: bound on a detached token refresh (default: 10s)

	RateLimits httpx.RateLimits

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

// LoadConfig reads the process environment once. Nothing reads it later.
func LoadConfig() Config {
	env := getEnvOrDefault("ENV", "dev")

	cfg := Config{
		Issuer:       getEnvFirst("GATEWAY_ISSUER", "ZITADEL_API"),
		ClientID:     getEnvFirst("GATEWAY_CLIENT_ID", "ZITADEL_CLIENT_ID"),
		ClientSecret: getEnvFirst("GATEWAY_CLIENT_SECRET", "ZITADEL_CLIENT_SECRET"),

		ServiceCredential: os.Getenv("SERVICE_ACCOUNT_ACCESS_TOKEN"),
		OrganizationID:    os.Getenv("ORG_ID"),

		UpstreamBaseURL:     os.Getenv("UPSTREAM_BASE_URL"),
		UpstreamScopeHeader: getEnvOrDefault("UPSTREAM_SCOPE_HEADER", upstream.DefaultScopeHeader),
		RoleClaim:           getEnvOrDefault("ROLE_CLAIM", idp.DefaultRoleClaim),
		RequiredRole:        getEnvOrDefault("REQUIRED_ROLE", service.DefaultRequiredRole),
		SearchLimit:         getEnvIntOrDefault("SEARCH_LIMIT", upstream.DefaultSearchLimit),
		ClaimRetries:        getEnvIntOrDefault("CLAIMS_RETRIES", 1),
		UpstreamTimeout:     getEnvDurationOrDefault("UPSTREAM_TIMEOUT", 15*time.Second),

		SessionStore:      strings.ToLower(getEnvOrDefault("SESSION_STORE", StoreSQLite)),
		DatabaseFile:      getEnvOrDefault("DATABASE_FILE", "gateway.db"),
		RedisURL:          os.Getenv("REDIS_URL"),
		SessionSecret:     os.Getenv("SESSION_SECRET"),
		SessionCookieName: getEnvOrDefault("SESSION_COOKIE_NAME", "grantgate_session"),
		SessionTTL:        getEnvDurationOrDefault("SESSION_TTL", service.DefaultSessionTTL),
		CookieSecure:      getEnvBoolOrDefault("SESSION_COOKIE_SECURE", env != "dev"),
		RefreshTimeout:    getEnvDurationOrDefault("REFRESH_TIMEOUT", service.DefaultRefreshTimeout),

		Env:                  env,
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	if cfg.UpstreamBaseURL == "" {
		cfg.UpstreamBaseURL = cfg.Issuer
	}

	// Rate limit profiles can be relaxed for load and end-to-end testing
	def := httpx.DefaultRateLimits()
	cfg.RateLimits = httpx.RateLimits{
		Session: httpx.ParseRateLimitFromEnv(os.Getenv, "SESSION", def.Session),
		Proxy:   httpx.ParseRateLimitFromEnv(os.Getenv, "PROXY", def.Proxy),
		Public:  httpx.ParseRateLimitFromEnv(os.Getenv, "PUBLIC", def.Public),
	}

	return cfg
}

// Validate reports every missing or inconsistent setting at once.
func (c Config) Validate() error {
	var errs []error

	if c.Issuer == "" {
		errs = append(errs, errors.New("GATEWAY_ISSUER (or ZITADEL_API) is required"))
	}
	if c.ClientID == "" {
		errs = append(errs, errors.New("GATEWAY_CLIENT_ID (or ZITADEL_CLIENT_ID) is required"))
	}
	if c.ServiceCredential == "" {
		errs = append(errs, errors.New("SERVICE_ACCOUNT_ACCESS_TOKEN is required"))
	}
	if c.OrganizationID == "" {
		errs = append(errs, errors.New("ORG_ID is required"))
	}

	switch c.SessionStore {
	case StoreSQLite, StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis session store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore))
	}

	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.SearchLimit <= 0 {
		errs = append(errs, errors.New("SEARCH_LIMIT must be positive"))
	}
	if c.ClaimRetries < 0 {
		errs = append(errs, errors.New("CLAIMS_RETRIES must not be negative"))
	}

	return errors.Join(errs...)
}

// getEnvFirst returns the first non-empty value among keys.
func getEnvFirst(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
