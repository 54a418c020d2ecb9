package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/grantgate/internal/gateway/http"
	"github.com/aussiebroadwan/grantgate/internal/gateway/idp"
	"github.com/aussiebroadwan/grantgate/internal/gateway/metrics"
	"github.com/aussiebroadwan/grantgate/internal/gateway/service"
	"github.com/aussiebroadwan/grantgate/internal/gateway/store"
	"github.com/aussiebroadwan/grantgate/internal/gateway/store/drivers/memory"
	"github.com/aussiebroadwan/grantgate/internal/gateway/store/drivers/redis"
	"github.com/aussiebroadwan/grantgate/internal/gateway/store/drivers/sqlite"
	"github.com/aussiebroadwan/grantgate/internal/gateway/upstream"
	"github.com/aussiebroadwan/grantgate/pkg/cryptox"
	"github.com/aussiebroadwan/grantgate/pkg/httpx"
	"github.com/aussiebroadwan/grantgate/pkg/jwtx"
	"github.com/aussiebroadwan/grantgate/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"

	// sealInfo binds the session sealing key to session records.
	sealInfo = "grantgate/session/v1"

	// credentialWarnWindow is how early an expiring service credential is reported.
	credentialWarnWindow = 7 * 24 * time.Hour

	discoveryTimeout = 30 * time.Second
)

// Application encapsulates the gateway with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	provider *idp.Provider
	upstream *upstream.Client
	metrics  *metrics.Metrics

	// Services
	sessionService      *service.SessionService
	grantsService       *service.GrantsService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "grantgate",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		metrics: metrics.New(),
	}

	app.checkServiceCredential(time.Now())

	if err := app.initStore(); err != nil {
		return nil, err
	}

	if err := app.initClients(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("gateway starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"session_store", app.cfg.SessionStore,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down gateway...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing session store", "error", err)
		return err
	}

	app.logger.Info("gateway stopped")
	return nil
}

// checkServiceCredential warns when the service credential is a JWT that has
// expired or is about to. Opaque credentials cannot be checked.
func (app *Application) checkServiceCredential(now time.Time) {
	claims, err := jwtx.Inspect(app.cfg.ServiceCredential)
	if err != nil {
		app.logger.Debug("service credential is opaque, expiry not checked")
		return
	}

	switch {
	case claims.ExpiresAt.IsZero():
	case !claims.ExpiresAt.After(now):
		app.logger.Error("service credential has expired", "expired_at", claims.ExpiresAt, "subject", claims.Subject)
	case claims.ExpiresWithin(now, credentialWarnWindow):
		app.logger.Warn("service credential expires soon", "expires_at", claims.ExpiresAt, "subject", claims.Subject)
	}
}

// initStore opens the configured session store and applies migrations
func (app *Application) initStore() error {
	if app.cfg.SessionSecret == "" && app.cfg.SessionStore != StoreMemory {
		app.logger.Warn("SESSION_SECRET not set, stored sessions will not survive a restart")
	}

	sealer, err := cryptox.NewSealer([]byte(app.cfg.SessionSecret), sealInfo)
	if err != nil {
		return fmt.Errorf("failed to initialize session sealer: %w", err)
	}
	codec := store.NewCodec(sealer)

	switch app.cfg.SessionStore {
	case StoreMemory:
		app.db = memory.NewStore()
	case StoreRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		db, err := redis.Open(ctx, app.cfg.RedisURL, codec)
		if err != nil {
			return fmt.Errorf("failed to initialize redis session store: %w", err)
		}
		app.db = db
	default:
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
		db, err := sqlite.NewStore(dsn, codec)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		app.db = db
	}

	if err := app.db.ApplyMigrations(); err != nil {
		_ = app.db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("session store ready", "backend", app.cfg.SessionStore)
	return nil
}

// initClients discovers the identity provider and prepares the upstream client
func (app *Application) initClients() error {
	httpClient := &http.Client{Timeout: app.cfg.UpstreamTimeout}

	ctx, cancel := context.WithTimeout(context.Background(), discoveryTimeout)
	defer cancel()

	provider, err := idp.New(slogx.WithContext(ctx, app.logger), idp.Config{
		Issuer:       app.cfg.Issuer,
		ClientID:     app.cfg.ClientID,
		ClientSecret: app.cfg.ClientSecret,
		RoleClaim:    app.cfg.RoleClaim,
		HTTPClient:   httpClient,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize identity provider: %w", err)
	}
	app.provider = provider

	up, err := upstream.NewClient(upstream.Config{
		BaseURL:     app.cfg.UpstreamBaseURL,
		Credential:  app.cfg.ServiceCredential,
		ScopeHeader: app.cfg.UpstreamScopeHeader,
		ScopeOrgID:  app.cfg.OrganizationID,
		HTTPClient:  httpClient,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize upstream client: %w", err)
	}
	app.upstream = up

	app.logger.Info("identity provider discovered", "issuer", app.cfg.Issuer)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.sessionService = &service.SessionService{
		Store:          app.db,
		Refresher:      app.provider,
		Identity:       app.provider,
		ClientID:       app.provider.ClientID(),
		Metrics:        app.metrics,
		TTL:            app.cfg.SessionTTL,
		RefreshTimeout: app.cfg.RefreshTimeout,
	}

	app.grantsService = &service.GrantsService{
		Claims:       app.provider,
		Upstream:     app.upstream,
		Metrics:      app.metrics,
		RequiredRole: app.cfg.RequiredRole,
		Query:        upstream.SearchQuery{Limit: app.cfg.SearchLimit, Asc: true},
		ClaimRetries: app.cfg.ClaimRetries,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.metrics,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.metrics, app.logger)

	router.Cookie = httpx.CookieConfig{
		Name:   app.cfg.SessionCookieName,
		Secure: app.cfg.CookieSecure,
		MaxAge: app.cfg.SessionTTL,
	}
	router.RateLimits = app.cfg.RateLimits
	router.ProviderPing = app.provider.Ping
	router.SessionService = app.sessionService
	router.GrantsService = app.grantsService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
