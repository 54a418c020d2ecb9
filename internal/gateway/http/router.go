package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/grantgate/internal/gateway/metrics"
	"github.com/aussiebroadwan/grantgate/internal/gateway/service"
	"github.com/aussiebroadwan/grantgate/internal/gateway/store"
	"github.com/aussiebroadwan/grantgate/pkg/httpx"
	"github.com/aussiebroadwan/grantgate/pkg/slogx"

	_ "github.com/aussiebroadwan/grantgate/api/gateway" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store   store.Store
	metrics *metrics.Metrics

	Cookie     httpx.CookieConfig
	RateLimits httpx.RateLimits

	SessionService *service.SessionService
	GrantsService  *service.GrantsService

	// ProviderPing checks the identity provider is reachable.
	ProviderPing func(ctx context.Context) error
}

func NewRouter(
	buildVersion string,
	st store.Store,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		metrics:      m,
		logger:       logger,
		RateLimits:   httpx.DefaultRateLimits(),
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSession()
	r.registerGrants()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			grantgate API
//	@version		0.1.0
//	@description	Session-aware gateway for privileged project grant searches.
//	@description
//	@description	The gateway holds the user's delegated tokens server-side behind an opaque
//	@description	session cookie. Privileged searches run with the gateway's service
//	@description	credential, only after the user's role claims have been checked.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/grantgate
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
//
//	@securityDefinitions.apikey	SessionCookie
//	@in							cookie
//	@name						grantgate_session
//	@description				Opaque session cookie issued by POST /api/auth/session.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerSession() {
	h := &SessionHandler{
		SessionService: r.SessionService,
		Cookie:         r.Cookie,
	}

	// Establishing a session verifies an ID token, so it gets the strict limit.
	r.Mux.Handle("POST /api/auth/session",
		httpx.Chain(http.HandlerFunc(h.HandleEstablish),
			httpx.RateLimitByIP(r.RateLimits.Session),
		),
	)
	r.Mux.Handle("GET /api/auth/session",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitBySession(r.RateLimits.Proxy, r.Cookie.Name),
		),
	)
	r.Mux.Handle("DELETE /api/auth/session",
		httpx.Chain(http.HandlerFunc(h.HandleDelete),
			httpx.RateLimitBySession(r.RateLimits.Session, r.Cookie.Name),
		),
	)
}

func (r *Router) registerGrants() {
	h := &GrantsHandler{
		SessionService: r.SessionService,
		GrantsService:  r.GrantsService,
		CookieName:     r.Cookie.Name,
	}

	r.Mux.Handle("GET /api/grantedprojects",
		httpx.Chain(h,
			httpx.RateLimitBySession(r.RateLimits.Proxy, r.Cookie.Name),
		),
	)
}

func (r *Router) registerSystem() {
	// Monitoring systems poll these frequently.
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.RateLimits.Public),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.ProviderPing),
			httpx.RateLimitByIP(r.RateLimits.Public),
		),
	)
	if r.metrics != nil {
		r.Mux.Handle("GET /metrics", r.metrics.Handler())
	}
}
