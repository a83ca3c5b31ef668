package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/identity/internal/identity/service"
	"github.com/aussiebroadwan/identity/internal/identity/store"
	"github.com/aussiebroadwan/identity/pkg/authsdk"
	"github.com/aussiebroadwan/identity/pkg/httpx"
	"github.com/aussiebroadwan/identity/pkg/slogx"

	_ "github.com/aussiebroadwan/identity/api/identity" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	IdentityService     *service.IdentityService
	VerificationService *service.VerificationService
	TokenService        *service.TokenService

	// CachePing is checked by /readyz when set.
	CachePing PingFunc

	// TrustGatewayHeaders resolves the caller from X-User-Id when no bearer
	// token is present.
	TrustGatewayHeaders bool

	// RateLimit is applied per client IP to the /auth routes.
	RateLimit httpx.RateLimitConfig
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		RateLimit:    httpx.DefaultRateLimit,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Identity Service API
//	@version		0.1.0
//	@description	Phone based registration and login with SMS verification codes. Issues HS256 access
//	@description	tokens and single use refresh tokens.
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8081
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		Identity:      r.IdentityService,
		Verifications: r.VerificationService,
	}

	limit := httpx.RateLimitByIP(r.RateLimit, rateLimited)
	authn := httpx.AuthnMiddleware(httpx.AuthnOptions{
		Verify:             r.TokenService.Validate,
		TrustGatewayHeader: r.TrustGatewayHeaders,
	})

	// Public endpoints
	r.Mux.Handle("POST /auth/send-code", httpx.Chain(http.HandlerFunc(h.HandleSendCode), limit))
	r.Mux.Handle("POST /auth/register", httpx.Chain(http.HandlerFunc(h.HandleRegister), limit))
	r.Mux.Handle("POST /auth/login", httpx.Chain(http.HandlerFunc(h.HandleLogin), limit))
	r.Mux.Handle("POST /auth/refresh", httpx.Chain(http.HandlerFunc(h.HandleRefresh), limit))

	// Endpoints that need a resolved user
	byUser := httpx.RateLimitByUser(r.RateLimit, rateLimited)
	r.Mux.Handle("POST /auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			authn,
			httpx.RequireUser(unauthenticated),
			byUser,
		),
	)
	r.Mux.Handle("GET /auth/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			authn,
			httpx.RequireUser(unauthenticated),
			byUser,
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.CachePing))

	r.Mux.Handle("GET /swagger/", httpSwagger.Handler())
}

func rateLimited(w http.ResponseWriter, _ *http.Request) {
	authsdk.NewAPIError(http.StatusTooManyRequests, "Too many requests. Please try again later.").WriteError(w)
}
