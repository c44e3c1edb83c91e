package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/docqr/docqr/internal/api/handler"
	"github.com/docqr/docqr/internal/api/middleware"
	"github.com/docqr/docqr/internal/auth"
	"github.com/docqr/docqr/internal/metrics"
	"github.com/docqr/docqr/internal/ratelimit"
)

// Per-route limits.
var (
	loginLimit          = middleware.Limit{Key: "login", MaxAttempts: 30, DecayMinutes: 1}
	passwordChangeLimit = middleware.Limit{Key: "password-change", MaxAttempts: 10, DecayMinutes: 1}
	listingLimit        = middleware.Limit{Key: "listing", MaxAttempts: 120, DecayMinutes: 1}
	defaultLimit        = middleware.Limit{}
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	DBPinger    handler.DBPinger
	RateStore   ratelimit.Store
	AuthService *auth.Service
	UserRepo    auth.UserRepository
	Metrics     *metrics.Metrics
	OpenAPISpec []byte
	Version     string

	// Production enables the security headers and compression post-processors.
	Production         bool
	AppURL             string
	FrontendURL        string
	CORSAllowedOrigins []string
	StoreTimeout       time.Duration
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	var opts []middleware.Option
	if deps.StoreTimeout > 0 {
		opts = append(opts, middleware.WithTimeout(deps.StoreTimeout))
	}
	if deps.Metrics != nil {
		opts = append(opts, middleware.WithObserver(deps.Metrics))
	}

	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.ProxyHeaders)
	r.Use(middleware.Preflight)
	r.Use(middleware.CORS(deps.CORSAllowedOrigins))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}
	r.Use(chimiddleware.Logger)
	r.Use(middleware.SecurityHeaders(middleware.SecurityConfig{
		Enabled:     deps.Production,
		AppURL:      deps.AppURL,
		FrontendURL: deps.FrontendURL,
	}))
	r.Use(middleware.Compress(deps.Production))

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.RateStore, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	if len(deps.OpenAPISpec) > 0 {
		openapiHandler := handler.NewOpenAPIHandler(deps.OpenAPISpec)
		r.Get("/openapi.json", openapiHandler.ServeHTTP)
	}

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	if deps.AuthService == nil || deps.RateStore == nil {
		return r
	}

	limit := func(l middleware.Limit) func(http.Handler) http.Handler {
		return middleware.RateLimit(deps.RateStore, l, opts...)
	}
	requireAuth := middleware.Auth(deps.AuthService, opts...)

	authHandler := handler.NewAuthHandler(deps.AuthService)
	r.Route("/auth", func(r chi.Router) {
		r.With(limit(loginLimit)).Post("/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.With(limit(defaultLimit)).Post("/logout", authHandler.Logout)
			r.With(limit(defaultLimit)).Get("/me", authHandler.Me)
			r.With(limit(passwordChangeLimit)).Put("/password", authHandler.ChangePassword)
		})
	})

	if deps.UserRepo != nil {
		userHandler := handler.NewUserHandler(deps.UserRepo)
		r.With(requireAuth, limit(listingLimit)).Get("/users", userHandler.List)
	}

	return r
}
