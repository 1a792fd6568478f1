package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/inifarhan/rest-api-with-jwt-and-pagination/internal/service"
	"github.com/inifarhan/rest-api-with-jwt-and-pagination/pkg/health"
	"github.com/inifarhan/rest-api-with-jwt-and-pagination/pkg/middleware"
)

// Services are the application services the router dispatches to.
type Services struct {
	Auth     *service.AuthService
	Users    *service.UserService
	Products *service.ProductService
}

// RouterConfig holds the transport settings of the router.
type RouterConfig struct {
	ServiceName  string
	CORS         middleware.CORSConfig
	SecureCookie bool
	// AuthRateLimiter throttles register and login. Nil disables it.
	AuthRateLimiter *middleware.RateLimiter
	// PprofAllowedCIDRs enables /debug/pprof for these networks when set.
	PprofAllowedCIDRs []string
	// Registry backs /metrics and the HTTP collectors.
	Registry *prometheus.Registry
}

// NewRouter creates a chi router with all routes registered.
func NewRouter(svc Services, healthHandler *health.Handler, logger *slog.Logger, cfg RouterConfig) http.Handler {
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.NewHTTPMetrics(cfg.Registry).Middleware(cfg.ServiceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{Registry: cfg.Registry}))

	if len(cfg.PprofAllowedCIDRs) > 0 {
		middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)
	}

	authHandler := NewAuthHandler(svc.Auth, cfg.SecureCookie, logger)
	userHandler := NewUserHandler(svc.Users, logger)
	productHandler := NewProductHandler(svc.Products, logger)
	guard := SessionGuard(svc.Auth, logger)

	// Guarded routes authenticate before the body's media type is checked.
	guarded := func(r chi.Router) chi.Router {
		return r.With(guard, ContentTypeJSON)
	}

	// Auth endpoints
	r.Route("/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Group(func(r chi.Router) {
			if cfg.AuthRateLimiter != nil {
				r.Use(cfg.AuthRateLimiter.Middleware)
			}
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})
		r.Delete("/logout", authHandler.Logout)
		r.With(middleware.Auth(tokenValidator(svc.Auth))).Get("/me", authHandler.Me)
	})
	r.With(ContentTypeJSON).Get("/token", authHandler.Token)

	// User directory
	r.Route("/users", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Get("/", userHandler.List)
			r.Get("/{userId}", userHandler.Get)
		})
		guarded(r).Put("/{userId}", userHandler.Update)
	})

	// Products
	r.With(ContentTypeJSON).Get("/products", productHandler.List)
	r.Route("/{userId}/products", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Get("/", productHandler.ListForUser)
			r.Get("/{productId}", productHandler.Get)
		})
		guarded(r).Post("/", productHandler.Create)
		guarded(r).Put("/{productId}", productHandler.Update)
		guarded(r).Delete("/{productId}", productHandler.Delete)
	})

	return r
}
