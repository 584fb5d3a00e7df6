package storefront

import (
	"net/http"

	"github.com/fjod/storefront/internal/httpapi"
	"github.com/fjod/storefront/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// AdminRoutes is an operator-only route set mounted under /api/v1/admin.
type AdminRoutes interface {
	Routes(r chi.Router)
}

type RouterConfig struct {
	AllowedOrigins []string
	JWTSecret      []byte
	// Admin is optional; without it no admin routes are mounted.
	Admin AdminRoutes
}

// NewRouter wires the storefront API. Catalog routes are public; cart and
// checkout routes get a session and the optional bearer identity.
func NewRouter(h *Handler, sessions *session.Registry, cfg RouterConfig, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", SessionHeader},
		ExposedHeaders:   []string{SessionHeader},
		AllowCredentials: false,
		MaxAge:           600,
	}))

	r.Get("/health", httpapi.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", httpapi.Health)
		h.Routes(r)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg.JWTSecret))
			r.Use(SessionMiddleware(sessions))
			h.SessionRoutes(r)
		})

		if cfg.Admin != nil {
			r.Route("/admin", func(r chi.Router) {
				r.Use(OperatorMiddleware(cfg.JWTSecret))
				cfg.Admin.Routes(r)
			})
		}
	})

	return otelhttp.NewHandler(r, "storefront")
}
