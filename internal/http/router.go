package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/cinewave/cinewave-api/internal/auth"
	"github.com/cinewave/cinewave-api/internal/config"
	"github.com/cinewave/cinewave-api/internal/httputil"
	"github.com/cinewave/cinewave-api/internal/logging"
	"github.com/cinewave/cinewave-api/internal/media"
)

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Auth  *auth.Handler
	Media *media.Handler
}

// NewRouter creates and configures the HTTP router. Every route goes through
// the auth gate; which ones need a token is decided by the gate's route table.
func NewRouter(cfg *config.Config, h Handlers, gate *auth.Gate, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()
	httputil.SetLogger(logger)

	// CORS - must be first
	if len(cfg.Server.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length", "WWW-Authenticate"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders(!cfg.Server.IsDevelopment())) // Security headers on all responses
	r.Use(middleware.Recoverer)                         // Recover from panics
	r.Use(middleware.RequestID)                         // Add request ID
	if cfg.Server.TrustProxyHeaders {
		r.Use(middleware.RealIP) // Set RemoteAddr from proxy headers
	}
	r.Use(logging.RequestLogger(logger)) // Structured logging with request context
	r.Use(middleware.Compress(5))        // Compress responses
	r.Use(gate.Middleware)               // Bearer token check on protected routes

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondErrorWithCode(w, "resource not found", httputil.CodeNotFound, http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondErrorWithCode(w, "method not allowed", httputil.CodeMethodNotAllowed, http.StatusMethodNotAllowed)
	})

	r.Get("/health", handleHealth)

	// Swagger UI - only in development
	if cfg.Server.IsDevelopment() {
		logger.Info("swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
		r.Get("/profile", h.Auth.Profile)
		r.Get("/users", h.Auth.ListUsers)
		r.Get("/user/{id}", h.Auth.GetUser)
		r.Put("/user/{id}", h.Auth.UpdateUser)
		r.Delete("/user/{id}", h.Auth.DeleteUser)
		r.Get("/user/email/{email}", h.Auth.GetUserByEmail)
	})

	r.Route("/api/media", func(r chi.Router) {
		r.Get("/hero", h.Media.Hero)
		r.Get("/featured/movies", h.Media.FeaturedMovies)
		r.Get("/featured/tvshows", h.Media.FeaturedTVShows)
		r.Get("/movies", h.Media.Movies)
		r.Get("/tvshows", h.Media.TVShows)
		r.Get("/search", h.Media.Search)
		r.Get("/filter/rent", h.Media.RentRange)
		r.Get("/filter/purchase", h.Media.PurchaseRange)
		r.Get("/filter/year", h.Media.ByYear)
		r.Get("/tag/{tag}", h.Media.ByTag)
		r.Get("/sorted/name", h.Media.SortedByName)
		r.Get("/{id}", h.Media.Get)
	})

	r.Route("/api/admin/media", func(r chi.Router) {
		r.Post("/", h.Media.Create)
		r.Put("/{id}", h.Media.Update)
		r.Delete("/{id}", h.Media.Delete)
	})

	return r
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}
