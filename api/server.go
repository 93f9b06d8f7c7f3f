/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/requests/*    Submission, lookup, cancellation, overlap probe
  /api/employees/*   Per-employee history and balance
  /api/reviews/*     Escalation queue
  /api/reference/*   Blocked-country tables
  /api/admin/*       Aggregate counters

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Request routes
		r.Route("/requests", func(r chi.Router) {
			r.Post("/", h.SubmitRequest)
			r.Post("/overlap-check", h.CheckOverlap)
			r.Get("/{id}", h.GetRequest)
			r.Post("/{id}/cancel", h.CancelRequest)
		})

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/{id}/requests", h.ListEmployeeRequests)
			r.Get("/{id}/balance", h.GetBalance)
		})

		// Review routes
		r.Route("/reviews", func(r chi.Router) {
			r.Get("/pending", h.ListPendingReviews)
			r.Post("/{id}/resolve", h.ResolveReview)
		})

		// Reference data routes
		r.Route("/reference", func(r chi.Router) {
			r.Get("/blocked-countries", h.ListBlockedCountries)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Get("/stats", h.GetStats)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}
