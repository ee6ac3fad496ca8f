/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/holidays/*   Bank holiday lookups
  /api/calendar/*   Annotated month grids
  /api/leave/*      Selection and allowance
  /api/session      Division / year
  /api/export/*     ICS download

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Get("/upcoming", h.UpcomingHolidays)
		})

		r.Route("/calendar", func(r chi.Router) {
			r.Get("/{year}", h.GetYearGrid)
			r.Get("/{year}/{month}", h.GetMonthGrid)
		})

		r.Route("/leave", func(r chi.Router) {
			r.Get("/", h.GetLeave)
			r.Post("/toggle", h.ToggleDay)
			r.Post("/reset", h.ResetYear)
			r.Put("/allowance", h.SetAllowance)
		})

		r.Put("/session", h.UpdateSession)

		r.Get("/export/{year}", h.ExportYear)
	})

	return r
}
