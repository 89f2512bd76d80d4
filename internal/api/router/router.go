// Package router assembles the chi router for the scheduling API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/harborclinic/scheduling-core/internal/http/handlers"
	httpmiddleware "github.com/harborclinic/scheduling-core/internal/http/middleware"
	"github.com/harborclinic/scheduling-core/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	CalendarHandler    *handlers.CalendarHandler
	DirectoryHandler   *handlers.DirectoryHandler
	RescheduleHandler  *handlers.RescheduleHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", handlers.HealthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/v1", func(api chi.Router) {
		if cfg.CalendarHandler != nil {
			api.Get("/calendar", cfg.CalendarHandler.GetCalendar)
		}
		if cfg.DirectoryHandler != nil {
			api.Get("/doctors", cfg.DirectoryHandler.ListDoctors)
			api.Get("/availability", cfg.DirectoryHandler.GetAvailability)
		}
		if cfg.RescheduleHandler != nil {
			api.Post("/appointments/{appointmentID}/reschedule", cfg.RescheduleHandler.Reschedule)
		}
	})

	return r
}
