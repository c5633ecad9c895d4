package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/carebridge/patient-scheduler/internal/availability"
	"github.com/carebridge/patient-scheduler/internal/bookings"
	"github.com/carebridge/patient-scheduler/internal/directory"
	httpmiddleware "github.com/carebridge/patient-scheduler/internal/http/middleware"
	"github.com/carebridge/patient-scheduler/internal/intent"
	"github.com/carebridge/patient-scheduler/internal/reservations"
	"github.com/carebridge/patient-scheduler/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	IntentHandler       *intent.Handler
	DirectoryHandler    *directory.Handler
	AvailabilityHandler *availability.Handler
	HoldsHandler        *reservations.Handler
	BookingsHandler     *bookings.Handler
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string

	// Requests/sec and burst for the public API rate limit. Zero disables it.
	RateLimitPerSecond float64
	RateLimitBurst     int
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

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		if cfg.RateLimitPerSecond > 0 && cfg.RateLimitBurst > 0 {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
		}

		if cfg.IntentHandler != nil {
			api.Post("/search-intent", cfg.IntentHandler.SearchIntent)
			api.Get("/care-options", cfg.IntentHandler.CareOptions)
		}
		if cfg.DirectoryHandler != nil {
			api.Get("/providers", cfg.DirectoryHandler.ListProviders)
			api.Get("/provider-search", cfg.DirectoryHandler.SearchProviders)
		}
		if cfg.AvailabilityHandler != nil {
			api.Get("/availability", cfg.AvailabilityHandler.ListSlots)
		}
		if cfg.HoldsHandler != nil {
			api.Post("/holds", cfg.HoldsHandler.CreateHold)
		}
		if cfg.BookingsHandler != nil {
			api.Post("/appointments", cfg.BookingsHandler.CreateAppointment)
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
