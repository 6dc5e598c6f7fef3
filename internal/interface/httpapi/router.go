package httpapi

import (
	"net/http"
	"time"

	"flights-api/internal/infrastructure/ratelimit"
	"flights-api/pkg/logger"
	"flights-api/pkg/metrics"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Handlers struct {
	Flights *FlightHandler
	System  *SystemHandler
}

// RouterOptions tunes the middleware stack. Zero values disable the optional parts.
type RouterOptions struct {
	RequestTimeout time.Duration
	AllowedOrigins []string
	Limiter        *ratelimit.ClientLimiter
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
}

func NewRouter(handlers *Handlers, opts RouterOptions, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(chimw.RealIP)
	r.Use(AccessLog(log))
	r.Use(Metrics(opts.Metrics))
	r.Use(Recoverer(log))
	r.Use(SecurityHeaders)
	r.Use(NewCORS(opts.AllowedOrigins))

	r.NotFound(handlers.System.NotFound)
	r.MethodNotAllowed(handlers.System.MethodNotAllowed)

	r.Get("/", handlers.System.Index)
	r.Get("/health", handlers.System.Health)
	r.Get("/ready", handlers.System.Ready)
	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	r.Route("/api/flights", func(r chi.Router) {
		r.Use(RateLimit(opts.Limiter, log))
		if opts.RequestTimeout > 0 {
			r.Use(chimw.Timeout(opts.RequestTimeout))
		}
		r.NotFound(handlers.System.NotFound)
		r.MethodNotAllowed(handlers.System.MethodNotAllowed)

		r.Get("/", handlers.Flights.ListFlights)
		r.Post("/", handlers.Flights.CreateFlight)
		r.Get("/{flightCode}", handlers.Flights.GetFlight)
		r.Put("/{flightCode}", handlers.Flights.UpdateFlight)
		r.Delete("/{flightCode}", handlers.Flights.DeleteFlight)
	})

	return r
}
