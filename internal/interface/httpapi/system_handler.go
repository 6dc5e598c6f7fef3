package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"flights-api/pkg/logger"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves health, readiness, the API index and the fallback routes
type SystemHandler struct {
	store       Pinger
	environment string
	version     string
	logger      logger.Logger
	now         func() time.Time
}

func NewSystemHandler(store Pinger, environment, version string, logger logger.Logger) *SystemHandler {
	return &SystemHandler{
		store:       store,
		environment: environment,
		version:     version,
		logger:      logger,
		now:         time.Now,
	}
}

type healthResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Timestamp   string `json:"timestamp"`
	Environment string `json:"environment"`
}

type indexResponse struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	Version   string         `json:"version"`
	Endpoints indexEndpoints `json:"endpoints"`
}

type indexEndpoints struct {
	Health  string          `json:"health"`
	Ready   string          `json:"ready"`
	Metrics string          `json:"metrics"`
	Flights flightEndpoints `json:"flights"`
}

type flightEndpoints struct {
	GetAll    string `json:"getAll"`
	GetByCode string `json:"getByCode"`
	Create    string `json:"create"`
	Update    string `json:"update"`
	Delete    string `json:"delete"`
}

// Health handles GET /health; it never touches the store
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Success:     true,
		Message:     "Flights API is running",
		Timestamp:   h.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Environment: h.environment,
	})
}

// Ready handles GET /ready
func (h *SystemHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("Readiness check failed", "error", err)
		writeFailure(w, http.StatusServiceUnavailable, "Flight store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Flights API is ready"})
}

// Index handles GET /
func (h *SystemHandler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, indexResponse{
		Success: true,
		Message: "Welcome to Flights API",
		Version: h.version,
		Endpoints: indexEndpoints{
			Health:  "GET /health",
			Ready:   "GET /ready",
			Metrics: "GET /metrics",
			Flights: flightEndpoints{
				GetAll:    "GET /api/flights",
				GetByCode: "GET /api/flights/:flightCode",
				Create:    "POST /api/flights",
				Update:    "PUT /api/flights/:flightCode",
				Delete:    "DELETE /api/flights/:flightCode",
			},
		},
	})
}

func (h *SystemHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeFailure(w, http.StatusNotFound, fmt.Sprintf("Route %s not found", r.URL.RequestURI()))
}

func (h *SystemHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeFailure(w, http.StatusMethodNotAllowed, fmt.Sprintf("Method %s not allowed on %s", r.Method, r.URL.Path))
}
