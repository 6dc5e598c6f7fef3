package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"flights-api/internal/domain/entity"
	"flights-api/internal/domain/repository"
	"flights-api/internal/usecase"
	"flights-api/pkg/logger"
	"flights-api/pkg/metrics"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

const (
	msgFlightNotFound   = "Flight not found"
	msgFlightCodeTaken  = "Flight code already exists"
	msgInvalidBody      = "Invalid request body"
	msgBodyTooLarge     = "Request body too large"
	msgFlightCreated    = "Flight created successfully"
	msgFlightUpdated    = "Flight updated successfully"
	msgFlightDeleted    = "Flight deleted successfully"
	defaultMaxBodyBytes = 10 << 20
)

// FlightService is what the flight handlers need from the service layer
type FlightService interface {
	ListFlights(ctx context.Context) ([]*entity.Flight, error)
	GetFlight(ctx context.Context, flightCode string) (*entity.Flight, error)
	CreateFlight(ctx context.Context, req usecase.CreateFlightRequest) (*entity.Flight, error)
	UpdateFlight(ctx context.Context, flightCode string, req usecase.UpdateFlightRequest) (*entity.Flight, error)
	DeleteFlight(ctx context.Context, flightCode string) (*entity.Flight, error)
}

// FlightHandler serves the /api/flights routes
type FlightHandler struct {
	service      FlightService
	logger       logger.Logger
	metrics      *metrics.Metrics
	maxBodyBytes int64
}

// NewFlightHandler creates the flight handlers. A nil metrics disables operation counters.
func NewFlightHandler(service FlightService, logger logger.Logger, m *metrics.Metrics, maxBodyBytes int64) *FlightHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	return &FlightHandler{
		service:      service,
		logger:       logger,
		metrics:      m,
		maxBodyBytes: maxBodyBytes,
	}
}

// ListFlights handles GET /api/flights
func (h *FlightHandler) ListFlights(w http.ResponseWriter, r *http.Request) {
	flights, err := h.service.ListFlights(r.Context())
	if err != nil {
		h.fail(w, r, "list", "Error retrieving flights", err)
		return
	}
	if flights == nil {
		flights = []*entity.Flight{}
	}

	h.metrics.ObserveOperation("list", "ok")
	writeList(w, flights, len(flights))
}

// GetFlight handles GET /api/flights/{flightCode}
func (h *FlightHandler) GetFlight(w http.ResponseWriter, r *http.Request) {
	flight, err := h.service.GetFlight(r.Context(), flightCodeParam(r))
	if err != nil {
		h.fail(w, r, "get", "Error retrieving flight", err)
		return
	}

	h.metrics.ObserveOperation("get", "ok")
	writeSuccess(w, http.StatusOK, flight, "")
}

// CreateFlight handles POST /api/flights
func (h *FlightHandler) CreateFlight(w http.ResponseWriter, r *http.Request) {
	var req usecase.CreateFlightRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		h.badBody(w, r, "create", err)
		return
	}

	flight, err := h.service.CreateFlight(r.Context(), req)
	if err != nil {
		h.fail(w, r, "create", "Error creating flight", err)
		return
	}

	h.metrics.ObserveOperation("create", "ok")
	writeSuccess(w, http.StatusCreated, flight, msgFlightCreated)
}

// UpdateFlight handles PUT /api/flights/{flightCode}
func (h *FlightHandler) UpdateFlight(w http.ResponseWriter, r *http.Request) {
	var req usecase.UpdateFlightRequest
	if err := decodeJSON(w, r, h.maxBodyBytes, &req); err != nil {
		h.badBody(w, r, "update", err)
		return
	}

	flight, err := h.service.UpdateFlight(r.Context(), flightCodeParam(r), req)
	if err != nil {
		h.fail(w, r, "update", "Error updating flight", err)
		return
	}

	h.metrics.ObserveOperation("update", "ok")
	writeSuccess(w, http.StatusOK, flight, msgFlightUpdated)
}

// DeleteFlight handles DELETE /api/flights/{flightCode}
func (h *FlightHandler) DeleteFlight(w http.ResponseWriter, r *http.Request) {
	flight, err := h.service.DeleteFlight(r.Context(), flightCodeParam(r))
	if err != nil {
		h.fail(w, r, "delete", "Error deleting flight", err)
		return
	}

	h.metrics.ObserveOperation("delete", "ok")
	writeSuccess(w, http.StatusOK, flight, msgFlightDeleted)
}

func (h *FlightHandler) badBody(w http.ResponseWriter, r *http.Request, operation string, err error) {
	h.metrics.ObserveOperation(operation, "invalid")
	if errors.Is(err, errBodyTooLarge) {
		writeFailure(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
		return
	}
	h.logger.Debug("Rejected malformed body", "operation", operation, "error", err, "requestId", chimw.GetReqID(r.Context()))
	writeFailure(w, http.StatusBadRequest, msgInvalidBody)
}

// fail maps a service error onto the response envelope
func (h *FlightHandler) fail(w http.ResponseWriter, r *http.Request, operation, faultMessage string, err error) {
	var validationErr *usecase.ValidationError
	switch {
	case errors.Is(err, repository.ErrFlightNotFound):
		h.metrics.ObserveOperation(operation, "not_found")
		writeFailure(w, http.StatusNotFound, msgFlightNotFound)
	case errors.Is(err, repository.ErrDuplicateFlightCode):
		h.metrics.ObserveOperation(operation, "conflict")
		writeFailure(w, http.StatusBadRequest, msgFlightCodeTaken)
	case errors.As(err, &validationErr):
		h.metrics.ObserveOperation(operation, "invalid")
		writeJSON(w, http.StatusBadRequest, envelope{
			Success: false,
			Message: validationErr.Message,
			Errors:  validationErr.Reasons,
		})
	default:
		h.metrics.ObserveOperation(operation, "error")
		h.logger.Error("Flight operation failed",
			"operation", operation,
			"flightCode", flightCodeParam(r),
			"requestId", chimw.GetReqID(r.Context()),
			"error", err)
		writeJSON(w, http.StatusInternalServerError, envelope{
			Success: false,
			Message: faultMessage,
			Error:   diagnostic(err),
		})
	}
}

// diagnostic is the client-facing summary of an internal fault; details stay in the logs
func diagnostic(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(err, context.Canceled):
		return "request canceled"
	default:
		return "internal error"
	}
}

// flightCodeParam returns the decoded path code. chi matches on RawPath when it is set,
// otherwise on the already decoded Path.
func flightCodeParam(r *http.Request) string {
	param := chi.URLParam(r, "flightCode")
	if r.URL.RawPath == "" {
		return param
	}
	if code, err := url.PathUnescape(param); err == nil {
		return code
	}
	return param
}
