package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"flights-api/internal/domain/entity"
	"flights-api/internal/domain/repository"
	"flights-api/pkg/logger"
)

// FlightService applies validation and flight code uniqueness rules before any write reaches the store.
// Expected outcomes come back as repository.ErrFlightNotFound, repository.ErrDuplicateFlightCode
// or *ValidationError; anything else is a store fault.
type FlightService struct {
	repo      repository.FlightRepository
	validator *FlightValidator
	logger    logger.Logger
}

// NewFlightService creates a new flight service
func NewFlightService(repo repository.FlightRepository, logger logger.Logger) *FlightService {
	return &FlightService{
		repo:      repo,
		validator: NewFlightValidator(),
		logger:    logger,
	}
}

// ListFlights returns all flights, most recently created first
func (s *FlightService) ListFlights(ctx context.Context) ([]*entity.Flight, error) {
	flights, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list flights: %w", err)
	}
	return flights, nil
}

// GetFlight returns the flight with the given code
func (s *FlightService) GetFlight(ctx context.Context, flightCode string) (*entity.Flight, error) {
	flight, err := s.repo.FindByCode(ctx, flightCode)
	if err != nil {
		return nil, fmt.Errorf("failed to get flight: %w", err)
	}
	if flight == nil {
		return nil, repository.ErrFlightNotFound
	}
	return flight, nil
}

// CreateFlight validates and stores a new flight
func (s *FlightService) CreateFlight(ctx context.Context, req CreateFlightRequest) (*entity.Flight, error) {
	req.FlightCode = strings.TrimSpace(req.FlightCode)
	if err := s.validator.ValidateCreate(req); err != nil {
		return nil, err
	}

	// Early exit only; the store's unique constraint is what actually holds the invariant.
	existing, err := s.repo.FindByCode(ctx, req.FlightCode)
	if err != nil {
		return nil, fmt.Errorf("failed to check flight code: %w", err)
	}
	if existing != nil {
		return nil, repository.ErrDuplicateFlightCode
	}

	flight := &entity.Flight{
		FlightCode: req.FlightCode,
		Passengers: toPassengers(req.Passengers),
	}
	if err := s.repo.Insert(ctx, flight); err != nil {
		if errors.Is(err, repository.ErrDuplicateFlightCode) {
			s.logger.Warn("Flight code taken by a concurrent create", "flightCode", req.FlightCode)
			return nil, repository.ErrDuplicateFlightCode
		}
		return nil, fmt.Errorf("failed to create flight: %w", err)
	}

	s.logger.Info("Flight created",
		"flightCode", flight.FlightCode,
		"passengers", len(flight.Passengers))
	return flight, nil
}

// UpdateFlight replaces the supplied fields of an existing flight.
// Passengers, when supplied, replace the whole list.
func (s *FlightService) UpdateFlight(ctx context.Context, flightCode string, req UpdateFlightRequest) (*entity.Flight, error) {
	existing, err := s.repo.FindByCode(ctx, flightCode)
	if err != nil {
		return nil, fmt.Errorf("failed to get flight: %w", err)
	}
	if existing == nil {
		return nil, repository.ErrFlightNotFound
	}

	if req.FlightCode != nil {
		trimmed := strings.TrimSpace(*req.FlightCode)
		req.FlightCode = &trimmed
	}
	if err := s.validator.ValidateUpdate(req); err != nil {
		return nil, err
	}

	var update entity.FlightUpdate
	if req.FlightCode != nil {
		if *req.FlightCode != existing.FlightCode {
			duplicate, err := s.repo.FindByCode(ctx, *req.FlightCode)
			if err != nil {
				return nil, fmt.Errorf("failed to check flight code: %w", err)
			}
			if duplicate != nil {
				return nil, repository.ErrDuplicateFlightCode
			}
		}
		update.FlightCode = req.FlightCode
	}
	if req.Passengers != nil {
		passengers := toPassengers(req.Passengers)
		update.Passengers = &passengers
	}

	updated, err := s.repo.UpdateByCode(ctx, flightCode, update)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateFlightCode):
			s.logger.Warn("Flight code taken by a concurrent write", "flightCode", flightCode)
			return nil, repository.ErrDuplicateFlightCode
		case errors.Is(err, repository.ErrFlightNotFound):
			return nil, repository.ErrFlightNotFound
		}
		return nil, fmt.Errorf("failed to update flight: %w", err)
	}

	s.logger.Info("Flight updated",
		"flightCode", flightCode,
		"newFlightCode", updated.FlightCode,
		"passengersReplaced", update.Passengers != nil)
	return updated, nil
}

// DeleteFlight removes a flight with all its passengers and returns what was deleted
func (s *FlightService) DeleteFlight(ctx context.Context, flightCode string) (*entity.Flight, error) {
	deleted, err := s.repo.DeleteByCode(ctx, flightCode)
	if err != nil {
		if errors.Is(err, repository.ErrFlightNotFound) {
			return nil, repository.ErrFlightNotFound
		}
		return nil, fmt.Errorf("failed to delete flight: %w", err)
	}

	s.logger.Info("Flight deleted", "flightCode", flightCode)
	return deleted, nil
}

// Ping reports whether the flight store is reachable
func (s *FlightService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
