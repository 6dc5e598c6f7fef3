package repository

import (
	"context"
	"errors"

	"flights-api/internal/domain/entity"
)

var (
	// ErrFlightNotFound is returned when no flight has the requested code
	ErrFlightNotFound = errors.New("flight not found")

	// ErrDuplicateFlightCode is returned when a write would give two flights the same code
	ErrDuplicateFlightCode = errors.New("flight code already exists")
)

// FlightRepository defines the interface for flight record storage.
// Implementations must enforce flight code uniqueness themselves and report
// violations as ErrDuplicateFlightCode.
type FlightRepository interface {
	// List returns all flights, most recently created first
	List(ctx context.Context) ([]*entity.Flight, error)

	// FindByCode returns nil, nil when no flight has the code
	FindByCode(ctx context.Context, flightCode string) (*entity.Flight, error)

	// Insert stores a new flight and fills in its ID and timestamps
	Insert(ctx context.Context, flight *entity.Flight) error

	// UpdateByCode applies a partial update and returns the updated flight
	UpdateByCode(ctx context.Context, flightCode string, update entity.FlightUpdate) (*entity.Flight, error)

	// DeleteByCode removes the flight and returns its prior state
	DeleteByCode(ctx context.Context, flightCode string) (*entity.Flight, error)

	// Ping checks that the underlying store is reachable
	Ping(ctx context.Context) error
}
