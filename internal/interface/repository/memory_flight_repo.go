package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"flights-api/internal/domain/entity"
	"flights-api/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryFlightRepository keeps flights in process memory.
// The code index is guarded by the same mutex as the records, so uniqueness holds under concurrent writers.
type MemoryFlightRepository struct {
	mu      sync.RWMutex
	flights map[string]*entity.Flight
	now     func() time.Time
}

// NewMemoryFlightRepository creates an empty in-memory repository
func NewMemoryFlightRepository() *MemoryFlightRepository {
	return &MemoryFlightRepository{
		flights: make(map[string]*entity.Flight),
		now:     time.Now,
	}
}

// List returns copies of every flight, newest first
func (r *MemoryFlightRepository) List(ctx context.Context) ([]*entity.Flight, error) {
	r.mu.RLock()
	flights := make([]*entity.Flight, 0, len(r.flights))
	for _, flight := range r.flights {
		flights = append(flights, cloneFlight(flight))
	}
	r.mu.RUnlock()

	sort.SliceStable(flights, func(i, j int) bool {
		if flights[i].CreatedAt.Equal(flights[j].CreatedAt) {
			return flights[i].ID > flights[j].ID
		}
		return flights[i].CreatedAt.After(flights[j].CreatedAt)
	})
	return flights, nil
}

// FindByCode returns nil, nil when the code is unknown
func (r *MemoryFlightRepository) FindByCode(ctx context.Context, flightCode string) (*entity.Flight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	flight, ok := r.flights[flightCode]
	if !ok {
		return nil, nil
	}
	return cloneFlight(flight), nil
}

// Insert stores a copy of flight
func (r *MemoryFlightRepository) Insert(ctx context.Context, flight *entity.Flight) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.flights[flight.FlightCode]; exists {
		return repository.ErrDuplicateFlightCode
	}

	now := r.now().UTC()
	flight.ID = primitive.NewObjectID().Hex()
	flight.CreatedAt = now
	flight.UpdatedAt = now
	flight.Passengers = passengersOrEmpty(flight.Passengers)

	r.flights[flight.FlightCode] = cloneFlight(flight)
	return nil
}

// UpdateByCode applies the supplied fields under the write lock
func (r *MemoryFlightRepository) UpdateByCode(ctx context.Context, flightCode string, update entity.FlightUpdate) (*entity.Flight, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.flights[flightCode]
	if !ok {
		return nil, repository.ErrFlightNotFound
	}

	updated := cloneFlight(current)
	if update.FlightCode != nil && *update.FlightCode != flightCode {
		if _, taken := r.flights[*update.FlightCode]; taken {
			return nil, repository.ErrDuplicateFlightCode
		}
		updated.FlightCode = *update.FlightCode
	}
	if update.Passengers != nil {
		updated.Passengers = clonePassengers(*update.Passengers)
	}
	updated.UpdatedAt = r.now().UTC()

	delete(r.flights, flightCode)
	r.flights[updated.FlightCode] = updated
	return cloneFlight(updated), nil
}

// DeleteByCode removes the flight and returns its prior state
func (r *MemoryFlightRepository) DeleteByCode(ctx context.Context, flightCode string) (*entity.Flight, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	flight, ok := r.flights[flightCode]
	if !ok {
		return nil, repository.ErrFlightNotFound
	}
	delete(r.flights, flightCode)
	return flight, nil
}

// Ping always succeeds
func (r *MemoryFlightRepository) Ping(ctx context.Context) error {
	return nil
}

func cloneFlight(flight *entity.Flight) *entity.Flight {
	clone := *flight
	clone.Passengers = clonePassengers(flight.Passengers)
	return &clone
}

func clonePassengers(passengers []entity.Passenger) []entity.Passenger {
	clone := make([]entity.Passenger, len(passengers))
	copy(clone, passengers)
	return clone
}
