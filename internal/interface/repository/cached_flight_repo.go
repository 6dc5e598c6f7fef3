package repository

import (
	"context"

	"flights-api/internal/domain/entity"
	"flights-api/internal/domain/repository"
	"flights-api/pkg/logger"
	"flights-api/pkg/metrics"
)

// CachedFlightRepository serves FindByCode from a cache and invalidates it after every write.
// Only reads fill the cache, and a fill is dropped when a write to the same code landed
// after the read began. Cache failures are logged and never fail the request.
type CachedFlightRepository struct {
	next    repository.FlightRepository
	cache   repository.FlightCache
	logger  logger.Logger
	metrics *metrics.Metrics
}

// NewCachedFlightRepository wraps next with a read-through cache
func NewCachedFlightRepository(next repository.FlightRepository, cache repository.FlightCache, logger logger.Logger, m *metrics.Metrics) *CachedFlightRepository {
	return &CachedFlightRepository{
		next:    next,
		cache:   cache,
		logger:  logger,
		metrics: m,
	}
}

func (r *CachedFlightRepository) List(ctx context.Context) ([]*entity.Flight, error) {
	return r.next.List(ctx)
}

func (r *CachedFlightRepository) FindByCode(ctx context.Context, flightCode string) (*entity.Flight, error) {
	if flight, ok := r.cache.Get(ctx, flightCode); ok {
		r.metrics.ObserveCacheLookup(true)
		return flight, nil
	}
	r.metrics.ObserveCacheLookup(false)

	version, versionErr := r.cache.Version(ctx, flightCode)
	flight, err := r.next.FindByCode(ctx, flightCode)
	if err != nil || flight == nil {
		return flight, err
	}

	if versionErr != nil {
		r.logger.Warn("Failed to read cache version", "flightCode", flightCode, "error", versionErr)
		return flight, nil
	}
	if err := r.cache.SetIfVersion(ctx, flight, version); err != nil {
		r.logger.Warn("Failed to cache flight", "flightCode", flight.FlightCode, "error", err)
	}
	return flight, nil
}

func (r *CachedFlightRepository) Insert(ctx context.Context, flight *entity.Flight) error {
	return r.next.Insert(ctx, flight)
}

func (r *CachedFlightRepository) UpdateByCode(ctx context.Context, flightCode string, update entity.FlightUpdate) (*entity.Flight, error) {
	flight, err := r.next.UpdateByCode(ctx, flightCode, update)
	if err != nil {
		return nil, err
	}

	r.invalidate(ctx, flightCode, flight.FlightCode)
	return flight, nil
}

func (r *CachedFlightRepository) DeleteByCode(ctx context.Context, flightCode string) (*entity.Flight, error) {
	flight, err := r.next.DeleteByCode(ctx, flightCode)
	r.invalidate(ctx, flightCode)
	if err != nil {
		return nil, err
	}
	return flight, nil
}

func (r *CachedFlightRepository) Ping(ctx context.Context) error {
	return r.next.Ping(ctx)
}

func (r *CachedFlightRepository) invalidate(ctx context.Context, flightCodes ...string) {
	if err := r.cache.Invalidate(ctx, flightCodes...); err != nil {
		r.logger.Warn("Failed to invalidate cached flight", "flightCodes", flightCodes, "error", err)
	}
}
