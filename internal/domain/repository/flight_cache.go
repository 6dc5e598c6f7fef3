package repository

import (
	"context"

	"flights-api/internal/domain/entity"
)

// FlightCache is a lookup cache for flights keyed by flight code.
// Every code carries a version that Invalidate bumps; a fill taken at an older
// version is dropped so a read racing a write can not resurrect stale data.
type FlightCache interface {
	Get(ctx context.Context, flightCode string) (*entity.Flight, bool)
	Version(ctx context.Context, flightCode string) (int64, error)
	SetIfVersion(ctx context.Context, flight *entity.Flight, version int64) error
	Invalidate(ctx context.Context, flightCodes ...string) error
	Close() error
}
