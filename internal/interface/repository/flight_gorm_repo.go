package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flights-api/internal/domain/entity"
	"flights-api/internal/domain/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// pgUniqueViolation is the SQLSTATE for unique_violation
const pgUniqueViolation = "23505"

// GormFlightRepository implements FlightRepository on PostgreSQL
type GormFlightRepository struct {
	db *gorm.DB
}

// NewGormFlightRepository creates a new GORM flight repository
func NewGormFlightRepository(db *gorm.DB) *GormFlightRepository {
	return &GormFlightRepository{
		db: db,
	}
}

// Flights GORM model for database mapping
type Flights struct {
	ID         string             `gorm:"column:id;primaryKey;size:24"`
	FlightCode string             `gorm:"column:flight_code;not null;uniqueIndex:idx_flights_flight_code"`
	Passengers []entity.Passenger `gorm:"column:passengers;type:jsonb;serializer:json;not null"`
	CreatedAt  time.Time          `gorm:"column:created_at;index:idx_flights_created_at,sort:desc"`
	UpdatedAt  time.Time          `gorm:"column:updated_at"`
}

// TableName overrides the default table name
func (Flights) TableName() string {
	return "flights"
}

// EnsureSchema creates the flights table and its unique index if missing
func (r *GormFlightRepository) EnsureSchema(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&Flights{}); err != nil {
		return fmt.Errorf("failed to migrate flights table: %w", err)
	}
	return nil
}

// List returns every flight, newest first
func (r *GormFlightRepository) List(ctx context.Context) ([]*entity.Flight, error) {
	var rows []Flights
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query flights: %w", err)
	}

	flights := make([]*entity.Flight, 0, len(rows))
	for i := range rows {
		flights = append(flights, rows[i].toEntity())
	}
	return flights, nil
}

// FindByCode finds a flight by its code
func (r *GormFlightRepository) FindByCode(ctx context.Context, flightCode string) (*entity.Flight, error) {
	var row Flights
	err := r.db.WithContext(ctx).Where("flight_code = ?", flightCode).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find flight: %w", err)
	}
	return row.toEntity(), nil
}

// Insert creates a new flight row
func (r *GormFlightRepository) Insert(ctx context.Context, flight *entity.Flight) error {
	now := time.Now().UTC().Truncate(time.Microsecond)
	row := Flights{
		ID:         primitive.NewObjectID().Hex(),
		FlightCode: flight.FlightCode,
		Passengers: passengersOrEmpty(flight.Passengers),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateFlightCode
		}
		return fmt.Errorf("failed to insert flight: %w", err)
	}

	*flight = *row.toEntity()
	return nil
}

// UpdateByCode locks the row, applies the supplied fields and saves it
func (r *GormFlightRepository) UpdateByCode(ctx context.Context, flightCode string, update entity.FlightUpdate) (*entity.Flight, error) {
	var row Flights
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("flight_code = ?", flightCode).
			First(&row).Error
		if err != nil {
			return err
		}

		if update.FlightCode != nil {
			row.FlightCode = *update.FlightCode
		}
		if update.Passengers != nil {
			row.Passengers = passengersOrEmpty(*update.Passengers)
		}
		row.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

		return tx.Save(&row).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, repository.ErrFlightNotFound
		case isUniqueViolation(err):
			return nil, repository.ErrDuplicateFlightCode
		}
		return nil, fmt.Errorf("failed to update flight: %w", err)
	}

	return row.toEntity(), nil
}

// DeleteByCode removes the row and returns what it held
func (r *GormFlightRepository) DeleteByCode(ctx context.Context, flightCode string) (*entity.Flight, error) {
	var row Flights
	result := r.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("flight_code = ?", flightCode).
		Delete(&row)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to delete flight: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, repository.ErrFlightNotFound
	}
	return row.toEntity(), nil
}

// Ping checks the database connection
func (r *GormFlightRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Convert GORM model to domain entity
func (row *Flights) toEntity() *entity.Flight {
	return &entity.Flight{
		ID:         row.ID,
		FlightCode: row.FlightCode,
		Passengers: passengersOrEmpty(row.Passengers),
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func passengersOrEmpty(passengers []entity.Passenger) []entity.Passenger {
	if passengers == nil {
		return []entity.Passenger{}
	}
	return passengers
}
