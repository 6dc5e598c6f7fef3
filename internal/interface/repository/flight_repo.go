package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flights-api/internal/domain/entity"
	"flights-api/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// DefaultFlightCollection is the collection flights live in unless configured otherwise
const DefaultFlightCollection = "flights"

// MongoFlightRepository implements FlightRepository on a MongoDB collection
type MongoFlightRepository struct {
	collection *mongo.Collection
}

// NewMongoFlightRepository creates a new flight repository.
// Call EnsureIndexes once at startup so the store enforces code uniqueness.
func NewMongoFlightRepository(db *mongo.Database, collectionName string) *MongoFlightRepository {
	if collectionName == "" {
		collectionName = DefaultFlightCollection
	}
	return &MongoFlightRepository{
		collection: db.Collection(collectionName),
	}
}

// EnsureIndexes creates the unique flightCode index and the createdAt sort index
func (r *MongoFlightRepository) EnsureIndexes(ctx context.Context) error {
	codeIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "flightCode", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("flightCode_unique"),
	}

	createdAtIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	}

	if _, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{codeIndex, createdAtIndex}); err != nil {
		return fmt.Errorf("failed to create flight indexes: %w", err)
	}
	return nil
}

// List returns every flight, newest first
func (r *MongoFlightRepository) List(ctx context.Context) ([]*entity.Flight, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query flights: %w", err)
	}
	defer cursor.Close(ctx)

	flights := make([]*entity.Flight, 0)
	if err := cursor.All(ctx, &flights); err != nil {
		return nil, fmt.Errorf("failed to decode flights: %w", err)
	}

	for _, flight := range flights {
		normalizeFlight(flight)
	}
	return flights, nil
}

// FindByCode finds a flight by its code
func (r *MongoFlightRepository) FindByCode(ctx context.Context, flightCode string) (*entity.Flight, error) {
	var flight entity.Flight
	err := r.collection.FindOne(ctx, bson.M{"flightCode": flightCode}).Decode(&flight)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find flight: %w", err)
	}

	normalizeFlight(&flight)
	return &flight, nil
}

// Insert creates a new flight document
func (r *MongoFlightRepository) Insert(ctx context.Context, flight *entity.Flight) error {
	now := storeNow()
	flight.ID = primitive.NewObjectID().Hex()
	flight.CreatedAt = now
	flight.UpdatedAt = now
	normalizeFlight(flight)

	if _, err := r.collection.InsertOne(ctx, flight); err != nil {
		flight.ID = ""
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicateFlightCode
		}
		return fmt.Errorf("failed to insert flight: %w", err)
	}
	return nil
}

// UpdateByCode sets the supplied fields and refreshes updatedAt in one round trip
func (r *MongoFlightRepository) UpdateByCode(ctx context.Context, flightCode string, update entity.FlightUpdate) (*entity.Flight, error) {
	set := bson.M{
		"updatedAt": storeNow(),
	}
	if update.FlightCode != nil {
		set["flightCode"] = *update.FlightCode
	}
	if update.Passengers != nil {
		passengers := *update.Passengers
		if passengers == nil {
			passengers = []entity.Passenger{}
		}
		set["passengers"] = passengers
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var flight entity.Flight
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"flightCode": flightCode},
		bson.M{"$set": set},
		opts,
	).Decode(&flight)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, repository.ErrFlightNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, repository.ErrDuplicateFlightCode
		}
		return nil, fmt.Errorf("failed to update flight: %w", err)
	}

	normalizeFlight(&flight)
	return &flight, nil
}

// DeleteByCode removes a flight and its embedded passengers atomically
func (r *MongoFlightRepository) DeleteByCode(ctx context.Context, flightCode string) (*entity.Flight, error) {
	var flight entity.Flight
	err := r.collection.FindOneAndDelete(ctx, bson.M{"flightCode": flightCode}).Decode(&flight)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrFlightNotFound
		}
		return nil, fmt.Errorf("failed to delete flight: %w", err)
	}

	normalizeFlight(&flight)
	return &flight, nil
}

// Ping checks the primary is reachable
func (r *MongoFlightRepository) Ping(ctx context.Context) error {
	return r.collection.Database().Client().Ping(ctx, readpref.Primary())
}

// storeNow returns the current time at the millisecond precision MongoDB keeps
func storeNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func normalizeFlight(flight *entity.Flight) {
	if flight.Passengers == nil {
		flight.Passengers = []entity.Passenger{}
	}
}
