package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"flights-api/internal/domain/entity"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix        = "flight:"
	versionKeyPrefix = "flightver:"

	// versionTTL outlives any in-flight read so an expired counter can not match a stale version
	versionTTL = 24 * time.Hour
)

// RedisCache stores flights as JSON under flight:<code>
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisCache{
		client: client,
		ttl:    cfg.TTL,
	}, nil
}

func (c *RedisCache) Get(ctx context.Context, flightCode string) (*entity.Flight, bool) {
	data, err := c.client.Get(ctx, Key(flightCode)).Bytes()
	if err != nil {
		return nil, false
	}

	var flight entity.Flight
	if err := json.Unmarshal(data, &flight); err != nil {
		return nil, false
	}

	return &flight, true
}

// Version returns the invalidation counter of flightCode, 0 when it was never written
func (c *RedisCache) Version(ctx context.Context, flightCode string) (int64, error) {
	version, err := c.client.Get(ctx, VersionKey(flightCode)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return version, err
}

// SetIfVersion stores flight only while its version counter still equals version.
// A concurrent Invalidate aborts the transaction and the fill is skipped.
func (c *RedisCache) SetIfVersion(ctx context.Context, flight *entity.Flight, version int64) error {
	data, err := json.Marshal(flight)
	if err != nil {
		return err
	}

	versionKey := VersionKey(flight.FlightCode)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Int64()
		if errors.Is(err, redis.Nil) {
			current = 0
		} else if err != nil {
			return err
		}
		if current != version {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, Key(flight.FlightCode), data, c.ttl)
			return nil
		})
		return err
	}, versionKey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

// Invalidate bumps the version of every code and drops its cached value
func (c *RedisCache) Invalidate(ctx context.Context, flightCodes ...string) error {
	if len(flightCodes) == 0 {
		return nil
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, code := range flightCodes {
			pipe.Incr(ctx, VersionKey(code))
			pipe.Expire(ctx, VersionKey(code), versionTTL)
			pipe.Del(ctx, Key(code))
		}
		return nil
	})
	return err
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) Get(ctx context.Context, flightCode string) (*entity.Flight, bool) {
	return nil, false
}

func (c *NoOpCache) Version(ctx context.Context, flightCode string) (int64, error) {
	return 0, nil
}

func (c *NoOpCache) SetIfVersion(ctx context.Context, flight *entity.Flight, version int64) error {
	return nil
}

func (c *NoOpCache) Invalidate(ctx context.Context, flightCodes ...string) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}

// Key returns the redis key for a flight code
func Key(flightCode string) string {
	return keyPrefix + flightCode
}

// VersionKey returns the redis key of the invalidation counter for a flight code
func VersionKey(flightCode string) string {
	return versionKeyPrefix + flightCode
}
