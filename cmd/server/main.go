package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flights-api/internal/domain/repository"
	"flights-api/internal/infrastructure/cache"
	"flights-api/internal/infrastructure/config"
	"flights-api/internal/infrastructure/persistence"
	"flights-api/internal/infrastructure/ratelimit"
	"flights-api/internal/interface/httpapi"
	flightRepo "flights-api/internal/interface/repository"
	flightUsecase "flights-api/internal/usecase"
	"flights-api/pkg/logger"
	"flights-api/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger(logger.Options{Level: "info"}).Fatal("Failed to load config", "error", err)
	}

	// Create logger
	log := logger.NewLogger(logger.Options{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	defer log.Sync()
	log.Info("Starting Flights API", "version", cfg.AppVersion, "environment", cfg.AppEnv, "store", cfg.StoreDriver)

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.NewMetrics(cfg.MetricsNamespace, prometheus.DefaultRegisterer)

	// Set up flight store
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open flight store", "driver", cfg.StoreDriver, "error", err)
	}

	// Optional read-through cache
	var flightCache repository.FlightCache = cache.NewNoOpCache()
	if cfg.CacheEnabled {
		redisCache, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.RedisTTL,
		})
		if err != nil {
			log.Warn("Redis unavailable, serving without cache", "error", err)
		} else {
			log.Info("Flight cache enabled", "addr", cfg.RedisHost+":"+cfg.RedisPort, "ttl", cfg.RedisTTL)
			flightCache = redisCache
			store = flightRepo.NewCachedFlightRepository(store, redisCache, log, m)
		}
	}

	flightService := flightUsecase.NewFlightService(store, log)

	var limiter *ratelimit.ClientLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = ratelimit.NewClientLimiter(ratelimit.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			BurstSize:         cfg.RateLimitBurst,
		})
		go limiter.RunJanitor(ctx, time.Minute, 10*time.Minute)
	}

	handlers := &httpapi.Handlers{
		Flights: httpapi.NewFlightHandler(flightService, log, m, cfg.MaxBodyBytes),
		System:  httpapi.NewSystemHandler(flightService, cfg.AppEnv, cfg.AppVersion, log),
	}
	router := httpapi.NewRouter(handlers, httpapi.RouterOptions{
		RequestTimeout: cfg.RequestTimeout,
		AllowedOrigins: cfg.AllowedOrigins,
		Limiter:        limiter,
		Metrics:        m,
		MetricsHandler: promhttp.Handler(),
	}, log)

	server := httpapi.NewServer(httpapi.ServerConfig{
		Port:         cfg.Port,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}, router)

	// Start HTTP server in a goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal", "signal", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	cancel() // Cancel the context to stop background goroutines

	if err := flightCache.Close(); err != nil {
		log.Error("Cache close error", "error", err)
	}

	if err := closeStore(shutdownCtx); err != nil {
		log.Error("Flight store disconnect error", "error", err)
	}

	log.Info("Flights API stopped")
}

// openStore connects the configured flight store and returns it with its close function
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.FlightRepository, func(context.Context) error, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		log.Info("Connecting to MongoDB", "database", cfg.MongoDB)
		client, db, err := persistence.NewMongoClient(ctx, persistence.MongoConfig{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDB,
			Username: cfg.MongoUser,
			Password: cfg.MongoPassword,
		})
		if err != nil {
			return nil, nil, err
		}

		repo := flightRepo.NewMongoFlightRepository(db, cfg.MongoCollection)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		return repo, client.Disconnect, nil

	case config.StorePostgres:
		log.Info("Connecting to PostgreSQL")
		gormDB, err := persistence.NewPostgres(ctx, cfg.PostgresURI)
		if err != nil {
			return nil, nil, err
		}

		repo := flightRepo.NewGormFlightRepository(gormDB)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = persistence.ClosePostgres(gormDB)
			return nil, nil, err
		}
		return repo, func(context.Context) error { return persistence.ClosePostgres(gormDB) }, nil

	case config.StoreMemory:
		log.Warn("Using in-memory flight store, data is lost on restart")
		return flightRepo.NewMemoryFlightRepository(), func(context.Context) error { return nil }, nil
	}

	return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
}
