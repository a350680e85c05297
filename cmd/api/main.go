// Package main is the entry point for the ad-placement-service API.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ad-placement-service/internal/app/service"
	"ad-placement-service/internal/config"
	"ad-placement-service/internal/domain"
	"ad-placement-service/internal/infra/postgres"
	"ad-placement-service/internal/infra/postgres/migrations"
	rediscache "ad-placement-service/internal/infra/redis"
	"ad-placement-service/internal/job"
	"ad-placement-service/internal/logger"
	"ad-placement-service/internal/transport/httpserver"
	"ad-placement-service/internal/validator"
	"ad-placement-service/pkg/locker"
)

func main() {
	// Load configuration
	cfg, err := config.Load(os.Getenv("APP_CONFIG"))
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(
		logger.Config{
			Level:   cfg.Logger.Level,
			Format:  cfg.Logger.Format,
			Output:  cfg.Logger.Output,
			Service: cfg.App.Name,
			Env:     cfg.App.Env,
		},
		logger.SentryConfig{
			Enabled:     cfg.Sentry.Enabled,
			DSN:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			SampleRate:  cfg.Sentry.SampleRate,
		},
	)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting ad-placement-service",
		zap.String("env", cfg.App.Env),
		zap.Int("port", cfg.App.Port),
	)

	// Connect to database
	db, err := postgres.NewConnection(
		postgres.Config{
			Host:          cfg.Database.Host,
			Port:          cfg.Database.Port,
			Name:          cfg.Database.Name,
			User:          cfg.Database.User,
			Password:      cfg.Database.Password,
			SSLMode:       cfg.Database.SSLMode,
			MaxOpenConns:  cfg.Database.MaxOpenConns,
			MaxIdleConns:  cfg.Database.MaxIdleConns,
			MaxLifetime:   cfg.Database.MaxLifetime,
			LogLevel:      cfg.Database.LogLevel,
			SlowThreshold: cfg.Database.SlowThreshold,
		},
		log.Component("gorm"),
	)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() { _ = postgres.Close(db) }()

	// Run migrations
	if err := migrations.Run(db); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	log.Info("database migrations completed")

	// Create repository
	repo := postgres.NewRepository(db)

	// Connect to Redis
	ctx := context.Background()
	redisClient, err := rediscache.NewClient(ctx, rediscache.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		log.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()
	log.Info("connected to Redis",
		zap.String("host", cfg.Redis.Host),
		zap.Int("port", cfg.Redis.Port),
	)

	// Create cache implementation (optional, based on config)
	var cache domain.Cache
	if cfg.Cache.Enabled {
		cache = rediscache.NewCache(redisClient, log.Component("cache"), cfg.Cache.KeyPrefix)
		log.Info("placement cache enabled",
			zap.Duration("placement_ttl", cfg.Cache.PlacementTTL),
			zap.String("key_prefix", cfg.Cache.KeyPrefix),
		)
	} else {
		log.Info("placement cache disabled")
	}

	interestStore := rediscache.NewInterestStore(redisClient, log.Component("interests"), cfg.Interests.KeyPrefix, cfg.Interests.TTL)

	// Create services
	placementSvc := service.NewPlacementService(repo, cache, cfg.Cache.PlacementTTL, log.Component("placement"))
	interestSvc := service.NewInterestService(interestStore, log.Component("interests"))
	adSvc := service.NewAdService(repo, placementSvc, log.Component("admin"))
	trackingSvc := service.NewTrackingService(repo, service.TrackingConfig{
		Workers:      cfg.Tracking.Workers,
		QueueSize:    cfg.Tracking.QueueSize,
		BatchSize:    cfg.Tracking.BatchSize,
		WriteTimeout: cfg.Tracking.WriteTimeout,
	}, log.Component("tracking"))
	trackingSvc.Start()

	// Create distributed locker
	distLocker := locker.NewRedisLocker(redisClient, log.Component("locker"), cfg.Cache.KeyPrefix)

	// Create validator
	v := validator.New()

	// Create HTTP server
	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Port:         cfg.App.Port,
			BodyLimit:    cfg.App.BodyLimit,
			Debug:        cfg.App.Debug,
			TemplatesDir: cfg.App.TemplatesDir,
			StaticDir:    cfg.App.StaticDir,
			CORSOrigins:  cfg.App.CORSOrigins,
		},
		httpserver.Services{
			Placements: placementSvc,
			Interests:  interestSvc,
			Tracking:   trackingSvc,
			Ads:        adSvc,
		},
		v,
		log.Component("http"),
		func(ctx context.Context) error { return postgres.HealthCheck(ctx, db) },
		func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	)

	// Start expiry scheduler with distributed locking
	scheduler := job.NewExpiryScheduler(
		adSvc,
		job.ExpiryConfig{
			Interval:  cfg.Expiry.Interval,
			Timeout:   cfg.Expiry.Timeout,
			OnStartup: cfg.Expiry.OnStartup,
		},
		log.Component("expiry"),
		distLocker,
	)
	scheduler.Start(cfg.Expiry.OnStartup)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutdown signal received")

		// Stop scheduler
		scheduler.Stop()

		// Shutdown server with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()

		if err := server.App.ShutdownWithContext(ctx); err != nil {
			log.Error("server shutdown error", zap.Error(err))
		}

		// Drain queued tracking events once no new requests arrive
		if err := trackingSvc.Stop(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			log.Error("tracking shutdown error", zap.Error(err))
		}
	}()

	// Start server
	if err := server.Start(cfg.App.Port); err != nil {
		log.Fatal("server error", zap.Error(err))
	}

	select {
	case <-done:
	case <-time.After(cfg.App.ShutdownTimeout + time.Second):
		log.Warn("shutdown did not finish in time")
	}
}
