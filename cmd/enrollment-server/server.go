package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/ehr/enrollment/internal/config"
	"github.com/ehr/enrollment/internal/domain/documents"
	"github.com/ehr/enrollment/internal/domain/enrollment"
	"github.com/ehr/enrollment/internal/domain/identity"
	"github.com/ehr/enrollment/internal/domain/terminology"
	"github.com/ehr/enrollment/internal/platform/auth"
	"github.com/ehr/enrollment/internal/platform/clientstore"
	"github.com/ehr/enrollment/internal/platform/db"
	"github.com/ehr/enrollment/internal/platform/events"
	"github.com/ehr/enrollment/internal/platform/middleware"
	"github.com/ehr/enrollment/internal/platform/telemetry"
	"github.com/ehr/enrollment/migrations"
)

// devLandingSecret signs landing tokens when no secret is configured in
// development.
const devLandingSecret = "development-landing-secret-not-for-production"

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

func runServer(autoMigrate bool) error {
	// Config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Logger
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	pool, err := db.NewPool(ctx, db.PoolConfig{
		URL:             cfg.DatabaseURL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		ApplicationName: "enrollment-server",
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	if autoMigrate {
		n, err := db.NewMigrator(pool, migrations.FS, db.DefaultSchema).Up(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to apply migrations")
		}
		logger.Info().Int("applied", n).Msg("migrations up to date")
	}

	// Client storage
	store, closeStore, err := clientstore.Open(ctx, cfg.RedisURL, cfg.StorageTTL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer closeStore()

	// Events
	var publisher events.Publisher = events.Nop{}
	if cfg.KafkaEnabled() {
		kp, err := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			Acks:    cfg.KafkaAcks,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create kafka publisher")
		}
		publisher = kp
		logger.Info().Str("topic", cfg.KafkaTopic).Msg("publishing enrollment events")
	}
	defer publisher.Close()

	// Telemetry
	metrics := telemetry.NewMetrics()
	tracer := telemetry.NewTracer()

	// Landing tokens
	secret := cfg.LandingTokenSecret
	if secret == "" && cfg.IsDev() {
		secret = devLandingSecret
		logger.Warn().Msg("using development landing token secret")
	}
	landing, err := auth.NewLandingSigner(secret, "enrollment", cfg.LandingURL, cfg.LandingTokenTTL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create landing signer")
	}

	// Domain services
	identitySvc := identity.NewService(
		identity.NewPractitionerRepo(pool),
		identity.NewAccessCodeRepo(pool),
		identity.NewAccountRepo(pool),
		identity.NewLeadRepo(pool),
	)
	documentsSvc := documents.NewService(documents.NewConsentRepo(pool))
	terminologySvc := terminology.NewService(terminology.NewLocationRepoPG(pool))

	deps := enrollment.Deps{
		Backend:  newServiceBackend(identitySvc, documentsSvc, terminologySvc, tracer, metrics),
		Storage:  store,
		Landing:  landing,
		Events:   publisher,
		Observer: metrics,
		Logger:   logger,
		ErrorURL: cfg.ErrorURL,
	}
	sessions := enrollment.NewManager(deps, cfg.SessionTTL)
	go sessions.Run(ctx, time.Minute)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))

	// Health, metrics and landing
	checks := []db.Check{db.PoolCheck(pool)}
	if rs, ok := store.(*clientstore.RedisStore); ok {
		checks = append(checks, db.Check{Name: "redis", Ping: rs.Health})
	}
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/ready", db.HealthHandler(checks...))
	e.GET("/metrics", metrics.Handler())
	e.GET("/landing", landing.Handler())

	// API routes
	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		IdleTTL:           10 * time.Minute,
	}))

	staff := apiV1.Group("/staff")
	if cfg.IsDev() && cfg.StaffJWTSecret == "" {
		staff.Use(auth.DevAuthMiddleware())
	} else {
		staff.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.StaffJWTIssuer,
			SigningKey: []byte(cfg.StaffJWTSecret),
		}))
	}

	identity.NewHandler(identitySvc).RegisterRoutes(apiV1, staff)
	documents.NewHandler(documentsSvc).RegisterRoutes(staff)
	terminology.NewHandler(terminologySvc).RegisterRoutes(apiV1)
	enrollment.NewHandler(sessions, store).RegisterRoutes(apiV1)

	// Start server
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting enrollment server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
