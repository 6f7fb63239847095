// Package main provides the entrypoint for the SkyCast API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/skycast/skycast/internal/api"
	"github.com/skycast/skycast/internal/api/handler"
	"github.com/skycast/skycast/internal/api/middleware"
	"github.com/skycast/skycast/internal/auth"
	"github.com/skycast/skycast/internal/config"
	"github.com/skycast/skycast/internal/database"
	"github.com/skycast/skycast/internal/geolocate"
	"github.com/skycast/skycast/internal/location"
	"github.com/skycast/skycast/internal/pipeline"
	"github.com/skycast/skycast/internal/telemetry"
	"github.com/skycast/skycast/internal/weather"
	"github.com/skycast/skycast/internal/weather/openweathermap"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "skycast-api"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting SkyCast API")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.TelemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.TelemetryEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Location store: PostgreSQL in production, in-memory for
	// single-node deployments without a database.
	var repo location.Repository
	var readiness handler.ReadinessChecker
	if cfg.StoreBackend == "postgres" {
		dbConfig := database.ConfigFromEnv()
		pool, err := database.Connect(ctx, dbConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("database connected")
		repo = location.NewPostgresRepository(pool)
		readiness = pool
	} else {
		log.Info().Msg("using in-memory location store")
		repo = location.NewInMemoryRepository()
	}
	store := location.NewService(repo, log)

	if cfg.OWMAPIKey == "" {
		log.Warn().Msg("OWM_API_KEY not set - weather fetches will be rejected upstream")
	}
	source := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:  cfg.OWMAPIKey,
		BaseURL: cfg.OWMBaseURL,
		Logger:  log,
	})
	fetcher := weather.NewFetcher(source, log)

	var device geolocate.DeviceSource
	if cfg.HasDeviceLocation() {
		device = geolocate.NewStaticSource(geolocate.Reading{
			Coord: weather.Coordinate{Lat: cfg.DeviceLat, Lon: cfg.DeviceLon},
			At:    time.Now(),
		})
		log.Info().
			Float64("lat", cfg.DeviceLat).
			Float64("lon", cfg.DeviceLon).
			Msg("static device location configured")
	}
	resolver := geolocate.NewResolver(geolocate.ResolverConfig{
		Device: device,
		Logger: log,
	})

	sessions := pipeline.NewManager(pipeline.Config{
		Fetcher:   fetcher,
		Resolver:  resolver,
		Store:     store,
		Logger:    log,
		NoticeTTL: cfg.NoticeTTL,
	})

	if cfg.JWTSigningKey == "local-dev-signing-key-change-in-production" {
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}
	authService := auth.NewService(auth.Config{
		SigningKey: cfg.JWTSigningKey,
		Issuer:     "https://api.skycast.io",
		Audience:   "skycast-api",
	})

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create request metrics")
	}

	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     metrics,
		AuthService: authService,
		Sessions:    sessions,
		Store:       store,
		Readiness:   readiness,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
