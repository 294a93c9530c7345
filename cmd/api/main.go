package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	_ "github.com/cinewave/cinewave-api/docs" // Swagger docs (generated)
	"github.com/cinewave/cinewave-api/internal/auth"
	"github.com/cinewave/cinewave-api/internal/config"
	"github.com/cinewave/cinewave-api/internal/database"
	httpServer "github.com/cinewave/cinewave-api/internal/http"
	"github.com/cinewave/cinewave-api/internal/logging"
	"github.com/cinewave/cinewave-api/internal/media"
	"github.com/cinewave/cinewave-api/internal/ratelimit"
	"github.com/cinewave/cinewave-api/internal/user"
)

// @title           Cinewave API
// @version         1.0
// @description     Catalog API for movies and TV shows with bearer token authentication.

// @contact.name   API Support

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	// Initialize database connection
	db, err := initDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := database.CreateSchema(context.Background(), db); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	// Initialize Redis connection
	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Token codec, public route table and the gate built on them
	codec, err := auth.NewTokenCodec(cfg.Auth.SigningKey, auth.WithTTL(cfg.Auth.AccessTokenTTL))
	if err != nil {
		return fmt.Errorf("failed to initialize token codec: %w", err)
	}
	routes, err := auth.NewRouteClassifier(cfg.Auth.PublicRoutes)
	if err != nil {
		return fmt.Errorf("invalid public routes: %w", err)
	}
	gate, err := auth.NewGate(routes, codec)
	if err != nil {
		return fmt.Errorf("failed to initialize auth gate: %w", err)
	}
	logger.Info("auth gate ready",
		"public_routes", cfg.Auth.PublicRoutes,
		"token_ttl", cfg.Auth.AccessTokenTTL.String(),
	)

	// Initialize repositories and services
	userRepo := user.NewRepository(db)
	mediaRepo := media.NewRepository(db)
	rateLimiter := ratelimit.NewLimiter(redisClient, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)

	authService := auth.NewService(userRepo, codec, logger)
	mediaService := media.NewService(mediaRepo, cfg.Catalog.HeroReleaseYear)

	// Initialize router
	router := httpServer.NewRouter(cfg, httpServer.Handlers{
		Auth:  auth.NewHandler(authService, rateLimiter),
		Media: media.NewHandler(mediaService),
	}, gate, logger)

	// Initialize HTTP server
	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("received signal", "signal", sig.String())

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initDB initializes the database connection and returns a Bun DB instance
func initDB(cfg config.DatabaseConfig) (*bun.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return database.NewBunDB(sqlDB), nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
