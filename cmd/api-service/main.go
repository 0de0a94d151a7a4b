package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/cuongbtq/chauffer-be/internal/api/handler"
	"github.com/cuongbtq/chauffer-be/internal/api/router"
	"github.com/cuongbtq/chauffer-be/internal/cache"
	"github.com/cuongbtq/chauffer-be/internal/changefeed"
	"github.com/cuongbtq/chauffer-be/internal/config"
	"github.com/cuongbtq/chauffer-be/internal/lifecycle"
	"github.com/cuongbtq/chauffer-be/internal/payment"
	"github.com/cuongbtq/chauffer-be/internal/payment/stripeclient"
	"github.com/cuongbtq/chauffer-be/internal/profile"
	"github.com/cuongbtq/chauffer-be/internal/realtime"
	"github.com/cuongbtq/chauffer-be/internal/realtime/ws"
	"github.com/cuongbtq/chauffer-be/internal/session"
	"github.com/cuongbtq/chauffer-be/internal/storage"
	"github.com/cuongbtq/chauffer-be/shared/logger"
	"github.com/cuongbtq/chauffer-be/shared/postgresql"
	"github.com/cuongbtq/chauffer-be/shared/rabbitmq"
	"github.com/cuongbtq/chauffer-be/shared/redis"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	// Parse command-line flags
	defaultConfigPath := os.Getenv("API_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/api-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateAPIConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	appLogger.Info("Starting API service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	// Initialize PostgreSQL client
	dbClient, err := initPostgreSQL(&cfg.Database, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbClient.Close()

	appLogger.Info("Database connection established")

	if cfg.Database.AutoMigrate {
		if err := dbClient.Migrate(); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		appLogger.Info("Database migrations applied")
	}

	// Background components live until shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Job store, optionally behind the Redis cache
	var jobStore storage.JobStore = storage.NewJobRepository(dbClient.GetDB(), appLogger.Logger)
	var invalidator cache.Invalidator = cache.Noop{}
	health := map[string]handler.HealthChecker{"postgres": dbClient}

	if cfg.Redis.Enabled {
		redisClient, err := initRedis(ctx, &cfg.Redis, appLogger.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis: %w", err)
		}
		defer redisClient.Close()

		cached := cache.NewStore(jobStore, redisClient.GetClient(), cfg.Redis.KeyPrefix, cfg.Redis.CacheTTL, appLogger.Logger)
		jobStore = cached
		invalidator = cached
		health["redis"] = redisClient

		appLogger.Info("Redis job cache enabled", slog.Duration("ttl", cfg.Redis.CacheTTL))
	}

	paymentStore := storage.NewPaymentAccountRepository(dbClient.GetDB(), appLogger.Logger)
	paymentReader := payment.NewReader(paymentStore)

	lifecycleService := lifecycle.NewService(jobStore, invalidator, paymentReader, lifecycle.Options{
		DemoJobs: cfg.App.DemoJobs,
	}, appLogger.Logger)

	// Change feed
	feed, closeFeed, err := initChangeFeed(ctx, cfg, dbClient, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize change feed: %w", err)
	}
	defer closeFeed()

	hub := ws.NewHub(appLogger.Logger)
	go hub.Run(ctx)

	listener := realtime.NewListener(feed, hub, appLogger.Logger)
	defer listener.Close()

	sessions := session.NewStore(appLogger.Logger)
	sessions.OnTransition(listener.HandleSession)

	if cfg.Redis.Enabled {
		refresher := realtime.NewRefresher(feed, invalidator, appLogger.Logger)
		go func() {
			if err := refresher.Run(ctx); err != nil && ctx.Err() == nil {
				appLogger.Error("Cache refresher stopped", slog.Any("error", err))
			}
		}()
	}

	// Payment processor
	processor := stripeclient.New(stripeclient.Config{
		SecretKey:        cfg.Stripe.SecretKey,
		BreakerTimeout:   cfg.Stripe.BreakerTimeout,
		BreakerInterval:  cfg.Stripe.BreakerInterval,
		BreakerMaxProbes: cfg.Stripe.BreakerMaxProbes,
	}, appLogger.Logger)

	auth := session.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience)

	handlerDeps := &handler.Dependencies{
		Logger:         appLogger.Logger,
		Auth:           auth,
		Sessions:       sessions,
		Lifecycle:      lifecycleService,
		Payments:       paymentReader,
		Onboarder:      payment.NewOnboarder(paymentStore, processor, cfg.Stripe.AccountCountry, cfg.Stripe.DefaultOrigin, appLogger.Logger),
		Portal:         payment.NewPortal(processor, cfg.Stripe.PortalSetupURL, cfg.Stripe.DefaultOrigin, appLogger.Logger),
		Profiles:       profile.NewService(storage.NewProfileRepository(dbClient.GetDB(), appLogger.Logger), appLogger.Logger),
		Notifications:  listener,
		Health:         health,
		AllowedOrigins: cfg.Realtime.AllowedOrigins,
	}

	wsHandler := ws.NewHandler(hub, auth, sessions, listener, cfg.Realtime.AllowedOrigins, ws.Options{
		WriteWait:      cfg.Realtime.WriteWait,
		PongWait:       cfg.Realtime.PongWait,
		MaxMessageSize: cfg.Realtime.MaxMessageSize,
		SendBuffer:     cfg.Realtime.SendBuffer,
	}, appLogger.Logger)

	// Initialize router
	r := initRouter(cfg.App.Environment, handlerDeps, wsHandler.HandleConnection)

	// Create HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	appLogger.Info("Starting HTTP server",
		slog.String("address", addr),
		slog.Duration("read_timeout", cfg.Server.ReadTimeout),
		slog.Duration("write_timeout", cfg.Server.WriteTimeout),
	)

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	appLogger.Info("API service is running",
		slog.String("address", addr),
	)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("Shutting down server...", slog.String("signal", sig.String()))
	case err := <-serverErr:
		appLogger.Error("Server failed", slog.Any("error", err))
		return err
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown",
			slog.Any("error", err),
		)
		return err
	}

	appLogger.Info("Server shutdown complete")
	return nil
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	loggerCfg := &logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	}

	return logger.New(loggerCfg)
}

// initPostgreSQL initializes the PostgreSQL database client
func initPostgreSQL(cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	dbConfig := &postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}

	return postgresql.NewClient(dbConfig, logger)
}

// initRedis initializes the Redis client used by the job cache
func initRedis(ctx context.Context, cfg *config.RedisConfig, logger *slog.Logger) (*redis.Client, error) {
	return redis.NewClient(ctx, &redis.Config{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}, logger)
}

// initRabbitMQ initializes the RabbitMQ client
func initRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	rabbitConfig := &rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		RoutingKey:         cfg.RoutingKey,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
		PublishBackoffMult: cfg.Publish.BackoffMultiplier,
		PrefetchCount:      cfg.Consumer.PrefetchCount,
	}

	return rabbitmq.NewClient(rabbitConfig, logger)
}

// initChangeFeed subscribes to job changes through the relay's exchange, or straight from
// Postgres when no relay runs
func initChangeFeed(ctx context.Context, cfg *config.Config, dbClient *postgresql.Client, logger *slog.Logger) (changefeed.Feed, func(), error) {
	switch strings.ToLower(cfg.Realtime.Source) {
	case config.SourceRabbitMQ:
		rabbitClient, err := initRabbitMQ(&cfg.RabbitMQ, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("RabbitMQ connection established")
		return changefeed.NewAMQPFeed(rabbitClient, cfg.Realtime.SendBuffer, logger), func() { rabbitClient.Close() }, nil

	default:
		broadcaster := changefeed.NewBroadcaster(cfg.Realtime.SendBuffer, logger)
		source := changefeed.NewPGSource(
			dbClient.NewListener(cfg.Realtime.MinReconnectInterval, cfg.Realtime.MaxReconnectInterval),
			cfg.Realtime.Channel,
			logger,
		)
		go func() {
			if err := source.Run(ctx, broadcaster.PublishPayload); err != nil && ctx.Err() == nil {
				logger.Error("Change source stopped", slog.Any("error", err))
			}
		}()
		return broadcaster, func() { source.Close() }, nil
	}
}

// initRouter initializes the Gin router with all routes and middleware
func initRouter(environment string, deps *handler.Dependencies, realtime gin.HandlerFunc) *gin.Engine {
	// Set Gin mode based on environment
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	return router.SetupRouter(deps, realtime)
}
