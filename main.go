// Package main provides the entry point for the listing price history service
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/amirphl/listing-price-history/app/handlers"
	"github.com/amirphl/listing-price-history/app/middleware"
	"github.com/amirphl/listing-price-history/app/router"
	"github.com/amirphl/listing-price-history/app/services"
	businessflow "github.com/amirphl/listing-price-history/business_flow"
	"github.com/amirphl/listing-price-history/config"
	"github.com/amirphl/listing-price-history/repository"
	"github.com/amirphl/listing-price-history/utils"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Application represents the main application structure
type Application struct {
	router    router.Router
	config    *config.ProductionConfig
	stopFuncs []func()
}

func main() {
	issueToken := flag.String("issue-token", "", "print an access token for the given user id and exit")
	flag.Parse()

	cfg, err := config.LoadProductionConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	closer := utils.SetupLogger(utils.LoggerOptions{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePath:   cfg.Logging.FilePath,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
		WithCaller: cfg.Logging.EnableCaller,
	})
	defer closer.Close()

	if *issueToken != "" {
		if err := printAccessToken(cfg.JWT, *issueToken); err != nil {
			log.Fatal().Err(err).Msg("Failed to issue access token")
		}
		return
	}

	log.Info().
		Str("environment", cfg.Deployment.Environment).
		Str("version", cfg.Deployment.Version).
		Msg("Starting listing price history service")

	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}

	app.router.SetupRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := app.router.Start(address); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-sigChan
	log.Info().Msg("Shutting down gracefully")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.router.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during shutdown")
	}

	for _, fn := range app.stopFuncs {
		fn()
	}

	log.Info().Msg("Server stopped")
}

// printAccessToken writes a signed access token to stdout so operators can call the API
func printAccessToken(cfg config.JWTConfig, rawUserID string) error {
	userID, err := strconv.ParseUint(rawUserID, 10, 64)
	if err != nil || userID == 0 {
		return fmt.Errorf("invalid user id %q", rawUserID)
	}

	tokenService, err := services.NewTokenService(cfg.AccessTokenTTL, cfg.Issuer, cfg.Audience, cfg.SecretKey)
	if err != nil {
		return err
	}

	token, err := tokenService.GenerateAccessToken(uint(userID))
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig, logLevel string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	level := gormlogger.Warn
	if logLevel == "debug" {
		level = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.New(&log.Logger, gormlogger.Config{
			SlowThreshold:             cfg.SlowQueryTime,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: utils.UTCNow,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().
		Int("max_open_conns", cfg.MaxOpenConns).
		Int("max_idle_conns", cfg.MaxIdleConns).
		Msg("Database connection established")

	return db, nil
}

// initializeCache initializes the Redis client and verifies connectivity.
// It returns nil when the cache is disabled or backed by memory.
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled || cfg.Provider != "redis" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info().Int("db", cfg.RedisDB).Msg("Redis connection established")
	return rc, nil
}

// startCacheHealthMonitor periodically pings Redis until the returned function is called
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(monitorCtx, 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Warn().Err(err).Msg("Redis healthcheck failed")
				}
				c()
			}
		}
	}()

	return cancel
}

// newAnalyticsBackend picks where computed analyses are cached
func newAnalyticsBackend(cfg config.CacheConfig, rc *redis.Client) businessflow.CacheBackend {
	if rc != nil {
		return businessflow.NewRedisCacheBackend(rc)
	}
	if !cfg.Enabled {
		log.Info().Msg("Analytics cache disabled in config, using process-local cache")
	}
	return businessflow.NewMemoryCacheBackend()
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	db, err := initializeDatabase(cfg.Database, cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	stopFuncs = append(stopFuncs, func() { _ = sqlDB.Close() })

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}

	healthChecks := map[string]router.HealthCheck{
		"database": sqlDB.PingContext,
	}
	if rc != nil {
		stopFuncs = append(stopFuncs, startCacheHealthMonitor(context.Background(), rc, cfg.Cache.HealthCheckInterval))
		stopFuncs = append(stopFuncs, func() { _ = rc.Close() })
		healthChecks["cache"] = func(ctx context.Context) error {
			return rc.Ping(ctx).Err()
		}
	}

	// Repositories
	listingRepo := repository.NewListingRepository(db)
	intervalRepo := repository.NewPriceIntervalRepository(db)
	auditRepo := repository.NewPriceHistoryAuditLogRepository(db)
	txManager := repository.NewTxManager(db)

	analyticsCache := businessflow.NewAnalyticsCache(
		newAnalyticsBackend(cfg.Cache, rc),
		cfg.Cache.RedisPrefix,
		cfg.PriceHistory.AnalyticsTTL,
	)

	priceHistoryFlow := businessflow.NewPriceHistoryFlow(
		listingRepo,
		intervalRepo,
		auditRepo,
		txManager,
		businessflow.NewCurrentPriceProjector(listingRepo),
		analyticsCache,
		cfg.PriceHistory,
	)

	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	log.Info().Str("issuer", cfg.JWT.Issuer).Str("audience", cfg.JWT.Audience).Msg("Token service initialized")

	priceHistoryHandler := handlers.NewPriceHistoryHandler(priceHistoryFlow, cfg.Server.RequestTimeout)
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	appRouter := router.NewFiberRouter(cfg, priceHistoryHandler, authMiddleware, healthChecks)

	return &Application{
		router:    appRouter,
		config:    cfg,
		stopFuncs: stopFuncs,
	}, nil
}
