package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pepoapp/trust-engine/internal/analytics"
	"github.com/pepoapp/trust-engine/internal/badges"
	"github.com/pepoapp/trust-engine/internal/fraud"
	"github.com/pepoapp/trust-engine/internal/scheduler"
	"github.com/pepoapp/trust-engine/internal/signals"
	"github.com/pepoapp/trust-engine/internal/suggestions"
	"github.com/pepoapp/trust-engine/internal/trust"
	"github.com/pepoapp/trust-engine/pkg/common"
	"github.com/pepoapp/trust-engine/pkg/config"
	"github.com/pepoapp/trust-engine/pkg/database"
	"github.com/pepoapp/trust-engine/pkg/logger"
	"github.com/pepoapp/trust-engine/pkg/middleware"
	pepoRedis "github.com/pepoapp/trust-engine/pkg/redis"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load("trust-engine")
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	if err := database.RunMigrations(&cfg.Database); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	pool, err := database.NewPostgresPool(&cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close(pool)

	redisClient, err := pepoRedis.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	// Analytics queue flushes scoring events to Postgres in batches.
	eventSink := analytics.NewRepository(pool)
	eventQueue := analytics.NewQueue(eventSink, analytics.DefaultFlushPolicy(), 0)
	eventQueue.Start()

	// All calculators read platform facts through the retrying signal store.
	store := signals.NewStore(signals.NewRepository(pool), cfg.Engine.SignalFetchRetries)

	trustService := trust.NewService(
		store,
		trust.NewRepository(pool),
		trust.NewRedisCache(redisClient.Client),
		eventQueue,
		cfg.Engine.Trust,
		trust.LevelThresholds(cfg.Engine.Levels),
		time.Duration(cfg.Engine.TrustCacheStalenessMinutes)*time.Minute,
	)
	fraudService := fraud.NewService(
		store,
		fraud.NewRepository(pool),
		eventQueue,
		cfg.Engine.Fraud,
		cfg.Engine.FlagThreshold,
	)
	suggestionService := suggestions.NewService(
		store,
		suggestions.NewRepository(pool),
		eventQueue,
		cfg.Engine.Suggestions,
		cfg.Engine.SuggestionExpiryDays,
	)
	badgeService := badges.NewService(store, badges.NewRepository(pool), eventQueue)

	worker := scheduler.NewWorker(
		store,
		trustService,
		suggestionService,
		badgeService,
		time.Duration(cfg.Engine.BatchIntervalMinutes)*time.Minute,
		cfg.Engine.BatchConcurrency,
		cfg.Engine.SuggestionLimit,
	)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics(cfg.Server.ServiceName))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.Server.CORSOrigins, ",")
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Correlation-ID"}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", common.HealthCheckWithDeps(cfg.Server.ServiceName, version, map[string]common.DepCheck{
		"postgres": {Probe: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Ping(ctx)
		}},
		// Cache loss degrades reads but the database still serves them.
		"redis": {Optional: true, Probe: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Ping(ctx).Err()
		}},
	}))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	jwtSecret := cfg.JWT.Secret
	trust.NewHandler(trustService).RegisterRoutes(router, jwtSecret)
	fraud.NewHandler(fraudService).RegisterRoutes(router, jwtSecret)
	suggestions.NewHandler(suggestionService, cfg.Engine.SuggestionLimit).RegisterRoutes(router, jwtSecret)
	badges.NewHandler(badgeService).RegisterRoutes(router, jwtSecret)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	worker.Start(workerCtx)
	logger.Info("batch worker started",
		zap.Int("interval_minutes", cfg.Engine.BatchIntervalMinutes),
		zap.Int("concurrency", cfg.Engine.BatchConcurrency),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("environment", cfg.Server.Environment),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	stopWorker()
	worker.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}

	// Drain remaining analytics events after traffic stops.
	if err := eventQueue.Stop(ctx); err != nil {
		logger.Error("event queue drain failed", zap.Error(err))
	}

	logger.Info("server exited")
}
