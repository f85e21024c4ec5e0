package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/user/catalog-service/internal/adapter/chromedp_fetcher"
	"github.com/user/catalog-service/internal/adapter/postgres"
	redis_adapter "github.com/user/catalog-service/internal/adapter/redis"
	"github.com/user/catalog-service/internal/delivery/http/handler"
	"github.com/user/catalog-service/internal/delivery/http/router"
	"github.com/user/catalog-service/internal/usecase"
	"github.com/user/catalog-service/internal/worker"
	"github.com/user/catalog-service/pkg/config"
	"github.com/user/catalog-service/pkg/logger"
	"github.com/user/catalog-service/pkg/metrics"
)

func main() {
	// --- Configuration ---
	cfg := config.Load()

	// --- Logger ---
	logLevel := slog.LevelInfo
	if cfg.LogLevel == "debug" {
		logLevel = slog.LevelDebug
	}
	logger.Init(os.Stdout, logLevel)
	slog.Info("Logger initialized", "level", logLevel.String())

	// --- Metrics ---
	metrics.Init()
	slog.Info("Metrics initialized")

	// --- Database Connections ---
	ctx := context.Background()

	// PostgreSQL
	pgConnString := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDB)
	dbpool, err := pgxpool.New(ctx, pgConnString)
	if err != nil {
		slog.Error("Unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	slog.Info("PostgreSQL connection pool established")

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		slog.Error("Unable to connect to Redis", "error", err)
		os.Exit(1)
	}
	slog.Info("Redis connection established")

	// --- Repositories ---
	jobRepo := postgres.NewJobRepo(dbpool)
	navRepo := postgres.NewNavigationRepo(dbpool)
	catRepo := postgres.NewCategoryRepo(dbpool)
	prodRepo := postgres.NewProductRepo(dbpool)
	historyRepo := postgres.NewHistoryRepo(dbpool)
	queueRepo := redis_adapter.NewQueueRepo(rdb)
	fetcher := chromedp_fetcher.NewChromedpFetcher(cfg.UserAgent, cfg.CourtesyDelay)

	// --- Use Cases ---
	reconciler, err := usecase.NewReconciler(navRepo, catRepo, prodRepo, cfg.ScrapeBaseURL)
	if err != nil {
		slog.Error("Invalid reconciler configuration", "error", err)
		os.Exit(1)
	}
	scraper := usecase.NewScraper(jobRepo, navRepo, catRepo, prodRepo, fetcher, reconciler, cfg.FetchTimeout)
	dispatcher := usecase.NewDispatcher(jobRepo, queueRepo)
	browser := usecase.NewCatalogBrowser(navRepo, catRepo, prodRepo, historyRepo)

	// Crash recovery: unfinished jobs re-enter the pipeline from the top.
	if resumed, err := dispatcher.ResumePending(ctx); err != nil {
		slog.Error("Failed to resume unfinished jobs", "error", err)
	} else if resumed > 0 {
		slog.Info("Re-enqueued unfinished jobs", "count", resumed)
	}

	// --- Worker Pool ---
	pool := worker.NewPool(queueRepo, scraper, worker.Options{
		Workers:         cfg.WorkerCount,
		RateLimitPerSec: cfg.RateLimitPerSec,
		MaxAttempts:     cfg.MaxAttempts,
		RetryBaseDelay:  cfg.RetryBaseDelay,
		PollInterval:    cfg.QueuePollInterval,
	})
	pool.Start()

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(dispatcher, browser, cfg.ScrapeBaseURL)
	httpRouter := router.New(apiHandler)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      httpRouter,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Could not listen on port", "port", cfg.ServerPort, "error", err)
			os.Exit(1)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down...")
	pool.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	slog.Info("Server exiting")
}
