// cmd/service/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"

	"github-trending-tracker/internal/analyzer"
	"github-trending-tracker/internal/api"
	"github-trending-tracker/internal/collector"
	"github-trending-tracker/internal/config"
	"github-trending-tracker/internal/github"
	"github-trending-tracker/internal/model"
	"github-trending-tracker/internal/notifier"
	"github-trending-tracker/internal/scheduler"
	"github-trending-tracker/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Application startup error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Initialize structured logger
	logLevel := new(slog.LevelVar)
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// 2. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setLogLevel(cfg.LogLevel, logLevel)
	logger.Info("Configuration loaded successfully")

	// 3. Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 4. Initialize database connection and run migrations
	dbpool, err := pgxpool.New(ctx, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbpool.Close()
	logger.Info("Database connection established")

	if err := runMigrations(cfg.DBURL); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	logger.Info("Database migrations applied successfully")

	// 5. Initialize application components
	db := store.NewPostgres(dbpool)
	ghClient := github.NewClient(cfg.GithubToken, logger)
	scraper := collector.NewScraper(cfg.TrendingURL, logger)
	trendingCollector := collector.New(db, scraper, ghClient, logger)
	webhookNotifier := notifier.New(db, logger)
	llmClient := analyzer.NewLLMClient(cfg.AnthropicAPIKey, cfg.AnthropicBaseURL, cfg.AnalysisModel, logger)
	batchAnalyzer := analyzer.New(db, ghClient, llmClient, logger)

	// 6. Register scheduled jobs
	sched := scheduler.New(logger, 10*time.Minute)
	err = sched.AddJob("collect", cfg.CollectSchedule, func(ctx context.Context) error {
		return collectAll(ctx, trendingCollector, webhookNotifier, logger)
	})
	if err != nil {
		return fmt.Errorf("failed to register collect job: %w", err)
	}
	err = sched.AddJob("analyze", cfg.AnalyzeSchedule, func(ctx context.Context) error {
		result := batchAnalyzer.RunBatch(ctx, cfg.AnalyzeLimit)
		logger.Info("Analysis batch finished", "total", result.Total, "success", result.Success, "failed", result.Failed)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to register analyze job: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	// 7. Start the HTTP server
	router := api.NewRouter(db, trendingCollector, batchAnalyzer, webhookNotifier, api.Config{
		CronSecret:    cfg.CronSecret,
		AdminPassword: cfg.AdminPassword,
		AppURL:        cfg.AppURL,
		AnalyzeLimit:  cfg.AnalyzeLimit,
	}, logger)

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		serverErr <- server.ListenAndServe()
	}()

	// 8. Wait for shutdown signal
	select {
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	logger.Info("Shutdown signal received. Exiting.")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

// collectAll runs the pipeline for every period and fans out the daily
// listing. Periods are independent; the job fails only when all of them do.
func collectAll(ctx context.Context, c *collector.Collector, n *notifier.Notifier, logger *slog.Logger) error {
	var succeeded int
	for _, period := range model.AllPeriods {
		result, err := c.Collect(ctx, period)
		if err != nil {
			logger.Error("Collection failed", "period", period, "error", err)
			continue
		}
		succeeded++
		if period == model.PeriodDaily && len(result.Entries) > 0 {
			n.Send(ctx, result.Entries, result.Date)
		}
	}
	if succeeded == 0 {
		return errors.New("collection failed for every period")
	}
	return nil
}

func runMigrations(dbURL string) error {
	m, err := migrate.New("file://migrations", dbURL)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func setLogLevel(level string, v *slog.LevelVar) {
	switch level {
	case "debug":
		v.Set(slog.LevelDebug)
	case "warn":
		v.Set(slog.LevelWarn)
	case "error":
		v.Set(slog.LevelError)
	default:
		v.Set(slog.LevelInfo)
	}
}
