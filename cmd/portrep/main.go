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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ANPalert-art/Port-rep/internal/config"
	"github.com/ANPalert-art/Port-rep/internal/engine"
	"github.com/ANPalert-art/Port-rep/internal/feed"
	"github.com/ANPalert-art/Port-rep/internal/instrumentation"
	"github.com/ANPalert-art/Port-rep/internal/notify"
	"github.com/ANPalert-art/Port-rep/internal/pubcache"
	"github.com/ANPalert-art/Port-rep/internal/report"
	"github.com/ANPalert-art/Port-rep/internal/runner"
	"github.com/ANPalert-art/Port-rep/internal/state"
	"github.com/ANPalert-art/Port-rep/internal/web"
)

func main() {
	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("portrep_starting",
		"mode", cfg.RunMode,
		"ports", cfg.AllowedPorts,
		"feed_url", cfg.FeedURL,
		"state_file", cfg.StateFile,
		"mail_active", cfg.MailActive(),
	)

	// Feed client with bounded retry
	feedClient := feed.NewClient(feed.ClientConfig{
		URL:        cfg.FeedURL,
		Timeout:    cfg.FetchTimeout,
		MaxRetries: uint64(cfg.FetchMaxRetries),
	}, logger)

	// Persistence
	store := state.NewStore(cfg.StateFile, cfg.StateFallbackEnv, logger)
	archive := report.NewArchive(cfg.ArchiveFile, logger)

	// Lifecycle engine
	eng := engine.New(cfg.StaleAfter, logger)

	// Notifier: SMTP when configured, no-op otherwise
	var notifier notify.Notifier
	if cfg.MailActive() {
		mailer, err := notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.EmailUser, cfg.EmailPass, cfg.EmailUser, cfg.EmailTo, logger)
		if err != nil {
			logger.Error("failed to create mailer", "error", err)
			os.Exit(1)
		}
		notifier = mailer
	} else {
		logger.Info("mail_disabled")
		notifier = notify.NopNotifier{Logger: logger}
	}

	// Optional Redis snapshot cache
	var cache *pubcache.Publisher
	if cfg.CacheActive() {
		cache, err = pubcache.New(cfg.RedisURL, cfg.RedisPassword, cfg.CacheTTL, logger)
		if err != nil {
			logger.Error("failed to create snapshot cache", "error", err)
			os.Exit(1)
		}
		defer cache.Close()
		logger.Info("snapshot_cache_initialized")
	}

	metrics := instrumentation.NewMetrics()

	run := runner.New(cfg, feedClient, store, eng, archive, notifier, cache, metrics, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	switch cfg.RunMode {
	case config.ModeMonitor:
		if err := run.Monitor(ctx); err != nil {
			logger.Error("monitor_cycle_aborted", "error", err)
			os.Exit(1)
		}
	case config.ModeReport:
		if err := run.Report(ctx); err != nil {
			logger.Error("report_cycle_aborted", "error", err)
			os.Exit(1)
		}
	case config.ModeDaemon:
		runDaemon(ctx, cancel, cfg, run, cache, logger)
	}

	logger.Info("portrep_stopped")
}

// runDaemon runs the cycle loop alongside the health/metrics HTTP surface
// and blocks until a shutdown signal.
func runDaemon(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, run *runner.Runner, cache *pubcache.Publisher, logger *slog.Logger) {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})
	r.Handle("/metrics", promhttp.Handler())
	if cache != nil {
		r.Get("/summary", web.SummaryHandler(cache, logger))
		r.Get("/report", web.ReportHandler(cache, logger))
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http_server_listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_failed", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := run.Daemon(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errChan <- err
		}
	}()

	select {
	case sig := <-sigChan:
		logger.Info("shutdown_signal_received", "signal", sig.String())
		cancel()
	case err := <-errChan:
		logger.Error("daemon_failed", "error", err)
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http_server_shutdown_failed", "error", err)
	}
}
