package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/adapters/http/api"
	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/adapters/providers/postgres"
	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/adapters/providers/quality"
	app "github.com/afinewinecompany/afinewinedynasty-sub005/internal/app"
	"github.com/afinewinecompany/afinewinedynasty-sub005/internal/config"
	"github.com/afinewinecompany/afinewinedynasty-sub005/pkg/logger"
	"github.com/afinewinecompany/afinewinedynasty-sub005/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 30 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	// Disable default Go collectors; the service publishes its own
	// system metrics.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	var logOpts []logger.Option
	if cfg.LogJSON {
		logOpts = append(logOpts, logger.WithJSON())
	}
	if err := logger.Init(logOpts...); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Data providers.
	if cfg.PostgresDSN == "" {
		log.Error(ctx, "postgres_dsn is required")
		os.Exit(1)
	}
	db, err := postgres.Open(cfg.PostgresDSN)
	if err != nil {
		log.Error(ctx, "failed to connect to postgres", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	opts := []app.Option{
		app.WithLogger(log),
		app.WithProviders(postgres.NewCatalog(db), postgres.NewRosters(db), postgres.NewEvents(db)),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithWindowDays(cfg.WindowDays),
		app.WithCohortPolicy(cfg.MinCohortSize, cfg.MaxSeasonWiden),
		app.WithMinSamples(cfg.BatterMinPitches, cfg.PitcherMinPitches),
		app.WithSeverityThreshold(cfg.SeverityThreshold),
		app.WithExperienceCeiling(cfg.MaxMLBAtBats, cfg.MaxMLBInnings),
		app.WithFitWeights(cfg.FitWeights),
		app.WithCohortFile(cfg.CohortFile),
	}

	if cfg.QualityURL != "" {
		qopts := []quality.Option{quality.WithRateLimit(cfg.QualityRPS)}
		if cfg.RedisAddr != "" {
			rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
			defer rdb.Close()
			qopts = append(qopts, quality.WithCache(rdb, time.Duration(cfg.QualityCacheTTLSec)*time.Second))
		}
		opts = append(opts, app.WithQualityProvider(quality.New(cfg.QualityURL, qopts...)))
	}

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		os.Exit(1)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	apiServer := api.NewServer(svc, svc, cfg.MaxRankingLimit)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// startSystemMetricsUpdater periodically publishes memory and goroutine
// gauges.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			metrics.UpdateSystemMemoryUsage(m.Alloc)
			metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
		}
	}
}
