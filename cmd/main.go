package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/wapmorty/draftcoach/internal/adapters/http/api"
	"github.com/wapmorty/draftcoach/internal/adapters/lcu"
	"github.com/wapmorty/draftcoach/internal/adapters/stats"
	"github.com/wapmorty/draftcoach/internal/adapters/statscache"
	"github.com/wapmorty/draftcoach/internal/advisor"
	monitor "github.com/wapmorty/draftcoach/internal/app"
	"github.com/wapmorty/draftcoach/internal/config"
	"github.com/wapmorty/draftcoach/internal/domain/scoring"
	"github.com/wapmorty/draftcoach/pkg/logger"
	"github.com/wapmorty/draftcoach/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
	rosterSize                = 5
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			logger.Error(err)
		}
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Open the local statistics database and resolve the configured pool.
	source, err := stats.OpenSQLite(ctx, cfg.DBPath)
	if err != nil {
		log.Error(ctx, "failed to open statistics database", logger.String("path", cfg.DBPath), logger.Error(err))
		return
	}
	defer func() {
		if err := source.Close(); err != nil {
			log.Error(ctx, "failed to close statistics database", logger.Error(err))
		}
	}()

	pool, missing, err := source.CandidateIDs(ctx, cfg.Pool)
	if err != nil {
		log.Error(ctx, "failed to resolve champion pool", logger.Error(err))
		return
	}
	if len(missing) > 0 {
		log.Warn(ctx, "unknown champions in pool; skipping", logger.String("names", strings.Join(missing, ", ")))
	}
	if len(pool) < config.MinPoolSize {
		log.Error(ctx, "champion pool too small after name resolution",
			logger.Int("resolved", len(pool)),
			logger.Int("required", config.MinPoolSize))
		return
	}

	engine := scoring.NewEngine(
		scoring.WithThresholds(cfg.MinPickrate, cfg.MinMatchupGames),
		scoring.WithSynergy(cfg.SynergiesEnabled, cfg.SynergyMultiplier),
		scoring.WithRosterSize(rosterSize),
	)
	cache := statscache.New(source, statscache.WithLogger(log))
	adv := advisor.New(engine, cache, pool,
		advisor.WithCompetitiveThreshold(cfg.MinCompetitiveGames),
		advisor.WithLogger(log),
	)

	// Locate the running game client via its lockfile.
	creds, err := lcu.DiscoverCredentials()
	if err != nil {
		log.Error(ctx, "game client not found; is it running?", logger.Error(err))
		return
	}
	client := lcu.NewClient(creds)
	defer client.Close()
	if err := client.Connect(ctx); err != nil {
		// Not fatal: the poll loop keeps retrying until the client answers.
		log.Warn(ctx, "game client not answering yet", logger.Error(err))
	}

	mon := monitor.New(client, cache, adv, pool,
		monitor.WithPollInterval(time.Duration(cfg.PollIntervalMS)*time.Millisecond),
		monitor.WithAutoDispatch(cfg.AutoDispatch),
		monitor.WithFormat(cfg.MaxBans, rosterSize),
		monitor.WithLogger(log),
	)
	go mon.Run(ctx)

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	apiServer := api.NewServer(mon)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
