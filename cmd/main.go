package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/leadscore/internal/adapters/crm/pipedrive"
	"github.com/okian/leadscore/internal/adapters/http/api"
	"github.com/okian/leadscore/internal/adapters/http/swagger"
	service "github.com/okian/leadscore/internal/app"
	"github.com/okian/leadscore/internal/config"
	"github.com/okian/leadscore/internal/domain/schema"
	"github.com/okian/leadscore/internal/domain/scoring"
	"github.com/okian/leadscore/pkg/logger"
	"github.com/okian/leadscore/pkg/metrics"

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
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	os.Exit(run())
}

// run carries the whole startup and shutdown sequence and reports the
// process exit code, so startup failures abort visibly to orchestrators.
func run() int {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize logging
	if err := logger.Init(); err != nil {
		// Logger isn't available yet, write directly to stderr
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Load the model artifacts before accepting any traffic.
	registry, err := schema.Load(ctx, cfg.ColumnsPath)
	if err != nil {
		os.Stderr.WriteString("failed to load model columns: " + err.Error() + "\n")
		return 1
	}
	model, err := scoring.LoadModel(ctx, cfg.ModelPath, registry)
	if err != nil {
		os.Stderr.WriteString("failed to load model: " + err.Error() + "\n")
		return 1
	}
	loggerInstance.Info(ctx, "model artifacts loaded",
		logger.Int("feature_columns", registry.Len()),
		logger.Int("schema_version", registry.Version()),
	)

	opts := []service.Option{
		service.WithLogger(loggerInstance),
		service.WithRegistry(registry),
		service.WithScorer(model),
		service.WithThresholds(scoring.Thresholds{High: cfg.ThresholdHigh, Medium: cfg.ThresholdMedium}),
		service.WithTargetPipeline(cfg.TargetPipelineID),
		service.WithQueueSize(cfg.WritebackQueueSize),
		service.WithWorkerCount(cfg.WritebackWorkers),
		service.WithDedupeSize(cfg.DedupeSize),
	}

	// Without CRM credentials the service still scores, it just cannot
	// write scores back.
	if cfg.PipedriveAPIKey != "" && cfg.LeadScoreFieldKey != "" {
		client := pipedrive.NewClient(cfg.PipedriveAPIKey, cfg.LeadScoreFieldKey,
			pipedrive.WithBaseURL(cfg.PipedriveBaseURL),
			pipedrive.WithTimeout(time.Duration(cfg.WritebackTimeoutMS)*time.Millisecond),
		)
		opts = append(opts, service.WithUpdater(client))
	}

	svc := service.New(opts...)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return 1
	}
	defer svc.Stop()

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	// Start service metrics updater
	go startServiceMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// Register API docs under /api-docs
	swagger.Register(ctx, mux)

	// Register business API routes with the service dependency.
	apiServer := api.NewServer(svc, svc, api.BasicAuth{
		User:     cfg.WebhookUser,
		Password: cfg.WebhookPassword,
	})
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
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
	return 0
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

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
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
		// Average pause over the process lifetime is enough resolution here
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics updates service-level metrics.
func updateServiceMetrics(svc *service.Service) {
	stats := svc.GetStats()

	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}

	if workerCount, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workerCount)
	}
}
