package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/claimscore/internal/adapters/http/api"
	app "github.com/okian/claimscore/internal/app"
	"github.com/okian/claimscore/internal/config"
	"github.com/okian/claimscore/internal/domain/calibration"
	"github.com/okian/claimscore/internal/domain/feature"
	"github.com/okian/claimscore/internal/engine"
	"github.com/okian/claimscore/internal/model"
	"github.com/okian/claimscore/pkg/logger"
	"github.com/okian/claimscore/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout          = 10 * time.Second
	writeTimeout         = 10 * time.Second
	idleTimeout          = 60 * time.Second
	readHeaderTimeout    = 5 * time.Second
	shutdownTimeout      = 30 * time.Second
	modelMetricsInterval = 5 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize logging
	if err := logger.Init(); err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
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

	// The feature schema and calibration parameters are required at
	// startup; the model artifact is not, since the service degrades to
	// dummy predictions until one is deployed.
	schema, err := feature.LoadSchema(cfg.MetadataPath)
	if err != nil {
		log.Error(ctx, "failed to load feature metadata", logger.String("path", cfg.MetadataPath), logger.Error(err))
		return
	}
	log.Info(ctx, "loaded feature schema",
		logger.String("path", cfg.MetadataPath),
		logger.Int("features", schema.Count()),
	)

	calCfg, err := calibration.LoadConfig(cfg.CalibrationPath)
	if err != nil {
		log.Error(ctx, "failed to load calibration config", logger.String("path", cfg.CalibrationPath), logger.Error(err))
		return
	}
	calibrator, err := calCfg.Calibrator()
	if err != nil {
		log.Error(ctx, "invalid calibration config", logger.String("type", calCfg.Type), logger.Error(err))
		return
	}
	log.Info(ctx, "configured calibration", logger.String("type", calCfg.Type))

	cache := model.NewCache(engine.LoadLinear, cfg.ModelPath,
		model.WithTTL(time.Duration(cfg.ModelTTLSeconds)*time.Second),
		model.WithCacheLogger(log.Named("model")),
	)

	svc := app.New(
		feature.NewEncoder(schema, feature.WithLogger(log.Named("encoder"))),
		calibrator,
		cache,
		app.WithLogger(log.Named("service")),
		app.WithMaxBatchSize(cfg.MaxBatchSize),
	)
	defer func() {
		if err := svc.Close(); err != nil {
			log.Error(context.Background(), "service close failed", logger.Error(err))
		}
	}()

	// Start model metrics updater
	go startModelMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	apiServer := api.NewServer(svc)
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

// startModelMetricsUpdater periodically refreshes the model state gauges.
func startModelMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(modelMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := svc.Stats()
			metrics.UpdateModelLoaded(stats.Loaded)
			if stats.Loaded {
				metrics.UpdateModelAge(stats.Age)
			}
		}
	}
}
