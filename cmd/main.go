package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/cardcognition/internal/adapters/embedder"
	"github.com/okian/cardcognition/internal/adapters/http/api"
	"github.com/okian/cardcognition/internal/adapters/modelstore"
	"github.com/okian/cardcognition/internal/adapters/repository"
	app "github.com/okian/cardcognition/internal/app"
	"github.com/okian/cardcognition/internal/config"
	"github.com/okian/cardcognition/internal/domain/features"
	"github.com/okian/cardcognition/internal/domain/registry"
	"github.com/okian/cardcognition/pkg/logger"
	"github.com/okian/cardcognition/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeoutSlack         = 5 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "server exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	if cfg.LogFormat == "json" {
		if err := logger.Init(logger.WithJSON(true)); err != nil {
			return err
		}
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := repository.NewPostgres(ctx, cfg.DatabaseDSN,
		repository.WithMaxConns(cfg.DatabaseMaxConns),
		repository.WithMinConns(cfg.DatabaseMinConns),
		repository.WithLogger(log.Named("repository")),
	)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	emb, err := embedder.New(ctx, embedder.Settings{
		Provider:            cfg.EmbeddingProvider,
		Dimensions:          cfg.EmbeddingDimensions,
		OllamaEndpoint:      cfg.OllamaEndpoint,
		OllamaModel:         cfg.OllamaModel,
		HTTPTimeout:         cfg.RequestTimeout(),
		GenAIAPIKey:         cfg.GenAIAPIKey,
		GenAIModel:          cfg.GenAIModel,
		GenAITaskType:       cfg.GenAITaskType,
		BreakerTimeout:      cfg.BreakerTimeout(),
		BreakerMinRequests:  cfg.BreakerMinRequests,
		BreakerFailureRatio: cfg.BreakerFailureRatio,
		RateLimit:           cfg.EmbeddingRateLimit,
		RateBurst:           cfg.EmbeddingRateBurst,
	}, embedder.WithBreakerLogger(log.Named("embedder")))
	if err != nil {
		return err
	}

	tax, err := app.LoadOrFitTaxonomy(ctx, cfg.TaxonomyPath, store, log.Named("taxonomy"))
	if err != nil {
		return err
	}

	builder := features.NewBuilder(tax, emb,
		features.WithStatSentinel(cfg.StatSentinel),
		features.WithLogger(log.Named("features")),
	)
	log.Info(ctx, "feature schema", logger.String("schema", builder.Schema().String()))

	artifacts, err := modelstore.Open(ctx, modelstore.Settings{
		Backend:       cfg.ModelStore,
		Dir:           cfg.ModelDir,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		RedisPrefix:   cfg.RedisPrefix,
	})
	if err != nil {
		return err
	}
	if c, ok := artifacts.(io.Closer); ok {
		defer func() { _ = c.Close() }()
	}

	models := registry.New(artifacts, builder.Schema(),
		registry.WithCacheSize(cfg.ModelCacheSize),
		registry.WithLoadTimeout(cfg.RequestTimeout()),
		registry.WithLogger(log.Named("registry")),
	)

	svc := app.New(
		app.WithStore(store),
		app.WithExtractor(builder),
		app.WithModels(models),
		app.WithTaxonomy(tax),
		app.WithWorkerCount(cfg.ExtractionWorkers),
		app.WithMaxCards(cfg.MaxRequestCards),
		app.WithProgressEvery(cfg.ProgressEvery),
		app.WithLogger(log.Named("service")),
	)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop(context.Background())

	go startSystemMetricsUpdater(ctx)

	apiServer := api.NewServer(svc,
		api.WithAllowedOrigins(cfg.CORSAllowedOrigins),
		api.WithRequestTimeout(cfg.RequestTimeout()),
		api.WithMaxCommanderNameLen(cfg.MaxCommanderNameLen),
		api.WithReadiness(store.Ping),
		api.WithLogger(log.Named("http")),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiServer.Router(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      cfg.RequestTimeout() + writeTimeoutSlack,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
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
