// Package app wires together all dependencies and runs the gateway.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/perkhive/recognition-gateway/internal/client/recognition"
	"github.com/perkhive/recognition-gateway/internal/client/wallet"
	"github.com/perkhive/recognition-gateway/internal/config"
	"github.com/perkhive/recognition-gateway/internal/event"
	"github.com/perkhive/recognition-gateway/internal/guard"
	handler "github.com/perkhive/recognition-gateway/internal/handler/http"
	"github.com/perkhive/recognition-gateway/internal/reconcile"
	"github.com/perkhive/recognition-gateway/internal/repository/postgres"
	"github.com/perkhive/recognition-gateway/internal/service"
	"github.com/perkhive/recognition-gateway/internal/storage/httpstorage"
	"github.com/perkhive/recognition-gateway/migrations"
	"github.com/perkhive/recognition-gateway/pkg/database"
	"github.com/perkhive/recognition-gateway/pkg/health"
	"github.com/perkhive/recognition-gateway/pkg/httpclient"
	pkgkafka "github.com/perkhive/recognition-gateway/pkg/kafka"
	"github.com/perkhive/recognition-gateway/pkg/middleware"
	"github.com/perkhive/recognition-gateway/pkg/tracing"
)

// downstreamTimeout is the per-request timeout for downstream REST calls.
const downstreamTimeout = 10 * time.Second

// App holds the long-lived components of the gateway.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redisClient    *redis.Client
	producer       *pkgkafka.Producer
	reconciler     *reconcile.Worker
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		Enabled:     cfg.OTELEnabled,
		Endpoint:    cfg.OTELEndpoint,
		ServiceName: "recognition-gateway",
		SampleRatio: cfg.OTELSampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// PostgreSQL pool for the credit reconciliation store.
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.Postgres.Host),
		slog.String("database", cfg.Postgres.Database),
	)

	if err := database.RunMigrations(ctx, pool, migrations.FS, migrations.Dir, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Redis for the submission guard.
	redisClient, err := database.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.Redis.Addr))

	// Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// HTTP client with circuit breaker for downstream calls.
	baseClient := httpclient.New(httpclient.Config{
		Timeout:         downstreamTimeout,
		MaxRetries:      3,
		RetryWaitMin:    500 * time.Millisecond,
		RetryWaitMax:    5 * time.Second,
		MaxConnsPerHost: 100,
	})

	cbCfg := httpclient.CircuitBreakerConfig{
		Name:         "gateway-downstream",
		MaxRequests:  cfg.CBMaxRequests,
		Interval:     time.Duration(cfg.CBInterval) * time.Second,
		Timeout:      time.Duration(cfg.CBTimeout) * time.Second,
		FailureRatio: cfg.CBFailureRatio,
		MinRequests:  cfg.CBMinRequests,
	}
	cbClient := httpclient.NewCircuitBreakerClient(baseClient, cbCfg, logger).
		WithFallback(service.CircuitOpenFallback)
	logger.Info("circuit breaker initialized",
		slog.String("name", cbCfg.Name),
		slog.Uint64("max_requests", uint64(cbCfg.MaxRequests)),
		slog.Uint64("min_requests", uint64(cbCfg.MinRequests)),
	)

	// Build the dependency graph.
	recognitionClient := recognition.New(cbClient, cfg.RecognitionServiceURL, downstreamTimeout)
	walletClient := wallet.New(cbClient, cfg.WalletServiceURL, downstreamTimeout)
	// The base client is used for uploads: multipart bodies are not
	// replayable, and a single slow blob upload must not trip the breaker
	// shared by the lightweight REST calls.
	uploader := httpstorage.New(baseClient, cfg.MediaServiceURL, config.StepTimeout(cfg.UploadTimeout))

	submissionGuard := guard.New(redisClient, time.Duration(cfg.GuardTTLSeconds)*time.Second)
	retryRepo := postgres.NewCreditRetryRepository(pool)
	eventProducer := event.NewProducer(producer, logger)

	reviewService := service.NewReviewService(
		recognitionClient,
		walletClient,
		uploader,
		submissionGuard,
		retryRepo,
		eventProducer,
		logger,
		service.StepTimeouts{
			ResolveTimeout: config.StepTimeout(cfg.ResolveTimeout),
			UploadTimeout:  config.StepTimeout(cfg.UploadTimeout),
			CreateTimeout:  config.StepTimeout(cfg.CreateTimeout),
			CreditTimeout:  config.StepTimeout(cfg.CreditTimeout),
		},
	)

	reconciler := reconcile.NewWorker(retryRepo, walletClient, logger, reconcile.Config{
		Interval:  time.Duration(cfg.ReconcileIntervalSeconds) * time.Second,
		BatchSize: cfg.ReconcileBatchSize,
	})

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	// HTTP router.
	router := handler.NewRouter(reviewService, healthHandler, handler.RouterConfig{
		JWTSecret:     cfg.JWTSecret,
		AllowedOrigin: cfg.AllowedOrigin,
		RateLimit: middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitPerSecond,
			Burst:             cfg.RateLimitBurst,
			TTL:               3 * time.Minute,
		},
	}, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       120 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redisClient:    redisClient,
		producer:       producer,
		reconciler:     reconciler,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and the reconciliation worker, blocking until
// the context is canceled.
func (a *App) Run(ctx context.Context) error {
	workerCtx, workerCancel := context.WithCancel(ctx)
	defer workerCancel()
	go a.reconciler.Run(workerCtx)

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka producer
// 4. Redis client
// 5. PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.redisClient.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
