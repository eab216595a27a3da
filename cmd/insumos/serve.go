package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	_ "github.com/tair/insumos/docs"
	"github.com/tair/insumos/internal/insumos"
	inventorycache "github.com/tair/insumos/internal/insumos/cache"
	grpcDelivery "github.com/tair/insumos/internal/insumos/delivery/grpc"
	httpDelivery "github.com/tair/insumos/internal/insumos/delivery/http"
	"github.com/tair/insumos/internal/insumos/domain"
	"github.com/tair/insumos/internal/insumos/report"
	"github.com/tair/insumos/kafka"
	"github.com/tair/insumos/pkg/auth"
	"github.com/tair/insumos/pkg/cache"
	"github.com/tair/insumos/pkg/config"
	"github.com/tair/insumos/pkg/logger"
	"github.com/tair/insumos/pkg/tracing"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the gRPC identity service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger.Logger.Info().
		Str("service", cfg.Server.ServiceName).
		Str("environment", cfg.Server.Environment).
		Str("log_level", cfg.Server.LogLevel).
		Str("storage", cfg.Storage.Driver).
		Msg("Starting insumos service")

	tp, err := tracing.InitTracer(tracing.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    cfg.Server.ServiceName,
		ServiceVersion: version,
		JaegerEndpoint: cfg.Tracing.JaegerEndpoint,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tracing.Shutdown(shutdownCtx, tp); err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
		}
	}()

	redisClient, err := cache.NewRedisClient(ctx, cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	store, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.close()

	var publisher domain.EventPublisher = domain.NopPublisher{}
	if cfg.Kafka.Enabled() {
		p, err := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer p.Close()
		publisher = p
	}

	var pdf httpDelivery.DocumentRenderer
	if cfg.Report.PDFEnabled {
		pdf = report.NewPDFRenderer(cfg.Report.ChromeBin, cfg.Report.ImageBaseURL, cfg.Report.PDFTimeout)
	}

	app, err := insumos.InitializeApp(
		store.store,
		domain.SystemClock{},
		auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL),
		publisher,
		inventorycache.NewInventoryCache(redisClient, cfg.Redis.InventoryCacheTTL),
		store.source,
		pdf,
		httpDelivery.NewRateLimiter(redisClient, "login", cfg.Redis.LoginRateLimit, cfg.Redis.LoginRateLimitSpan, cfg.Server.TrustedProxies),
		prometheus.DefaultRegisterer,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	router := mux.NewRouter()
	middleware := httpDelivery.DefaultMiddlewareConfig(cfg.Server.RequestTimeout)
	httpDelivery.RegisterMiddlewares(router, middleware)
	app.HTTP.RegisterRoutes(router)
	httpDelivery.RegisterHealthCheck(router, healthChecks(store, redisClient))
	httpDelivery.RegisterMetrics(router, prometheus.DefaultGatherer)
	httpDelivery.RegisterSwaggerDocs(router)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.HTTPPort,
		Handler:           httpDelivery.CORS(middleware, router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lis, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
	if err != nil {
		return fmt.Errorf("failed to listen on grpc port %s: %w", cfg.Server.GRPCPort, err)
	}
	grpcServer := grpcDelivery.NewServer(app.Identity, app.GRPCMetrics)

	errCh := make(chan error, 2)
	go func() {
		logger.Logger.Info().
			Str("port", cfg.Server.HTTPPort).
			Str("metrics_endpoint", "/metrics").
			Str("swagger", "/swagger/index.html").
			Msg("HTTP server started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		logger.Logger.Info().Str("port", cfg.Server.GRPCPort).Msg("gRPC server started")
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Logger.Info().Msg("Shutting down server...")
	case err = <-errCh:
		logger.Logger.Error().Err(err).Msg("Server stopped unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := httpServer.Shutdown(shutdownCtx); serr != nil {
		logger.Logger.Error().Err(serr).Msg("HTTP server forced to shutdown")
	}
	grpcServer.GracefulStop()

	logger.Logger.Info().Msg("Server exited")
	return err
}

func healthChecks(store *backend, redisClient *redis.Client) map[string]httpDelivery.HealthCheck {
	checks := map[string]httpDelivery.HealthCheck{
		"database": store.ping,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return checks
}
