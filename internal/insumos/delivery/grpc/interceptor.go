package grpc

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	oteltrace "go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tair/insumos/pkg/logger"
)

// Metrics collects per-method call counts and latencies.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	summary  *prometheus.SummaryVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insumos_grpc_requests_total",
				Help: "Total number of gRPC requests",
			},
			[]string{"method", "status_code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "insumos_grpc_request_duration_seconds",
				Help:    "Duration of gRPC requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		summary: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name: "insumos_grpc_request_duration_summary",
				Help: "Summary of gRPC request durations with percentiles",
				Objectives: map[float64]float64{
					0.5:  0.05,
					0.9:  0.01,
					0.99: 0.001,
				},
				MaxAge: 10 * time.Minute,
			},
			[]string{"method"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration, m.summary)
	}
	return m
}

// UnaryInterceptor records metrics for every unary call.
func (m *Metrics) UnaryInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	elapsed := time.Since(start).Seconds()

	m.requests.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
	m.duration.WithLabelValues(info.FullMethod).Observe(elapsed)
	m.summary.WithLabelValues(info.FullMethod).Observe(elapsed)
	return resp, err
}

// LoggingInterceptor logs gRPC requests with structured logging
func LoggingInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	start := time.Now()

	traceID := "no-trace"
	if sc := oteltrace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		traceID = sc.TraceID().String()
	}

	resp, err := handler(ctx, req)
	duration := time.Since(start)

	if err != nil {
		code := status.Code(err)
		event := logger.Warn(ctx)
		if code == codes.Internal || code == codes.Unknown {
			event = logger.Error(ctx)
		}
		event.
			Str("method", info.FullMethod).
			Str("protocol", "grpc").
			Dur("duration", duration).
			Str("trace_id", traceID).
			Str("grpc_status", code.String()).
			Err(err).
			Msg("gRPC request failed")
		return resp, err
	}

	logger.Info(ctx).
		Str("method", info.FullMethod).
		Str("protocol", "grpc").
		Dur("duration", duration).
		Str("trace_id", traceID).
		Msg("gRPC request completed")
	return resp, nil
}

// RecoveryInterceptor turns a handler panic into an Internal status.
func RecoveryInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (resp any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error(ctx).
				Interface("panic", rec).
				Str("method", info.FullMethod).
				Msg("Panic recovered")
			err = status.Error(codes.Internal, "internal server error")
		}
	}()
	return handler(ctx, req)
}
