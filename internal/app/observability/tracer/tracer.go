package tracer

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

// InitOtelProviders installs the global trace and meter providers, accepts
// W3C trace context from callers and serves /metrics on metricsAddr.
func InitOtelProviders(serviceName, metricsAddr, otlpEndpoint string, logger *zap.Logger) (func(context.Context) error, error) {
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion("1.0.0"),
	)

	tp := newTracerProvider(res, otlpEndpoint, logger)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	mp, err := newMeterProvider(res)
	if err != nil {
		_ = tp.Shutdown(context.Background())
		return nil, err
	}
	otel.SetMeterProvider(mp)

	metricsServer := serveMetrics(metricsAddr, logger)

	return func(ctx context.Context) error {
		return errors.Join(
			wrapShutdown("metrics server", metricsServer.Shutdown(ctx)),
			wrapShutdown("meter provider", mp.Shutdown(ctx)),
			wrapShutdown("tracer provider", tp.Shutdown(ctx)),
		)
	}, nil
}

// newTracerProvider exports over OTLP/HTTP. Without an exporter spans are
// still recorded and dropped.
func newTracerProvider(res *resource.Resource, endpoint string, logger *zap.Logger) *sdktrace.TracerProvider {
	exporter, err := otlptracehttp.New(context.Background(),
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		logger.Warn("OTLP trace exporter unavailable, spans will be dropped", zap.Error(err))
		return sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	}
	logger.Info("Exporting traces over OTLP", zap.String("endpoint", endpoint))
	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)
}

func newMeterProvider(res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	), nil
}

func serveMetrics(addr string, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Info("Serving Prometheus metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server stopped", zap.Error(err))
		}
	}()
	return srv
}

func wrapShutdown(component string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s shutdown: %w", component, err)
}
