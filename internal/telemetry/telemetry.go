// Package telemetry wires optional OpenTelemetry trace, metric and log
// providers to one OTLP gRPC collector connection.
//
// When Setup is never called the global providers stay no-ops.
package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

// DefaultServiceName is reported when Config.ServiceName is empty.
const DefaultServiceName = "docsync"

// Config mirrors the telemetry block of the service config.
type Config struct {
	// OTLPEndpoint is the collector host:port. Empty disables telemetry.
	OTLPEndpoint string
	Insecure     bool
	ServiceName  string
	Headers      map[string]string
}

// Enabled reports whether an endpoint is configured.
func (c Config) Enabled() bool { return c.OTLPEndpoint != "" }

// ShutdownFunc flushes and closes the providers.
type ShutdownFunc func(context.Context) error

// Setup installs global providers exporting to cfg.OTLPEndpoint.
// The returned func is never nil, so callers may defer it unconditionally.
func Setup(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	if !cfg.Enabled() {
		return noopShutdown, nil
	}
	svcName := cfg.ServiceName
	if svcName == "" {
		svcName = DefaultServiceName
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(semconv.ServiceName(svcName)))
	if err != nil {
		return noopShutdown, fmt.Errorf("build resource: %w", err)
	}

	creds := credentials.NewTLS(nil)
	if cfg.Insecure {
		creds = insecure.NewCredentials()
	}
	conn, err := grpc.NewClient(cfg.OTLPEndpoint, grpc.WithTransportCredentials(creds))
	if err != nil {
		return noopShutdown, fmt.Errorf("dial collector %q: %w", cfg.OTLPEndpoint, err)
	}

	traceExp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithGRPCConn(conn),
		otlptracegrpc.WithHeaders(cfg.Headers),
	)
	if err != nil {
		_ = conn.Close()
		return noopShutdown, fmt.Errorf("trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(traceExp), sdktrace.WithResource(res))

	metricExp, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithGRPCConn(conn),
		otlpmetricgrpc.WithHeaders(cfg.Headers),
	)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = conn.Close()
		return noopShutdown, fmt.Errorf("metric exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)),
		sdkmetric.WithResource(res),
	)

	logExp, err := otlploggrpc.New(ctx,
		otlploggrpc.WithGRPCConn(conn),
		otlploggrpc.WithHeaders(cfg.Headers),
	)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		_ = conn.Close()
		return noopShutdown, fmt.Errorf("log exporter: %w", err)
	}
	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExp)),
		sdklog.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	global.SetLoggerProvider(lp)

	return func(ctx context.Context) error {
		return errors.Join(
			wrap("trace provider", tp.Shutdown(ctx)),
			wrap("metric provider", mp.Shutdown(ctx)),
			wrap("log provider", lp.Shutdown(ctx)),
			wrap("collector conn", conn.Close()),
		)
	}, nil
}

func wrap(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s shutdown: %w", what, err)
}

func noopShutdown(context.Context) error { return nil }
