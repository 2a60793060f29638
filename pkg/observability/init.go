package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

const (
	tracerName = "intrusive"
	meterName  = "intrusive"

	attrAppCommand = "app.command"
)

// Providers holds the initialized observability providers.
type Providers struct {
	// Tracer is the named tracer for creating spans.
	Tracer trace.Tracer

	// Meter is the named meter for creating instruments.
	Meter metric.Meter

	// Logger is the context-aware structured logger.
	Logger *slog.Logger

	// Shutdown flushes pending telemetry within the configured timeout.
	// Call it once before the command returns; later calls are harmless.
	Shutdown func(ctx context.Context) error
}

type shutdownFunc func(ctx context.Context) error

// Init sets up tracing, metrics and the logger and installs the providers as the
// otel globals. Without an OTLP endpoint both providers are no-ops.
func Init(cfg Config) (Providers, error) {
	logger := buildLogger(cfg)

	var (
		tp trace.TracerProvider = nooptrace.NewTracerProvider()
		mp metric.MeterProvider = noopmetric.NewMeterProvider()

		shutdowns []shutdownFunc
	)

	if cfg.OTLPEndpoint != "" {
		ctx := context.Background()

		res, err := buildResource(cfg)
		if err != nil {
			return Providers{}, err
		}

		sdkTP, err := exportingTracerProvider(ctx, cfg, res)
		if err != nil {
			return Providers{}, fmt.Errorf("build tracer provider: %w", err)
		}

		shutdowns = append(shutdowns, sdkTP.Shutdown)

		sdkMP, err := exportingMeterProvider(ctx, cfg, res)
		if err != nil {
			return Providers{}, errors.Join(fmt.Errorf("build meter provider: %w", err), sdkTP.Shutdown(ctx))
		}

		shutdowns = append(shutdowns, sdkMP.Shutdown)
		tp, mp = sdkTP, sdkMP
	}

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return Providers{
		Tracer:   tp.Tracer(tracerName),
		Meter:    mp.Meter(meterName),
		Logger:   logger,
		Shutdown: shutdownAll(cfg.shutdownTimeout(), shutdowns),
	}, nil
}

// shutdownAll stops providers in reverse creation order under one deadline.
func shutdownAll(timeout time.Duration, shutdowns []shutdownFunc) shutdownFunc {
	return func(ctx context.Context) error {
		deadlineCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		var errs []error

		for _, shutdown := range slices.Backward(shutdowns) {
			errs = append(errs, shutdown(deadlineCtx))
		}

		return errors.Join(errs...)
	}
}

func buildResource(cfg Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceName(cfg.ServiceName)}

	if cfg.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(cfg.ServiceVersion))
	}

	if cfg.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironment(cfg.Environment))
	}

	if cfg.Command != "" {
		attrs = append(attrs, attribute.String(attrAppCommand, cfg.Command))
	}

	res, err := resource.New(context.Background(), resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}

	return res, nil
}

func exportingTracerProvider(
	ctx context.Context, cfg Config, res *resource.Resource,
) (*sdktrace.TracerProvider, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}

	if cfg.OTLPInsecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	if len(cfg.OTLPHeaders) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(cfg.OTLPHeaders))
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(selectSampler(cfg)),
	), nil
}

func exportingMeterProvider(
	ctx context.Context, cfg Config, res *resource.Resource,
) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint)}

	if cfg.OTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	if len(cfg.OTLPHeaders) > 0 {
		opts = append(opts, otlpmetricgrpc.WithHeaders(cfg.OTLPHeaders))
	}

	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create metric exporter: %w", err)
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	), nil
}

func buildLogger(cfg Config) *slog.Logger {
	out := cfg.LogOutput
	if out == nil {
		out = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var inner slog.Handler = slog.NewTextHandler(out, handlerOpts)
	if cfg.LogJSON {
		inner = slog.NewJSONHandler(out, handlerOpts)
	}

	return slog.New(NewTracingHandler(inner, Metadata{
		Service: cfg.ServiceName,
		Env:     cfg.Environment,
		Command: cfg.Command,
	}))
}
