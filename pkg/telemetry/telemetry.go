package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/prohmpiriya/take-a-number"

// Config holds OpenTelemetry configuration
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string
	CollectorAddr  string
	MetricInterval time.Duration // default 15s
	SampleRatio    float64       // default 1.0
}

func (c *Config) withDefaults() *Config {
	out := *c
	if out.MetricInterval <= 0 {
		out.MetricInterval = 15 * time.Second
	}
	if out.SampleRatio <= 0 {
		out.SampleRatio = 1.0
	}
	return &out
}

// Telemetry owns the SDK providers installed by Init
type Telemetry struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
}

var (
	mu     sync.RWMutex
	global *Telemetry
	tracer trace.Tracer
	meter  metric.Meter
)

// Init installs OTLP gRPC trace and metric exporters as the global providers.
// When disabled the global no-op providers stay in place.
func Init(ctx context.Context, cfg *Config) (*Telemetry, error) {
	if cfg == nil || !cfg.Enabled {
		use(&Telemetry{}, otel.GetTracerProvider(), otel.GetMeterProvider())
		return Get(), nil
	}
	cfg = cfg.withDefaults()

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentNameKey.String(cfg.Environment),
		attribute.String("service.namespace", "take-a-number"),
	)

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.CollectorAddr),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(cfg.CollectorAddr),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(cfg.MetricInterval))),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	use(&Telemetry{tracerProvider: tp, meterProvider: mp}, tp, mp)
	return Get(), nil
}

// UseProviders installs explicit providers, used by tests with in-memory readers
func UseProviders(tp trace.TracerProvider, mp metric.MeterProvider) {
	use(&Telemetry{}, tp, mp)
}

func use(t *Telemetry, tp trace.TracerProvider, mp metric.MeterProvider) {
	mu.Lock()
	defer mu.Unlock()
	global = t
	tracer = tp.Tracer(instrumentationName)
	meter = mp.Meter(instrumentationName)
}

// Get returns the instance installed by Init, or nil
func Get() *Telemetry {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// Meter returns the meter used for queue metrics
func Meter() metric.Meter {
	mu.RLock()
	defer mu.RUnlock()
	if meter == nil {
		return otel.Meter(instrumentationName)
	}
	return meter
}

// Shutdown flushes and stops the providers installed by Init
func Shutdown(ctx context.Context) error {
	t := Get()
	if t == nil {
		return nil
	}

	var errs []error
	if t.tracerProvider != nil {
		if err := t.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if t.meterProvider != nil {
		if err := t.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}
