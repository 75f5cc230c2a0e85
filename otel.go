package showroom

import (
	"context"
	"errors"
	"strings"

	"github.com/joeshaw/envdecode"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Instrumentation scope names, one per pipeline stage.
const (
	TracerNameCatalog   = "showroom-catalog"
	TracerNameRecommend = "showroom-recommend"
	TracerNameServer    = "showroom-server"
)

// OtelConfig is a configuration struct for the OpenTelemetry providers. The OTLP exporters
// read OTEL_EXPORTER_OTLP_ENDPOINT and OTEL_EXPORTER_OTLP_HEADERS themselves.
type OtelConfig struct {
	ServiceVersion string `env:"OTEL_SERVICE_VERSION,default=0.1.0"`
	ServiceName    string `env:"OTEL_SERVICE_NAME,default=showroom"`
	DeployEnv      string `env:"OTEL_DEPLOY_ENV,default=development"`
}

// Resource describes this process to the collector.
func (c OtelConfig) Resource() (*resource.Resource, error) {
	return resource.Merge(resource.Default(), resource.NewWithAttributes("",
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.ServiceVersion),
		attribute.String("deployment.environment", c.DeployEnv),
	))
}

type otelShutdown func(ctx context.Context) error

// InitOtel sets up OTLP gRPC trace and metric providers, registers them globally and
// returns them with a shutdown function that flushes both.
func InitOtel(ctx context.Context) (*sdktrace.TracerProvider, *metric.MeterProvider, otelShutdown, error) {
	var cfg OtelConfig
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, nil, nil, err
	}

	res, err := cfg.Resource()
	if err != nil {
		return nil, nil, nil, err
	}

	traceExporter, err := otlptrace.New(ctx, otlptracegrpc.NewClient())
	if err != nil {
		return nil, nil, nil, err
	}

	metricExporter, err := otlpmetricgrpc.New(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	meterProvider := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(metricExporter)),
		metric.WithResource(res),
	)

	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)

	// W3C trace context and baggage, so the webhook call carries the request's trace.
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	shutdown := func(ctx context.Context) error {
		err := errors.Join(
			tracerProvider.Shutdown(ctx),
			meterProvider.Shutdown(ctx),
		)
		if err != nil && strings.Contains(err.Error(), "exporter is shutdown") {
			return nil
		}
		return err
	}

	return tracerProvider, meterProvider, shutdown, nil
}
