package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	ServiceName    = "salespulse"
	ServiceVersion = "1.0.0"
	MeterName      = "salespulse"
)

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Pipeline       *PipelineInstruments
}

// PipelineInstruments are the metrics recorded by the ingestion and filter
// pipeline.
type PipelineInstruments struct {
	DatasetLoads     metric.Int64Counter
	LoadFailures     metric.Int64Counter
	RowsIngested     metric.Int64Counter
	FilterRecomputes metric.Int64Counter
	LoadDuration     metric.Float64Histogram
}

// InitializeOTel wires tracing (stdout exporter) and metrics (prometheus
// exporter) and registers the pipeline instruments.
func InitializeOTel(ctx context.Context, logger *slog.Logger) (*OTelProviders, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	traceExporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(0.1)),
	)
	otel.SetTracerProvider(tracerProvider)

	metricExporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(metricExporter),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	meter := meterProvider.Meter(MeterName)
	pipeline, err := newPipelineInstruments(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline instruments: %w", err)
	}

	logger.InfoContext(ctx, "observability initialized",
		slog.String("service", ServiceName),
		slog.String("version", ServiceVersion))

	return &OTelProviders{
		TracerProvider: tracerProvider,
		MeterProvider:  meterProvider,
		Tracer:         tracerProvider.Tracer(ServiceName),
		Meter:          meter,
		PrometheusHTTP: promhttp.Handler(),
		Pipeline:       pipeline,
	}, nil
}

func newPipelineInstruments(meter metric.Meter) (*PipelineInstruments, error) {
	loads, err := meter.Int64Counter("salespulse_dataset_loads_total",
		metric.WithDescription("Successful dataset loads"))
	if err != nil {
		return nil, err
	}
	failures, err := meter.Int64Counter("salespulse_dataset_load_failures_total",
		metric.WithDescription("Failed dataset loads"))
	if err != nil {
		return nil, err
	}
	rows, err := meter.Int64Counter("salespulse_rows_ingested_total",
		metric.WithDescription("Rows normalized across all loads"))
	if err != nil {
		return nil, err
	}
	recomputes, err := meter.Int64Counter("salespulse_filter_recomputes_total",
		metric.WithDescription("Filtered view recomputations"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("salespulse_load_duration_seconds",
		metric.WithDescription("End to end tokenize/map/normalize duration"))
	if err != nil {
		return nil, err
	}
	return &PipelineInstruments{
		DatasetLoads:     loads,
		LoadFailures:     failures,
		RowsIngested:     rows,
		FilterRecomputes: recomputes,
		LoadDuration:     duration,
	}, nil
}

// Shutdown flushes and stops both providers.
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var firstErr error
	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
