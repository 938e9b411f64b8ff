package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/emiliopalmerini/timecode/internal/ports"
)

const serviceName = "timecode"

// Exporter exports ingestion metrics to an OTEL Collector.
type Exporter struct {
	provider         *sdkmetric.MeterProvider
	eventsTotal      metric.Int64Counter
	secondsTotal     metric.Int64Counter
	batchesTotal     metric.Int64Counter
	batchLatencyHist metric.Float64Histogram
}

// NewExporter creates a new OTEL metrics exporter.
func NewExporter(ctx context.Context, cfg Config, version string) (*Exporter, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return nil, fmt.Errorf("OTEL exporter is disabled or endpoint not configured")
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	eventsTotal, err := meter.Int64Counter(
		"timecode_ingest_events_total",
		metric.WithDescription("Events received by the ingestion endpoint, by outcome"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating events counter: %w", err)
	}

	secondsTotal, err := meter.Int64Counter(
		"timecode_ingest_seconds_total",
		metric.WithDescription("Coding seconds added to daily aggregates"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating seconds counter: %w", err)
	}

	batchesTotal, err := meter.Int64Counter(
		"timecode_ingest_batches_total",
		metric.WithDescription("Ingested batches, by result"),
		metric.WithUnit("{batch}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating batches counter: %w", err)
	}

	batchLatencyHist, err := meter.Float64Histogram(
		"timecode_ingest_batch_duration_seconds",
		metric.WithDescription("Time spent persisting one batch"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating batch duration histogram: %w", err)
	}

	return &Exporter{
		provider:         provider,
		eventsTotal:      eventsTotal,
		secondsTotal:     secondsTotal,
		batchesTotal:     batchesTotal,
		batchLatencyHist: batchLatencyHist,
	}, nil
}

// ExportIngest records the outcome of one ingested batch.
func (e *Exporter) ExportIngest(ctx context.Context, m *ports.IngestMetrics) error {
	result := "ok"
	if m.Failed {
		result = "error"
	}

	e.eventsTotal.Add(ctx, int64(m.Accepted), metric.WithAttributes(attribute.String("outcome", "accepted")))
	e.eventsTotal.Add(ctx, int64(m.Duplicates), metric.WithAttributes(attribute.String("outcome", "duplicate")))
	e.secondsTotal.Add(ctx, m.AcceptedSeconds)
	e.batchesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	e.batchLatencyHist.Record(ctx, m.Elapsed.Seconds())

	return nil
}

// Close shuts down the exporter and flushes any pending metrics.
func (e *Exporter) Close(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}
