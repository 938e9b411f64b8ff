package ports

import (
	"context"
	"time"
)

// MetricsExporter exports ingestion metrics to an external observability system.
type MetricsExporter interface {
	// ExportIngest records the outcome of one ingested batch.
	ExportIngest(ctx context.Context, m *IngestMetrics) error
	// Close shuts down the exporter and flushes any pending metrics.
	Close(ctx context.Context) error
}

// IngestMetrics describes one POST /events batch.
type IngestMetrics struct {
	Accepted        int
	Duplicates      int
	AcceptedSeconds int64
	Failed          bool
	Elapsed         time.Duration
}
