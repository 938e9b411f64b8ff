package ingest

import (
	"context"

	"github.com/emiliopalmerini/timecode/internal/domain"
	"github.com/emiliopalmerini/timecode/internal/ports"
)

// MockEventRepository is a mock implementation of ports.EventRepository for testing.
// Without InsertFunc it behaves like an id-keyed set.
type MockEventRepository struct {
	InsertFunc func(ctx context.Context, e domain.Event) (bool, error)
	stored     map[string]domain.Event
}

func (m *MockEventRepository) Insert(ctx context.Context, e domain.Event) (bool, error) {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, e)
	}
	if m.stored == nil {
		m.stored = make(map[string]domain.Event)
	}
	if _, ok := m.stored[e.ID]; ok {
		return false, nil
	}
	m.stored[e.ID] = e
	return true, nil
}

func (m *MockEventRepository) RebuildDailyStats(ctx context.Context) (domain.RebuildResult, error) {
	return domain.RebuildResult{Events: int64(len(m.stored))}, nil
}

// recordingExporter keeps every exported batch.
type recordingExporter struct {
	batches []ports.IngestMetrics
}

func (r *recordingExporter) ExportIngest(ctx context.Context, m *ports.IngestMetrics) error {
	r.batches = append(r.batches, *m)
	return nil
}

func (r *recordingExporter) Close(ctx context.Context) error { return nil }
