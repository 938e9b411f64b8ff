package ports

import (
	"context"

	"github.com/emiliopalmerini/timecode/internal/domain"
)

// EventSender delivers event batches to the ingestion server.
type EventSender interface {
	SendEvents(ctx context.Context, events []domain.Event) (domain.IngestResult, error)
	// DailyTotal reads back the authoritative seconds recorded for day.
	DailyTotal(ctx context.Context, day string) (int64, error)
}
