package ports

import (
	"context"

	"github.com/emiliopalmerini/timecode/internal/domain"
)

// EventRepository persists the append-only event ledger.
type EventRepository interface {
	// Insert stores the event and increments its daily aggregate atomically.
	// It returns false when an event with the same id already exists.
	Insert(ctx context.Context, e domain.Event) (bool, error)
	// RebuildDailyStats recomputes every daily aggregate from the ledger.
	RebuildDailyStats(ctx context.Context) (domain.RebuildResult, error)
}
