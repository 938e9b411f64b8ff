package turso

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/emiliopalmerini/timecode/internal/domain"
	"github.com/emiliopalmerini/timecode/internal/util"
)

// DailyAggregate is one raw daily_stats row.
type DailyAggregate struct {
	Day           string
	ProjectName   string
	Language      string
	TotalSeconds  int64
	ActiveSeconds int64
	EventsCount   int64
	UpdatedAt     string
}

// Get returns the stored event with the given id, or nil if it does not exist.
func (r *EventRepository) Get(ctx context.Context, id string) (*domain.Event, error) {
	var (
		e                  domain.Event
		startedAt, endedAt any
		projectPath        sql.NullString
		filePath           sql.NullString
		isWrite            int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, machine_id, os, editor, project_name, project_path, file_path,
			language, started_at, ended_at, duration_seconds, is_write
		FROM events WHERE id = ?
	`, id).Scan(
		&e.ID, &e.MachineID, &e.OS, &e.Editor, &e.ProjectName, &projectPath, &filePath,
		&e.Language, &startedAt, &endedAt, &e.DurationSeconds, &isWrite,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event %s: %w", id, err)
	}
	if e.StartedAt, err = timestampText(startedAt); err != nil {
		return nil, err
	}
	if e.EndedAt, err = timestampText(endedAt); err != nil {
		return nil, err
	}
	e.ProjectPath = util.NullStringToPtr(projectPath)
	e.FilePath = util.NullStringToPtr(filePath)
	e.IsWrite = isWrite == 1
	return &e, nil
}

// Count returns the number of events in the ledger.
func (r *EventRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return n, nil
}

// Aggregates lists raw rollup rows, ordered by key.
func (r *StatsRepository) Aggregates(ctx context.Context, rng domain.DateRange) ([]DailyAggregate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT day, project_name, language, total_seconds, active_seconds, events_count, updated_at
		FROM daily_stats
		WHERE day BETWEEN ? AND ?
		ORDER BY day, project_name, language
	`, rng.From, rng.To)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily aggregates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []DailyAggregate
	for rows.Next() {
		var a DailyAggregate
		var day, updatedAt any
		if err := rows.Scan(&day, &a.ProjectName, &a.Language, &a.TotalSeconds, &a.ActiveSeconds, &a.EventsCount, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan daily aggregate: %w", err)
		}
		if a.Day, err = dayText(day); err != nil {
			return nil, err
		}
		if a.UpdatedAt, err = timestampText(updatedAt); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
