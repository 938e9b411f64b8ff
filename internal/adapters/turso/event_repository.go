package turso

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/emiliopalmerini/timecode/internal/domain"
	"github.com/emiliopalmerini/timecode/internal/util"
)

const maxStreamRetries = 2

const insertEventSQL = `
	INSERT INTO events (
		id, machine_id, editor, os, project_name, project_path, file_path,
		language, started_at, ended_at, duration_seconds, is_write
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO NOTHING
`

const upsertDailyStatsSQL = `
	INSERT INTO daily_stats (
		day, project_name, language, total_seconds, active_seconds, events_count
	) VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(day, project_name, language) DO UPDATE SET
		total_seconds = total_seconds + excluded.total_seconds,
		active_seconds = active_seconds + excluded.active_seconds,
		events_count = events_count + excluded.events_count,
		updated_at = (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
`

// EventRepository writes the event ledger and keeps daily_stats in step with it.
type EventRepository struct {
	db  *sql.DB
	loc *time.Location
}

// NewEventRepository attributes events to calendar days in loc (time.Local when nil).
func NewEventRepository(db *sql.DB, loc *time.Location) *EventRepository {
	if loc == nil {
		loc = time.Local
	}
	return &EventRepository{db: db, loc: loc}
}

// Insert stores e and increments its daily aggregate in one transaction.
// It returns false without touching the aggregate when the id already exists.
func (r *EventRepository) Insert(ctx context.Context, e domain.Event) (bool, error) {
	return WithRetry(ctx, maxStreamRetries, func() (bool, error) {
		return r.insert(ctx, e)
	})
}

func (r *EventRepository) insert(ctx context.Context, e domain.Event) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, insertEventSQL,
		e.ID,
		e.MachineID,
		e.Editor,
		e.OS,
		e.ProjectName,
		util.NullStringPtr(e.ProjectPath),
		util.NullStringPtr(e.FilePath),
		e.Language,
		e.StartedAt,
		e.EndedAt,
		e.DurationSeconds,
		util.BoolToInt64(e.IsWrite),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert event %s: %w", e.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return false, tx.Commit()
	}

	day := domain.DayOf(e.StartTime(), r.loc)
	if _, err := tx.ExecContext(ctx, upsertDailyStatsSQL,
		day, e.ProjectName, e.Language, e.DurationSeconds, e.DurationSeconds, 1,
	); err != nil {
		return false, fmt.Errorf("failed to update daily stats for %s: %w", day, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit event %s: %w", e.ID, err)
	}
	return true, nil
}

type aggregateKey struct {
	day, project, language string
}

type aggregateSum struct {
	seconds int64
	count   int64
}

// RebuildDailyStats recomputes daily_stats from the event ledger in one transaction.
func (r *EventRepository) RebuildDailyStats(ctx context.Context) (domain.RebuildResult, error) {
	var result domain.RebuildResult

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `SELECT started_at, project_name, language, duration_seconds FROM events`)
	if err != nil {
		return result, fmt.Errorf("failed to read events: %w", err)
	}

	sums := make(map[aggregateKey]*aggregateSum)
	for rows.Next() {
		var rawStart any
		var project, language string
		var duration int64
		if err := rows.Scan(&rawStart, &project, &language, &duration); err != nil {
			_ = rows.Close()
			return result, fmt.Errorf("failed to scan event: %w", err)
		}
		startedAt, err := timestampText(rawStart)
		if err != nil {
			_ = rows.Close()
			return result, err
		}
		start, err := domain.ParseTimestamp(startedAt)
		if err != nil {
			_ = rows.Close()
			return result, fmt.Errorf("event has invalid started_at %q: %w", startedAt, err)
		}
		key := aggregateKey{day: domain.DayOf(start, r.loc), project: project, language: language}
		s, ok := sums[key]
		if !ok {
			s = &aggregateSum{}
			sums[key] = s
		}
		s.seconds += duration
		s.count++
		result.Events++
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return result, fmt.Errorf("failed to iterate events: %w", err)
	}
	_ = rows.Close()

	if _, err := tx.ExecContext(ctx, `DELETE FROM daily_stats`); err != nil {
		return result, fmt.Errorf("failed to clear daily stats: %w", err)
	}
	for key, s := range sums {
		if _, err := tx.ExecContext(ctx, upsertDailyStatsSQL,
			key.day, key.project, key.language, s.seconds, s.seconds, s.count,
		); err != nil {
			return result, fmt.Errorf("failed to write daily stats for %s: %w", key.day, err)
		}
		result.Aggregates++
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("failed to commit rebuild: %w", err)
	}
	return result, nil
}
