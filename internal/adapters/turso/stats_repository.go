package turso

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/emiliopalmerini/timecode/internal/domain"
	"github.com/emiliopalmerini/timecode/internal/util"
)

// StatsRepository reads the daily_stats rollup. Ranges are inclusive calendar days.
type StatsRepository struct {
	db *sql.DB
}

func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) ProjectDaily(ctx context.Context, rng domain.DateRange) ([]domain.ProjectDailyItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT day, project_name, SUM(total_seconds) AS seconds
		FROM daily_stats
		WHERE day BETWEEN ? AND ?
		GROUP BY day, project_name
		ORDER BY day ASC, seconds DESC, project_name ASC
	`, rng.From, rng.To)
	if err != nil {
		return nil, fmt.Errorf("failed to query project daily stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := []domain.ProjectDailyItem{}
	for rows.Next() {
		var item domain.ProjectDailyItem
		var day, seconds any
		if err := rows.Scan(&day, &item.ProjectName, &seconds); err != nil {
			return nil, fmt.Errorf("failed to scan project daily row: %w", err)
		}
		if item.Day, err = dayText(day); err != nil {
			return nil, err
		}
		item.Seconds = util.ToInt64(seconds)
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *StatsRepository) Weekday(ctx context.Context, rng domain.DateRange) ([]domain.WeekdayItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT CAST(strftime('%w', day) AS INTEGER) AS day_of_week, SUM(total_seconds) AS seconds
		FROM daily_stats
		WHERE day BETWEEN ? AND ?
		GROUP BY day_of_week
		ORDER BY day_of_week ASC
	`, rng.From, rng.To)
	if err != nil {
		return nil, fmt.Errorf("failed to query weekday stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := []domain.WeekdayItem{}
	for rows.Next() {
		var dow, seconds any
		if err := rows.Scan(&dow, &seconds); err != nil {
			return nil, fmt.Errorf("failed to scan weekday row: %w", err)
		}
		items = append(items, domain.WeekdayItem{
			DayOfWeek: int(util.ToInt64(dow)),
			Seconds:   util.ToInt64(seconds),
		})
	}
	return items, rows.Err()
}

func (r *StatsRepository) Languages(ctx context.Context, rng domain.DateRange) ([]domain.LanguageItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT language, SUM(total_seconds) AS seconds
		FROM daily_stats
		WHERE day BETWEEN ? AND ?
		GROUP BY language
		ORDER BY seconds DESC, language ASC
	`, rng.From, rng.To)
	if err != nil {
		return nil, fmt.Errorf("failed to query language stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := []domain.LanguageItem{}
	for rows.Next() {
		var item domain.LanguageItem
		var seconds any
		if err := rows.Scan(&item.Language, &seconds); err != nil {
			return nil, fmt.Errorf("failed to scan language row: %w", err)
		}
		item.Seconds = util.ToInt64(seconds)
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *StatsRepository) DailyTotals(ctx context.Context, rng domain.DateRange) ([]domain.DailyTotalItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT day, SUM(total_seconds) AS seconds
		FROM daily_stats
		WHERE day BETWEEN ? AND ?
		GROUP BY day
		ORDER BY day ASC
	`, rng.From, rng.To)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily totals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := []domain.DailyTotalItem{}
	for rows.Next() {
		var item domain.DailyTotalItem
		var day, seconds any
		if err := rows.Scan(&day, &seconds); err != nil {
			return nil, fmt.Errorf("failed to scan daily total row: %w", err)
		}
		if item.Day, err = dayText(day); err != nil {
			return nil, err
		}
		item.Seconds = util.ToInt64(seconds)
		items = append(items, item)
	}
	return items, rows.Err()
}
