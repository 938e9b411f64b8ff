package ports

import (
	"context"

	"github.com/emiliopalmerini/timecode/internal/domain"
)

type StatsRepository interface {
	ProjectDaily(ctx context.Context, rng domain.DateRange) ([]domain.ProjectDailyItem, error)
	Weekday(ctx context.Context, rng domain.DateRange) ([]domain.WeekdayItem, error)
	Languages(ctx context.Context, rng domain.DateRange) ([]domain.LanguageItem, error)
	DailyTotals(ctx context.Context, rng domain.DateRange) ([]domain.DailyTotalItem, error)
}
