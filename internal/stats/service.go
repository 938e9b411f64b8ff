// Package stats answers dashboard range queries over the daily aggregates.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/emiliopalmerini/timecode/internal/domain"
	"github.com/emiliopalmerini/timecode/internal/ports"
)

const (
	DefaultMaxRangeDays = 366
	defaultWindowDays   = 7
)

// ResolveRange applies defaults and validates an inclusive day range.
// Empty from/to default to the trailing seven days ending on today's date.
func ResolveRange(from, to string, today time.Time, maxDays int) (domain.DateRange, error) {
	if maxDays <= 0 {
		maxDays = DefaultMaxRangeDays
	}
	todayDay := today.Format(domain.DayLayout)
	if to == "" {
		to = todayDay
	}
	if from == "" {
		from = today.AddDate(0, 0, -(defaultWindowDays - 1)).Format(domain.DayLayout)
	}

	fromDay, err := time.Parse(domain.DayLayout, from)
	if err != nil {
		return domain.DateRange{}, domain.NewValidationError("from", "invalid date format, use YYYY-MM-DD")
	}
	toDay, err := time.Parse(domain.DayLayout, to)
	if err != nil {
		return domain.DateRange{}, domain.NewValidationError("to", "invalid date format, use YYYY-MM-DD")
	}
	if fromDay.After(toDay) {
		return domain.DateRange{}, domain.NewValidationError("from", "must be <= to")
	}
	days := int(toDay.Sub(fromDay).Hours()/24) + 1
	if days > maxDays {
		return domain.DateRange{}, domain.NewValidationError("", fmt.Sprintf("date range too large, max %d days", maxDays))
	}

	return domain.DateRange{From: from, To: to}, nil
}

// Service resolves ranges against the local clock and delegates to the repository.
type Service struct {
	repo    ports.StatsRepository
	maxDays int
	loc     *time.Location
	now     func() time.Time
}

func NewService(repo ports.StatsRepository, maxDays int, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{repo: repo, maxDays: maxDays, loc: loc, now: time.Now}
}

// Range resolves query parameters relative to today in the service's zone.
func (s *Service) Range(from, to string) (domain.DateRange, error) {
	return ResolveRange(from, to, s.now().In(s.loc), s.maxDays)
}

func (s *Service) ProjectDaily(ctx context.Context, rng domain.DateRange) ([]domain.ProjectDailyItem, error) {
	return s.repo.ProjectDaily(ctx, rng)
}

func (s *Service) Weekday(ctx context.Context, rng domain.DateRange) ([]domain.WeekdayItem, error) {
	return s.repo.Weekday(ctx, rng)
}

func (s *Service) Languages(ctx context.Context, rng domain.DateRange) ([]domain.LanguageItem, error) {
	return s.repo.Languages(ctx, rng)
}

func (s *Service) DailyTotals(ctx context.Context, rng domain.DateRange) ([]domain.DailyTotalItem, error) {
	return s.repo.DailyTotals(ctx, rng)
}
