package util

import (
	"fmt"
	"time"
)

// FormatDuration formats whole seconds the way the status bar shows them.
// Examples: 59 -> "0m", 300 -> "5m", 7500 -> "2h 5m"
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// FormatDayHuman formats a YYYY-MM-DD day to human-readable format (Jan 2, 2006).
// Returns the original string if parsing fails.
func FormatDayHuman(day string) string {
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		return day
	}
	return t.Format("Jan 2, 2006")
}
