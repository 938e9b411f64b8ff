package domain

// DateRange is an inclusive range of calendar days in DayLayout.
type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type ProjectDailyItem struct {
	Day         string `json:"day"`
	ProjectName string `json:"projectName"`
	Seconds     int64  `json:"seconds"`
}

// WeekdayItem totals seconds per day of week, 0 = Sunday.
type WeekdayItem struct {
	DayOfWeek int   `json:"dayOfWeek"`
	Seconds   int64 `json:"seconds"`
}

type LanguageItem struct {
	Language string `json:"language"`
	Seconds  int64  `json:"seconds"`
}

type DailyTotalItem struct {
	Day     string `json:"day"`
	Seconds int64  `json:"seconds"`
}

// IngestResult summarizes one ingested batch.
type IngestResult struct {
	Accepted   int `json:"accepted"`
	Duplicates int `json:"duplicates"`
	Rejected   int `json:"rejected"`
}

// RebuildResult summarizes a rebuild of daily aggregates from the event ledger.
type RebuildResult struct {
	Events     int64
	Aggregates int64
}
