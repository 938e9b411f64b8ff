package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// TimestampLayout is the wire format of startedAt/endedAt: UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// DayLayout is the calendar day format used by aggregates and range queries.
const DayLayout = "2006-01-02"

// eventIDVersion prefixes the hashed field list so the layout can evolve.
const eventIDVersion = "timecode/v1"

// Origin identifies the client installation that produced an event.
type Origin struct {
	MachineID string
	OS        string
	Editor    string
}

// Event is an immutable, content-addressed record of time spent in one context.
type Event struct {
	ID              string  `json:"id"`
	MachineID       string  `json:"machineId"`
	OS              string  `json:"os"`
	Editor          string  `json:"editor"`
	ProjectName     string  `json:"projectName"`
	ProjectPath     *string `json:"projectPath"`
	FilePath        *string `json:"filePath"`
	Language        string  `json:"language"`
	StartedAt       string  `json:"startedAt"`
	EndedAt         string  `json:"endedAt"`
	DurationSeconds int64   `json:"durationSeconds"`
	IsWrite         bool    `json:"isWrite"`
}

// NewEvent builds the event for a closed segment. It returns false when the
// segment is shorter than one whole second.
func NewEvent(origin Origin, c ActivityContext, start, end time.Time, isWrite bool) (Event, bool) {
	start = start.UTC().Truncate(time.Millisecond)
	end = end.UTC().Truncate(time.Millisecond)

	duration := int64(end.Sub(start) / time.Second)
	if duration <= 0 {
		return Event{}, false
	}

	e := Event{
		MachineID:       origin.MachineID,
		OS:              origin.OS,
		Editor:          origin.Editor,
		ProjectName:     c.ProjectName,
		ProjectPath:     c.ProjectPath,
		FilePath:        c.FilePath,
		Language:        c.Language,
		StartedAt:       FormatTimestamp(start),
		EndedAt:         FormatTimestamp(end),
		DurationSeconds: duration,
		IsWrite:         isWrite,
	}
	e.ID = ComputeEventID(e)
	return e, true
}

// ComputeEventID hashes every field except the id in a fixed order.
func ComputeEventID(e Event) string {
	fields := []any{
		eventIDVersion,
		e.MachineID,
		e.OS,
		e.Editor,
		e.ProjectName,
		e.ProjectPath,
		e.FilePath,
		e.Language,
		e.StartedAt,
		e.EndedAt,
		e.DurationSeconds,
		e.IsWrite,
	}
	// Marshalling a slice of strings, string pointers, an int64 and a bool cannot fail.
	canonical, _ := json.Marshal(fields)
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}

// FormatTimestamp renders t in the wire timestamp format.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts any RFC 3339 timestamp, with or without fractional seconds.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// DayOf returns the calendar day of t in loc.
func DayOf(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DayLayout)
}

// EventInput is the decoded wire form of an event before validation.
// Pointer fields distinguish absent values from zero values.
type EventInput struct {
	ID              *string `json:"id"`
	MachineID       *string `json:"machineId"`
	OS              *string `json:"os"`
	Editor          *string `json:"editor"`
	ProjectName     *string `json:"projectName"`
	ProjectPath     *string `json:"projectPath"`
	FilePath        *string `json:"filePath"`
	Language        *string `json:"language"`
	StartedAt       *string `json:"startedAt"`
	EndedAt         *string `json:"endedAt"`
	DurationSeconds *int64  `json:"durationSeconds"`
	IsWrite         *bool   `json:"isWrite"`
}

// ToEvent validates the input and converts it into an Event.
// index is reported back in the ValidationError.
func (in EventInput) ToEvent(index int) (Event, error) {
	required := []struct {
		field string
		value *string
	}{
		{"id", in.ID},
		{"machineId", in.MachineID},
		{"os", in.OS},
		{"editor", in.Editor},
		{"projectName", in.ProjectName},
		{"language", in.Language},
		{"startedAt", in.StartedAt},
		{"endedAt", in.EndedAt},
	}
	for _, r := range required {
		if r.value == nil || *r.value == "" {
			return Event{}, &ValidationError{Index: index, Field: r.field, Reason: "required"}
		}
	}
	if in.DurationSeconds == nil {
		return Event{}, &ValidationError{Index: index, Field: "durationSeconds", Reason: "required"}
	}
	if in.IsWrite == nil {
		return Event{}, &ValidationError{Index: index, Field: "isWrite", Reason: "required"}
	}

	e := Event{
		ID:              *in.ID,
		MachineID:       *in.MachineID,
		OS:              *in.OS,
		Editor:          *in.Editor,
		ProjectName:     *in.ProjectName,
		ProjectPath:     in.ProjectPath,
		FilePath:        in.FilePath,
		Language:        *in.Language,
		StartedAt:       *in.StartedAt,
		EndedAt:         *in.EndedAt,
		DurationSeconds: *in.DurationSeconds,
		IsWrite:         *in.IsWrite,
	}
	if err := e.Validate(); err != nil {
		if ve, ok := err.(*ValidationError); ok {
			ve.Index = index
		}
		return Event{}, err
	}
	return e, nil
}

// Validate checks the semantic constraints of an already decoded event.
func (e Event) Validate() error {
	start, err := ParseTimestamp(e.StartedAt)
	if err != nil {
		return &ValidationError{Index: -1, Field: "startedAt", Reason: "not an RFC 3339 timestamp"}
	}
	end, err := ParseTimestamp(e.EndedAt)
	if err != nil {
		return &ValidationError{Index: -1, Field: "endedAt", Reason: "not an RFC 3339 timestamp"}
	}
	if !end.After(start) {
		return &ValidationError{Index: -1, Field: "endedAt", Reason: "must be after startedAt"}
	}
	if e.DurationSeconds <= 0 {
		return &ValidationError{Index: -1, Field: "durationSeconds", Reason: "must be positive"}
	}
	return nil
}

// StartTime returns the parsed startedAt. It assumes the event passed Validate.
func (e Event) StartTime() time.Time {
	t, _ := ParseTimestamp(e.StartedAt)
	return t
}
