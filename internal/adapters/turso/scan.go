package turso

import (
	"fmt"
	"time"

	"github.com/emiliopalmerini/timecode/internal/domain"
)

// go-libsql decodes TEXT values that look like dates into time.Time, so day
// and timestamp columns are scanned into any and re-rendered in wire format.

func dayText(v any) (string, error) {
	switch x := v.(type) {
	case time.Time:
		return x.Format(domain.DayLayout), nil
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	default:
		return "", fmt.Errorf("unexpected day value %T", v)
	}
}

func timestampText(v any) (string, error) {
	switch x := v.(type) {
	case time.Time:
		return domain.FormatTimestamp(x), nil
	case string:
		return normalizeTimestamp(x), nil
	case []byte:
		return normalizeTimestamp(string(x)), nil
	default:
		return "", fmt.Errorf("unexpected timestamp value %T", v)
	}
}

func normalizeTimestamp(s string) string {
	t, err := domain.ParseTimestamp(s)
	if err != nil {
		return s
	}
	return domain.FormatTimestamp(t)
}
