package util

import (
	"database/sql"
	"strconv"
)

// ToInt64 safely converts an any to int64.
// Handles the types SQLite aggregates come back as: int64, float64, string,
// []byte and the sql.Null wrappers. Returns 0 for nil or unsupported types.
func ToInt64(v any) int64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	case []byte:
		i, _ := strconv.ParseInt(string(n), 10, 64)
		return i
	case sql.NullInt64:
		if n.Valid {
			return n.Int64
		}
		return 0
	case sql.NullFloat64:
		if n.Valid {
			return int64(n.Float64)
		}
		return 0
	default:
		return 0
	}
}
