package turso

import (
	"database/sql"
	"time"

	"github.com/emiliopalmerini/timecode/internal/ports"
)

// Repositories holds all turso repository implementations as port interfaces.
type Repositories struct {
	Events ports.EventRepository
	Stats  ports.StatsRepository
}

// NewRepositories creates all turso repository implementations from a database connection.
func NewRepositories(db *sql.DB, loc *time.Location) *Repositories {
	return &Repositories{
		Events: NewEventRepository(db, loc),
		Stats:  NewStatsRepository(db),
	}
}
