package cli

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/emiliopalmerini/timecode/internal/adapters/turso"
	"github.com/emiliopalmerini/timecode/internal/infrastructure/config"
)

// AppContext holds the shared dependencies of the server-side commands.
type AppContext struct {
	Config   *config.Server
	DB       *sql.DB
	Repos    *turso.Repositories
	Location *time.Location
	Logger   zerolog.Logger
}

// NewAppContext opens the configured database and wires the repositories.
func NewAppContext(cfg *config.Server, logger zerolog.Logger) (*AppContext, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	db, err := turso.Open(turso.Options{
		Path:      cfg.Database.Path,
		URL:       cfg.Database.URL,
		AuthToken: cfg.Database.AuthToken,
		Ping:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &AppContext{
		Config:   cfg,
		DB:       db,
		Repos:    turso.NewRepositories(db, loc),
		Location: loc,
		Logger:   logger,
	}, nil
}

// Close releases all resources held by the AppContext.
func (a *AppContext) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
