package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/emiliopalmerini/timecode/internal/adapters/otel"
	"github.com/emiliopalmerini/timecode/internal/domain"
	"github.com/emiliopalmerini/timecode/internal/util"
)

// Prefix is prepended to every environment variable, e.g. TIMECODE_PORT.
const Prefix = "TIMECODE"

// Database selects a local database file or a remote libsql server.
type Database struct {
	Path      string `envconfig:"DB_PATH"`
	URL       string `envconfig:"DATABASE_URL"`
	AuthToken string `envconfig:"AUTH_TOKEN"`
}

// Server holds configuration for the ingestion and query server.
type Server struct {
	Database
	otel.Config
	Host         string `envconfig:"HOST" default:"127.0.0.1"`
	Port         int    `envconfig:"PORT" default:"4821"`
	Timezone     string `envconfig:"TIMEZONE"`
	MaxBatch     int    `envconfig:"MAX_BATCH" default:"500"`
	MaxRangeDays int    `envconfig:"MAX_RANGE_DAYS" default:"366"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Location returns the zone used to attribute events to calendar days.
func (s *Server) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid %s_TIMEZONE %q: %w", Prefix, s.Timezone, err)
	}
	return loc, nil
}

// Agent holds configuration for the client tracking agent.
type Agent struct {
	Enabled              bool   `envconfig:"ENABLED" default:"true"`
	APIBaseURL           string `envconfig:"API_BASE_URL" default:"http://127.0.0.1:4821"`
	Editor               string `envconfig:"EDITOR" default:"vscode"`
	HeartbeatSeconds     int    `envconfig:"HEARTBEAT_SECONDS" default:"30"`
	IdleThresholdSeconds int    `envconfig:"IDLE_THRESHOLD_SECONDS" default:"120"`
	IncludeFilePaths     bool   `envconfig:"INCLUDE_FILE_PATHS" default:"false"`
	IncludeProjectPaths  bool   `envconfig:"INCLUDE_PROJECT_PATHS" default:"false"`
	FlushIntervalSeconds int    `envconfig:"FLUSH_INTERVAL_SECONDS" default:"30"`
	BatchSize            int    `envconfig:"BATCH_SIZE" default:"500"`
	StateDir             string `envconfig:"STATE_DIR"`
	MetricsAddr          string `envconfig:"METRICS_ADDR"`
	LogLevel             string `envconfig:"LOG_LEVEL" default:"info"`
}

// Settings returns the user-facing tracking settings, clamped to their minimums.
func (a *Agent) Settings() domain.Settings {
	return domain.Settings{
		Enabled:              a.Enabled,
		HeartbeatSeconds:     a.HeartbeatSeconds,
		IdleThresholdSeconds: a.IdleThresholdSeconds,
		IncludeFilePaths:     a.IncludeFilePaths,
		IncludeProjectPaths:  a.IncludeProjectPaths,
		APIBaseURL:           a.APIBaseURL,
	}.Clamp()
}

// FlushInterval returns the periodic flush interval.
func (a *Agent) FlushInterval() time.Duration {
	if a.FlushIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(a.FlushIntervalSeconds) * time.Second
}

// LoadServer loads server configuration from environment variables.
func LoadServer() (*Server, error) {
	var cfg Server
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, err
	}
	if cfg.Database.Path == "" && cfg.Database.URL == "" {
		dir, err := util.GetXDGConfigDir()
		if err != nil {
			return nil, err
		}
		cfg.Database.Path = filepath.Join(dir, "timecode.db")
	}
	return &cfg, nil
}

// LoadAgent loads agent configuration from environment variables.
func LoadAgent() (*Agent, error) {
	var cfg Agent
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, err
	}
	if cfg.StateDir == "" {
		dir, err := util.GetXDGConfigDir()
		if err != nil {
			return nil, err
		}
		cfg.StateDir = filepath.Join(dir, "agent")
	}
	return &cfg, nil
}
