package domain

import "time"

const (
	DefaultHeartbeatSeconds     = 30
	MinHeartbeatSeconds         = 5
	DefaultIdleThresholdSeconds = 120
	MinIdleThresholdSeconds     = 30
	DefaultAPIBaseURL           = "http://127.0.0.1:4821"
)

// Settings are the user-facing tracking preferences of the client agent.
type Settings struct {
	Enabled              bool   `json:"enabled"`
	HeartbeatSeconds     int    `json:"heartbeatSeconds"`
	IdleThresholdSeconds int    `json:"idleThresholdSeconds"`
	IncludeFilePaths     bool   `json:"includeFilePaths"`
	IncludeProjectPaths  bool   `json:"includeProjectPaths"`
	APIBaseURL           string `json:"apiBaseUrl"`
}

// DefaultSettings returns tracking enabled with privacy toggles off.
func DefaultSettings() Settings {
	return Settings{
		Enabled:              true,
		HeartbeatSeconds:     DefaultHeartbeatSeconds,
		IdleThresholdSeconds: DefaultIdleThresholdSeconds,
		APIBaseURL:           DefaultAPIBaseURL,
	}
}

// Clamp raises intervals to their minimums and restores an empty base URL.
func (s Settings) Clamp() Settings {
	if s.HeartbeatSeconds < MinHeartbeatSeconds {
		s.HeartbeatSeconds = MinHeartbeatSeconds
	}
	if s.IdleThresholdSeconds < MinIdleThresholdSeconds {
		s.IdleThresholdSeconds = MinIdleThresholdSeconds
	}
	if s.APIBaseURL == "" {
		s.APIBaseURL = DefaultAPIBaseURL
	}
	return s
}

func (s Settings) Heartbeat() time.Duration {
	return time.Duration(s.HeartbeatSeconds) * time.Second
}

func (s Settings) IdleThreshold() time.Duration {
	return time.Duration(s.IdleThresholdSeconds) * time.Second
}

// SettingsPatch carries a partial settings update; nil fields are left unchanged.
type SettingsPatch struct {
	Enabled              *bool   `json:"enabled"`
	HeartbeatSeconds     *int    `json:"heartbeatSeconds"`
	IdleThresholdSeconds *int    `json:"idleThresholdSeconds"`
	IncludeFilePaths     *bool   `json:"includeFilePaths"`
	IncludeProjectPaths  *bool   `json:"includeProjectPaths"`
	APIBaseURL           *string `json:"apiBaseUrl"`
}

// Apply returns s with the patch applied and clamped.
func (s Settings) Apply(p SettingsPatch) Settings {
	if p.Enabled != nil {
		s.Enabled = *p.Enabled
	}
	if p.HeartbeatSeconds != nil {
		s.HeartbeatSeconds = *p.HeartbeatSeconds
	}
	if p.IdleThresholdSeconds != nil {
		s.IdleThresholdSeconds = *p.IdleThresholdSeconds
	}
	if p.IncludeFilePaths != nil {
		s.IncludeFilePaths = *p.IncludeFilePaths
	}
	if p.IncludeProjectPaths != nil {
		s.IncludeProjectPaths = *p.IncludeProjectPaths
	}
	if p.APIBaseURL != nil {
		s.APIBaseURL = *p.APIBaseURL
	}
	return s.Clamp()
}
