package domain

// TrackerState is the user-visible state of the client agent.
type TrackerState string

const (
	StateDisabled TrackerState = "disabled"
	StateIdle     TrackerState = "idle"
	StateTracking TrackerState = "tracking"
	StateError    TrackerState = "error"
)

// Label returns the text shown in the editor status bar.
func (s TrackerState) Label() string {
	switch s {
	case StateDisabled:
		return "Disabled"
	case StateTracking:
		return "Tracking"
	case StateError:
		return "Server Offline"
	default:
		return "Idle"
	}
}

// TrackerStatus is a snapshot of the client agent.
type TrackerStatus struct {
	State        TrackerState `json:"state"`
	Label        string       `json:"label"`
	TodaySeconds int64        `json:"todaySeconds"`
	Pending      int          `json:"pending"`
	LastError    string       `json:"lastError,omitempty"`
	APIBaseURL   string       `json:"apiBaseUrl"`
}
