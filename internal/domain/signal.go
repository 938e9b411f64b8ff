package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// SignalType names a message sent by the editor integration.
type SignalType string

const (
	SignalContextChanged    SignalType = "context-changed"
	SignalEdit              SignalType = "edit"
	SignalSave              SignalType = "save"
	SignalFocusChanged      SignalType = "focus-changed"
	SignalConfig            SignalType = "config"
	SignalFlush             SignalType = "flush"
	SignalRestartConnection SignalType = "restart-connection"
	SignalStatus            SignalType = "status"
	SignalShutdown          SignalType = "shutdown"
)

// SignalBase contains fields common to all editor signals.
// At is optional; a zero value means "now" on the receiving clock.
type SignalBase struct {
	Type SignalType `json:"type"`
	At   time.Time  `json:"at"`
}

// ActivitySignal reports editing activity: a context switch, an edit or a save.
type ActivitySignal struct {
	SignalBase
	Context ActivityContext `json:"context"`
}

// IsWrite reports whether the signal modified a document.
func (s *ActivitySignal) IsWrite() bool {
	return s.Type == SignalEdit || s.Type == SignalSave
}

// FocusSignal reports the editor window gaining or losing focus.
// Context is only meaningful when Focused is true.
type FocusSignal struct {
	SignalBase
	Focused bool             `json:"focused"`
	Context *ActivityContext `json:"context"`
}

// ConfigSignal carries a runtime settings change.
type ConfigSignal struct {
	SignalBase
	Config SettingsPatch `json:"config"`
}

// ControlSignal is a command with no payload: flush, restart-connection or status.
type ControlSignal struct {
	SignalBase
}

// ShutdownSignal is sent when the editor is closing.
type ShutdownSignal struct {
	SignalBase
}

// ParseSignal parses raw JSON into the appropriate typed signal struct.
func ParseSignal(data []byte) (any, error) {
	var base SignalBase
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, fmt.Errorf("failed to parse signal: %w", err)
	}

	if base.Type == "" {
		return nil, fmt.Errorf("missing signal type")
	}

	switch base.Type {
	case SignalContextChanged, SignalEdit, SignalSave:
		var s ActivitySignal
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to parse %s signal: %w", base.Type, err)
		}
		s.Context = s.Context.Normalize()
		return &s, nil

	case SignalFocusChanged:
		var s FocusSignal
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to parse %s signal: %w", base.Type, err)
		}
		if s.Context != nil {
			c := s.Context.Normalize()
			s.Context = &c
		}
		return &s, nil

	case SignalConfig:
		var s ConfigSignal
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to parse %s signal: %w", base.Type, err)
		}
		return &s, nil

	case SignalFlush, SignalRestartConnection, SignalStatus:
		return &ControlSignal{SignalBase: base}, nil

	case SignalShutdown:
		return &ShutdownSignal{SignalBase: base}, nil

	default:
		return nil, fmt.Errorf("unknown signal type: %s", base.Type)
	}
}
