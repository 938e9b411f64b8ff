package ports

import (
	"errors"

	"github.com/emiliopalmerini/timecode/internal/domain"
)

// ErrCorruptState is returned when persisted state cannot be decoded.
var ErrCorruptState = errors.New("corrupt state file")

// QueueState is the durable part of the client outbound queue.
type QueueState struct {
	Pending      []domain.Event `json:"pending"`
	TodayDay     string         `json:"todayDay"`
	TodaySeconds int64          `json:"todaySeconds"`
}

// QueueStore persists the outbound queue across restarts.
type QueueStore interface {
	LoadQueue() (*QueueState, error)
	SaveQueue(state *QueueState) error
}

// IdentityStore persists the machine id of the client installation.
type IdentityStore interface {
	MachineID() (string, error)
}
