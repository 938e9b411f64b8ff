// Package filestore keeps the agent's durable state as files in one directory.
package filestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/emiliopalmerini/timecode/internal/domain"
	"github.com/emiliopalmerini/timecode/internal/ports"
)

const (
	queueFile     = "queue.json"
	machineIDFile = "machine-id"
)

type Store struct {
	dir string
	mu  sync.Mutex
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string {
	return s.dir
}

// LoadQueue returns the persisted queue, or an empty one if none exists yet.
// An undecodable file is moved aside with a .corrupt suffix.
func (s *Store) LoadQueue() (*ports.QueueState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, queueFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &ports.QueueState{Pending: []domain.Event{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var state ports.QueueState
	if err := json.Unmarshal(data, &state); err != nil {
		backupPath := path + ".corrupt"
		_ = os.Rename(path, backupPath)
		return nil, fmt.Errorf("%w %s (backed up to %s): %v", ports.ErrCorruptState, path, backupPath, err)
	}
	if state.Pending == nil {
		state.Pending = []domain.Event{}
	}
	return &state, nil
}

func (s *Store) SaveQueue(state *ports.QueueState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal queue: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeAtomic(queueFile, data)
}

// MachineID returns the installation's id, generating and persisting one on
// first use.
func (s *Store) MachineID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, machineIDFile)
	data, err := os.ReadFile(path)
	if err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	id := uuid.NewString()
	if err := s.writeAtomic(machineIDFile, []byte(id+"\n")); err != nil {
		return "", err
	}
	return id, nil
}

// writeAtomic writes to a temp file then renames it over name.
func (s *Store) writeAtomic(name string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	path := filepath.Join(s.dir, name)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
