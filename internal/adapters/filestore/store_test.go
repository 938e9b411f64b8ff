package filestore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/timecode/internal/domain"
	"github.com/emiliopalmerini/timecode/internal/ports"
)

func TestLoadQueue_Missing(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "agent"))

	state, err := s.LoadQueue()
	require.NoError(t, err)
	assert.Empty(t, state.Pending)
	assert.NotNil(t, state.Pending)
	assert.Zero(t, state.TodaySeconds)
}

func TestSaveLoadQueue(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "agent")
	s := New(dir)

	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	e, ok := domain.NewEvent(
		domain.Origin{MachineID: "m", OS: "darwin", Editor: "vscode"},
		domain.ActivityContext{ProjectName: "p", Language: "go", FilePath: domain.StringPtr("/p/a.go")},
		start, start.Add(time.Minute), false,
	)
	require.True(t, ok)

	in := &ports.QueueState{Pending: []domain.Event{e}, TodayDay: "2025-03-01", TodaySeconds: 60}
	require.NoError(t, s.SaveQueue(in))

	_, err := os.Stat(filepath.Join(dir, queueFile+".tmp"))
	assert.True(t, os.IsNotExist(err), "temp file must not survive a save")

	out, err := New(dir).LoadQueue()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestLoadQueue_Corrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, queueFile)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := New(dir).LoadQueue()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ports.ErrCorruptState))

	_, err = os.Stat(path + ".corrupt")
	assert.NoError(t, err)

	state, err := New(dir).LoadQueue()
	require.NoError(t, err)
	assert.Empty(t, state.Pending)
}

func TestMachineID_Stable(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "agent")

	first, err := New(dir).MachineID()
	require.NoError(t, err)
	_, err = uuid.Parse(first)
	require.NoError(t, err)

	second, err := New(dir).MachineID()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMachineID_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, machineIDFile), []byte("  fixed-id \n"), 0o600))

	id, err := New(dir).MachineID()
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", id)
}
