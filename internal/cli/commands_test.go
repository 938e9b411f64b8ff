package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/timecode/internal/adapters/filestore"
	"github.com/emiliopalmerini/timecode/internal/domain"
	"github.com/emiliopalmerini/timecode/internal/infrastructure/config"
	"github.com/emiliopalmerini/timecode/internal/ports"
)

func TestMigrate_UpAndDown(t *testing.T) {
	isolateEnv(t)

	out := mustExecute(t, "", "migrate")
	assert.Contains(t, out, "Current version: 0")
	assert.Contains(t, out, "Running all pending migrations")

	out = mustExecute(t, "", "migrate", "0")
	assert.NotContains(t, out, "Current version: 0")
}

func TestMigrate_InvalidVersion(t *testing.T) {
	isolateEnv(t)

	_, err := execute(t, "", "migrate", "latest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid version number")
}

func TestRebuild_RecomputesDailyTotals(t *testing.T) {
	isolateEnv(t)
	mustExecute(t, "", "migrate")

	cfg, err := config.LoadServer()
	require.NoError(t, err)
	app, err := NewAppContext(cfg, zerolog.Nop())
	require.NoError(t, err)

	origin := domain.Origin{MachineID: "m", OS: "linux", Editor: "vscode"}
	c := domain.ActivityContext{ProjectName: "alpha", Language: "go"}
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := range 2 {
		e, ok := domain.NewEvent(origin, c, start.Add(time.Duration(i)*time.Hour), start.Add(time.Duration(i)*time.Hour+90*time.Second), false)
		require.True(t, ok)
		inserted, err := app.Repos.Events.Insert(context.Background(), e)
		require.NoError(t, err)
		require.True(t, inserted)
	}
	_, err = app.DB.Exec(`DELETE FROM daily_stats`)
	require.NoError(t, err)
	require.NoError(t, app.Close())

	out := mustExecute(t, "", "rebuild")
	assert.Equal(t, "Rebuilt 1 daily totals from 2 events (timezone UTC)\n", out)

	app, err = NewAppContext(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer app.Close()
	items, err := app.Repos.Stats.DailyTotals(context.Background(), domain.DateRange{From: "2025-03-01", To: "2025-03-01"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(180), items[0].Seconds)
}

func TestStatus_JSON(t *testing.T) {
	dir := isolateEnv(t)
	t.Cleanup(func() { statusJSON = false })

	store := filestore.New(filepath.Join(dir, "agent"))
	require.NoError(t, store.SaveQueue(&ports.QueueState{
		Pending: []domain.Event{
			{ID: "a", StartedAt: "2025-03-01T10:00:00.000Z", DurationSeconds: 60},
			{ID: "b", StartedAt: "2025-03-01T10:01:00.000Z", DurationSeconds: 30},
		},
		TodayDay:     time.Now().Format(domain.DayLayout),
		TodaySeconds: 7500,
	}))

	out := mustExecute(t, "", "status", "--json")

	var got queueSummary
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 2, got.Pending)
	assert.Equal(t, int64(90), got.PendingSecs)
	assert.Equal(t, int64(7500), got.TodaySeconds)
	assert.Equal(t, "2025-03-01T10:00:00.000Z", got.Oldest)
}

func TestStatus_Text(t *testing.T) {
	isolateEnv(t)

	out := mustExecute(t, "", "status")
	assert.Contains(t, out, "Today:      0m")
	assert.Contains(t, out, "Pending:    0 events, 0m")
	assert.NotContains(t, out, "Oldest")
}

func TestSummarizeQueue_StaleToday(t *testing.T) {
	now := time.Date(2025, 3, 2, 8, 0, 0, 0, time.Local)
	s := summarizeQueue(&ports.QueueState{TodayDay: "2025-03-01", TodaySeconds: 100}, now)
	assert.Equal(t, "2025-03-02", s.Today)
	assert.Zero(t, s.TodaySeconds)
}

type ingestRecorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *ingestRecorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch req.URL.Path {
	case "/api/v1/events":
		var body struct {
			Events []domain.Event `json:"events"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		r.mu.Lock()
		r.events = append(r.events, body.Events...)
		r.mu.Unlock()
		_ = json.NewEncoder(w).Encode(domain.IngestResult{Accepted: len(body.Events)})
	case "/api/v1/stats/daily-totals":
		_, _ = w.Write([]byte(`{"range":{},"items":[]}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (r *ingestRecorder) received() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Event(nil), r.events...)
}

func TestTrack_DeliversSegmentOnShutdown(t *testing.T) {
	dir := isolateEnv(t)
	rec := &ingestRecorder{}
	srv := httptest.NewServer(rec)
	defer srv.Close()
	t.Setenv("TIMECODE_API_BASE_URL", srv.URL)
	t.Setenv("TIMECODE_EDITOR", "neovim")

	stdin := strings.Join([]string{
		`{"type":"context-changed","at":"2025-03-01T10:00:00.000Z","context":{"projectName":"alpha","language":"go"}}`,
		`not json`,
		`{"type":"shutdown","at":"2025-03-01T10:00:30.000Z"}`,
	}, "\n") + "\n"

	mustExecute(t, stdin, "track")

	events := rec.received()
	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, "alpha", e.ProjectName)
	assert.Equal(t, "neovim", e.Editor)
	assert.Equal(t, int64(30), e.DurationSeconds)
	assert.Equal(t, domain.ComputeEventID(e), e.ID)

	id, err := os.ReadFile(filepath.Join(dir, "agent", "machine-id"))
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(string(id)), e.MachineID)

	state, err := filestore.New(filepath.Join(dir, "agent")).LoadQueue()
	require.NoError(t, err)
	assert.Empty(t, state.Pending)
}

func TestTrack_KeepsEventsWhenServerIsDown(t *testing.T) {
	dir := isolateEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	t.Setenv("TIMECODE_API_BASE_URL", srv.URL)

	stdin := `{"type":"edit","at":"2025-03-01T10:00:00.000Z","context":{"projectName":"beta"}}` + "\n" +
		`{"type":"shutdown","at":"2025-03-01T10:00:20.000Z"}` + "\n"
	mustExecute(t, stdin, "track")

	state, err := filestore.New(filepath.Join(dir, "agent")).LoadQueue()
	require.NoError(t, err)
	require.Len(t, state.Pending, 1)
	assert.Equal(t, "beta", state.Pending[0].ProjectName)
	assert.True(t, state.Pending[0].IsWrite)
}

func TestReadSignals(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"status"}`,
		``,
		`{"type":"bogus"}`,
		`{"type":"focus-changed","focused":false}`,
	}, "\n")

	out := make(chan any)
	go readSignals(context.Background(), strings.NewReader(input), out, zerolog.Nop())

	var got []any
	for sig := range out {
		got = append(got, sig)
	}
	require.Len(t, got, 2)
	assert.IsType(t, &domain.ControlSignal{}, got[0])
	assert.IsType(t, &domain.FocusSignal{}, got[1])
}

func TestReadSignals_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan any)
	done := make(chan struct{})
	go func() {
		readSignals(ctx, strings.NewReader(`{"type":"flush"}`+"\n"+`{"type":"flush"}`), out, zerolog.Nop())
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reader did not stop after cancel")
	}
	_, open := <-out
	assert.False(t, open)
}
