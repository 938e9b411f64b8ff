package tracker

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/emiliopalmerini/timecode/internal/domain"
	"github.com/emiliopalmerini/timecode/internal/outbox"
)

const (
	DefaultFlushInterval   = 30 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
)

// Endpoint is the part of the HTTP client the agent reconfigures at runtime.
type Endpoint interface {
	SetBaseURL(baseURL string)
}

type AgentConfig struct {
	Origin          domain.Origin
	Settings        domain.Settings
	FlushInterval   time.Duration
	ShutdownTimeout time.Duration
	Clock           quartz.Clock
	Logger          zerolog.Logger
	// Out receives one JSON line per status signal.
	Out io.Writer
}

// Agent owns a Builder and feeds its events into the outbound queue. All
// builder access happens on the Run goroutine.
type Agent struct {
	builder  *Builder
	queue    *outbox.Queue
	endpoint Endpoint
	clock    quartz.Clock
	logger   zerolog.Logger

	flushInterval   time.Duration
	shutdownTimeout time.Duration

	outMu sync.Mutex
	out   io.Writer

	wg sync.WaitGroup
}

func NewAgent(cfg AgentConfig, queue *outbox.Queue, endpoint Endpoint) *Agent {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	return &Agent{
		builder:         NewBuilder(cfg.Origin, cfg.Settings),
		queue:           queue,
		endpoint:        endpoint,
		clock:           cfg.Clock,
		logger:          cfg.Logger,
		flushInterval:   cfg.FlushInterval,
		shutdownTimeout: cfg.ShutdownTimeout,
		out:             cfg.Out,
	}
}

// Run processes signals until ctx is cancelled, the channel is closed or a
// shutdown signal arrives. In every case the open segment is closed and the
// queue gets one bounded flush before Run returns.
func (a *Agent) Run(ctx context.Context, signals <-chan any) error {
	settings := a.builder.Settings()
	heartbeat := a.clock.NewTicker(settings.Heartbeat(), "agent", "heartbeat")
	defer heartbeat.Stop()
	flush := a.clock.NewTicker(a.flushInterval, "agent", "flush")
	defer flush.Stop()

	if endpoint := a.endpoint; endpoint != nil {
		endpoint.SetBaseURL(settings.APIBaseURL)
	}
	a.syncToday(ctx)

	a.logger.Info().
		Str("state", string(a.builder.State())).
		Dur("heartbeat", settings.Heartbeat()).
		Dur("flush_interval", a.flushInterval).
		Msg("Agent started")

	for {
		select {
		case <-ctx.Done():
			return a.shutdown(a.clock.Now())

		case sig, ok := <-signals:
			if !ok {
				return a.shutdown(a.clock.Now())
			}
			if s, stop := sig.(*domain.ShutdownSignal); stop {
				return a.shutdown(a.at(s.At))
			}
			a.handle(ctx, sig, heartbeat)

		case tick := <-heartbeat.C:
			a.emit(a.builder.Heartbeat(tick))

		case <-flush.C:
			a.queue.Trigger()
		}
	}
}

func (a *Agent) handle(ctx context.Context, sig any, heartbeat *quartz.Ticker) {
	switch s := sig.(type) {
	case *domain.ActivitySignal:
		a.emit(a.builder.Activity(a.at(s.At), s.Context, s.IsWrite()))

	case *domain.FocusSignal:
		a.emit(a.builder.Focus(a.at(s.At), s.Focused, s.Context))

	case *domain.ConfigSignal:
		a.configure(ctx, a.at(s.At), s.Config, heartbeat)

	case *domain.ControlSignal:
		switch s.Type {
		case domain.SignalFlush:
			a.queue.Trigger()
		case domain.SignalRestartConnection:
			a.queue.ResetBackoff()
			a.queue.Trigger()
		case domain.SignalStatus:
			a.writeStatus()
		}

	default:
		a.logger.Warn().Interface("signal", sig).Msg("Ignoring unsupported signal")
	}
}

func (a *Agent) configure(ctx context.Context, at time.Time, patch domain.SettingsPatch, heartbeat *quartz.Ticker) {
	prev := a.builder.Settings()
	next := prev.Apply(patch)
	a.emit(a.builder.Configure(at, next))

	if next.HeartbeatSeconds != prev.HeartbeatSeconds {
		heartbeat.Reset(next.Heartbeat(), "agent", "heartbeat")
	}
	if next.APIBaseURL != prev.APIBaseURL {
		if a.endpoint != nil {
			a.endpoint.SetBaseURL(next.APIBaseURL)
		}
		a.queue.ResetBackoff()
		a.syncToday(ctx)
	}

	a.logger.Info().
		Bool("enabled", next.Enabled).
		Int("heartbeat_seconds", next.HeartbeatSeconds).
		Int("idle_threshold_seconds", next.IdleThresholdSeconds).
		Bool("include_file_paths", next.IncludeFilePaths).
		Bool("include_project_paths", next.IncludeProjectPaths).
		Str("api_base_url", next.APIBaseURL).
		Msg("Settings updated")
}

// Status reports the agent's state. It must be called from the Run goroutine
// or after Run returned.
func (a *Agent) Status() domain.TrackerStatus {
	qs := a.queue.Status()
	settings := a.builder.Settings()

	state := a.builder.State()
	if state != domain.StateDisabled && qs.LastError != "" {
		state = domain.StateError
	}
	return domain.TrackerStatus{
		State:        state,
		Label:        state.Label(),
		TodaySeconds: qs.TodaySeconds + a.builder.OpenSeconds(a.clock.Now()),
		Pending:      qs.Pending,
		LastError:    qs.LastError,
		APIBaseURL:   settings.APIBaseURL,
	}
}

func (a *Agent) writeStatus() {
	line, err := json.Marshal(a.Status())
	if err != nil {
		a.logger.Error().Err(err).Msg("Failed to encode status")
		return
	}

	a.outMu.Lock()
	defer a.outMu.Unlock()
	if _, err := a.out.Write(append(line, '\n')); err != nil {
		a.logger.Error().Err(err).Msg("Failed to write status")
	}
}

func (a *Agent) emit(e domain.Event, ok bool) {
	if !ok {
		return
	}
	a.queue.Enqueue(e)
	a.logger.Debug().
		Str("id", e.ID).
		Str("project", e.ProjectName).
		Str("language", e.Language).
		Int64("seconds", e.DurationSeconds).
		Bool("write", e.IsWrite).
		Msg("Segment closed")
}

// syncToday refreshes the local today total in the background.
func (a *Agent) syncToday(ctx context.Context) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.queue.SyncToday(ctx); err != nil {
			a.logger.Debug().Err(err).Msg("Could not read today's total from server")
		}
	}()
}

func (a *Agent) shutdown(at time.Time) error {
	a.emit(a.builder.Shutdown(at))

	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	err := a.queue.Close(ctx)
	a.wg.Wait()

	st := a.queue.Status()
	a.logger.Info().Int("pending", st.Pending).Msg("Agent stopped")
	if err != nil {
		a.logger.Warn().Err(err).Msg("Final flush failed; events kept for next start")
	}
	return nil
}

func (a *Agent) at(t time.Time) time.Time {
	if t.IsZero() {
		return a.clock.Now()
	}
	return t
}
