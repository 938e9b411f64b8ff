// Package outbox buffers finished events on the client and delivers them to
// the server in batches, retrying with exponential backoff until they are
// acknowledged.
package outbox

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/emiliopalmerini/timecode/internal/domain"
	"github.com/emiliopalmerini/timecode/internal/ports"
)

const (
	DefaultBatchSize = 500

	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

type Config struct {
	BatchSize int
	Location  *time.Location
	Clock     quartz.Clock
	Logger    zerolog.Logger
}

// Status is a point-in-time view of the queue.
type Status struct {
	Pending      int
	TodaySeconds int64
	LastError    string
	Sending      bool
}

type Queue struct {
	sender ports.EventSender
	store  ports.QueueStore
	clock  quartz.Clock
	loc    *time.Location
	logger zerolog.Logger

	batchSize int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.Mutex
	pending      []domain.Event
	todayDay     string
	todaySeconds int64
	sending      bool
	closed       bool
	lastErr      error
	backoff      *backoff.ExponentialBackOff
	retry        *quartz.Timer
}

func New(cfg Config, sender ports.EventSender, store ports.QueueStore) *Queue {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initialBackoff
	b.Multiplier = 2
	b.MaxInterval = maxBackoff
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		sender:    sender,
		store:     store,
		clock:     cfg.Clock,
		loc:       cfg.Location,
		logger:    cfg.Logger,
		batchSize: cfg.BatchSize,
		ctx:       ctx,
		cancel:    cancel,
		pending:   []domain.Event{},
		backoff:   b,
	}
}

// Restore loads the persisted queue. A corrupt file is set aside and the
// queue starts empty.
func (q *Queue) Restore() error {
	state, err := q.store.LoadQueue()
	if err != nil {
		if errors.Is(err, ports.ErrCorruptState) {
			q.logger.Warn().Err(err).Msg("Discarding unreadable queue file")
			return nil
		}
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, state.Pending...)
	q.todayDay = state.TodayDay
	q.todaySeconds = state.TodaySeconds
	pendingEvents.Set(float64(len(q.pending)))
	return nil
}

// Enqueue appends e, persists the queue and starts a flush once a full batch
// is waiting.
func (q *Queue) Enqueue(e domain.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending = append(q.pending, e)
	eventsEnqueuedTotal.Inc()
	pendingEvents.Set(float64(len(q.pending)))

	today := q.rollTodayLocked()
	if domain.DayOf(e.StartTime(), q.loc) == today {
		q.todaySeconds += e.DurationSeconds
	}

	q.persistLocked()

	if len(q.pending) >= q.batchSize {
		q.flushAsyncLocked()
	}
}

// Flush sends up to one batch. Events stay at the front of the queue until
// the server acknowledges them, so a failure leaves the order untouched.
func (q *Queue) Flush(ctx context.Context) error {
	q.mu.Lock()
	if q.sending {
		q.mu.Unlock()
		return ErrFlushInProgress
	}
	if len(q.pending) == 0 {
		q.mu.Unlock()
		return nil
	}
	n := min(len(q.pending), q.batchSize)
	batch := make([]domain.Event, n)
	copy(batch, q.pending[:n])
	q.sending = true
	q.mu.Unlock()

	result, err := q.sender.SendEvents(ctx, batch)

	q.mu.Lock()
	defer q.mu.Unlock()
	q.sending = false

	if err != nil {
		derr := classify(err)
		q.lastErr = derr
		flushesTotal.WithLabelValues("failure").Inc()
		q.scheduleRetryLocked()
		q.logger.Warn().
			Err(derr).
			Int("batch", n).
			Int("pending", len(q.pending)).
			Stringer("category", derr.Category).
			Msg("Flush failed")
		return derr
	}

	q.pending = q.pending[n:]
	q.lastErr = nil
	q.backoff.Reset()
	q.stopRetryLocked()
	flushesTotal.WithLabelValues("success").Inc()
	eventsSentTotal.Add(float64(n))
	pendingEvents.Set(float64(len(q.pending)))
	q.persistLocked()

	q.logger.Debug().
		Int("accepted", result.Accepted).
		Int("duplicates", result.Duplicates).
		Int("pending", len(q.pending)).
		Msg("Flushed events")

	if len(q.pending) > 0 {
		q.flushAsyncLocked()
	}
	return nil
}

// Trigger starts a background flush unless one is already running.
func (q *Queue) Trigger() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.flushAsyncLocked()
}

// ResetBackoff forgets previous failures and cancels any scheduled retry.
func (q *Queue) ResetBackoff() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.backoff.Reset()
	q.stopRetryLocked()
}

// SyncToday replaces the local today total with the server's figure.
func (q *Queue) SyncToday(ctx context.Context) error {
	day := q.clock.Now().In(q.loc).Format(domain.DayLayout)
	total, err := q.sender.DailyTotal(ctx, day)
	if err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.todayDay = day
	q.todaySeconds = total
	q.persistLocked()
	return nil
}

func (q *Queue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()

	s := Status{
		Pending: len(q.pending),
		Sending: q.sending,
	}
	if q.todayDay == q.clock.Now().In(q.loc).Format(domain.DayLayout) {
		s.TodaySeconds = q.todaySeconds
	}
	if q.lastErr != nil {
		s.LastError = q.lastErr.Error()
	}
	return s
}

// Close stops background work, makes one last delivery attempt bounded by
// ctx and persists whatever is left.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.stopRetryLocked()
	q.mu.Unlock()

	idle := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(idle)
	}()

	var err error
	select {
	case <-idle:
		err = q.Flush(ctx)
	case <-ctx.Done():
		err = ctx.Err()
	}
	q.cancel()

	q.mu.Lock()
	defer q.mu.Unlock()
	q.persistLocked()
	return err
}

func (q *Queue) rollTodayLocked() string {
	today := q.clock.Now().In(q.loc).Format(domain.DayLayout)
	if q.todayDay != today {
		q.todayDay = today
		q.todaySeconds = 0
	}
	return today
}

func (q *Queue) persistLocked() {
	pending := make([]domain.Event, len(q.pending))
	copy(pending, q.pending)
	state := &ports.QueueState{
		Pending:      pending,
		TodayDay:     q.todayDay,
		TodaySeconds: q.todaySeconds,
	}
	if err := q.store.SaveQueue(state); err != nil {
		q.logger.Error().Err(err).Int("pending", len(pending)).Msg("Failed to persist queue")
	}
}

func (q *Queue) flushAsyncLocked() {
	if q.closed || q.sending {
		return
	}
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		if err := q.Flush(q.ctx); err != nil && !errors.Is(err, ErrFlushInProgress) {
			q.logger.Debug().Err(err).Msg("Background flush failed")
		}
	}()
}

func (q *Queue) scheduleRetryLocked() {
	if q.closed {
		return
	}
	q.stopRetryLocked()
	delay := q.backoff.NextBackOff()
	var timer *quartz.Timer
	timer = q.clock.AfterFunc(delay, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		if q.retry == timer {
			q.retry = nil
		}
		q.flushAsyncLocked()
	}, "outbox", "retry")
	q.retry = timer
}

func (q *Queue) stopRetryLocked() {
	if q.retry != nil {
		q.retry.Stop()
		q.retry = nil
	}
}
