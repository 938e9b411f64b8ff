// Package tracker turns editor signals into closed activity segments.
package tracker

import (
	"time"

	"github.com/emiliopalmerini/timecode/internal/domain"
)

// Builder is the segment state machine. It holds no clock and no goroutines;
// every transition takes the instant it happened at.
type Builder struct {
	origin   domain.Origin
	settings domain.Settings

	tracking     bool
	current      domain.ActivityContext
	last         *domain.ActivityContext
	start        time.Time
	lastActivity time.Time
	isWrite      bool
}

func NewBuilder(origin domain.Origin, settings domain.Settings) *Builder {
	return &Builder{origin: origin, settings: settings.Clamp()}
}

func (b *Builder) Settings() domain.Settings {
	return b.settings
}

// State is Disabled, Tracking or Idle. The Error state is decided by the
// agent, which knows about delivery failures.
func (b *Builder) State() domain.TrackerState {
	switch {
	case !b.settings.Enabled:
		return domain.StateDisabled
	case b.tracking:
		return domain.StateTracking
	default:
		return domain.StateIdle
	}
}

// Activity records an edit, save, context switch or focus gain. A different
// context closes the open segment at the signal time and opens a new one.
// Activity after an unobserved idle gap closes the segment at the last
// activity and starts over at the signal time.
func (b *Builder) Activity(at time.Time, c domain.ActivityContext, isWrite bool) (domain.Event, bool) {
	if !b.settings.Enabled {
		return domain.Event{}, false
	}
	c = c.Normalize()

	var (
		e      domain.Event
		closed bool
	)
	switch {
	case !b.tracking:
		b.open(at, c)
	case at.Sub(b.lastActivity) > b.settings.IdleThreshold():
		e, closed = b.close(b.lastActivity)
		b.open(at, c)
	case !b.current.Equal(c):
		e, closed = b.close(at)
		b.open(at, c)
	}

	b.lastActivity = at
	if isWrite {
		b.isWrite = true
	}
	return e, closed
}

// Focus handles the editor window gaining or losing focus. On gain without a
// context the last known context resumes.
func (b *Builder) Focus(at time.Time, focused bool, c *domain.ActivityContext) (domain.Event, bool) {
	if !focused {
		return b.Blur(at)
	}
	switch {
	case c != nil:
		return b.Activity(at, *c, false)
	case b.tracking:
		return b.Activity(at, b.current, false)
	case b.last != nil:
		return b.Activity(at, *b.last, false)
	default:
		return domain.Event{}, false
	}
}

// Heartbeat closes the open segment. Recent activity reopens the same context
// at the tick; otherwise the segment ends at the last activity and the
// builder goes idle.
func (b *Builder) Heartbeat(at time.Time) (domain.Event, bool) {
	if !b.settings.Enabled || !b.tracking {
		return domain.Event{}, false
	}

	if at.Sub(b.lastActivity) > b.settings.IdleThreshold() {
		e, ok := b.close(b.lastActivity)
		b.tracking = false
		return e, ok
	}

	e, ok := b.close(at)
	b.open(at, b.current)
	return e, ok
}

// Blur closes the open segment at the focus-lost time.
func (b *Builder) Blur(at time.Time) (domain.Event, bool) {
	if !b.settings.Enabled || !b.tracking {
		return domain.Event{}, false
	}
	e, ok := b.close(at)
	b.tracking = false
	return e, ok
}

// Shutdown closes the open segment at the shutdown time.
func (b *Builder) Shutdown(at time.Time) (domain.Event, bool) {
	return b.Blur(at)
}

// Configure replaces the settings. Disabling closes the open segment first.
func (b *Builder) Configure(at time.Time, s domain.Settings) (domain.Event, bool) {
	s = s.Clamp()

	var (
		e      domain.Event
		closed bool
	)
	if b.settings.Enabled && !s.Enabled && b.tracking {
		e, closed = b.close(at)
		b.tracking = false
	}
	b.settings = s
	return e, closed
}

// OpenSeconds is the whole seconds accrued by the open segment at now, zero
// when idle or when the last activity is past the idle threshold.
func (b *Builder) OpenSeconds(now time.Time) int64 {
	if !b.settings.Enabled || !b.tracking || now.Sub(b.lastActivity) > b.settings.IdleThreshold() {
		return 0
	}
	if s := int64(now.Sub(b.start) / time.Second); s > 0 {
		return s
	}
	return 0
}

func (b *Builder) open(at time.Time, c domain.ActivityContext) {
	b.tracking = true
	b.current = c
	last := c
	b.last = &last
	b.start = at
	b.isWrite = false
}

// close builds the event for [start, end) with paths redacted by the
// settings in force at close time.
func (b *Builder) close(end time.Time) (domain.Event, bool) {
	c := b.current.Redact(b.settings.IncludeProjectPaths, b.settings.IncludeFilePaths)
	e, ok := domain.NewEvent(b.origin, c, b.start, end, b.isWrite)
	b.isWrite = false
	return e, ok
}
