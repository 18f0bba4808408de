package stopwatch

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
)

// Timer accumulates elapsed time over one or more running segments.
// It is not safe for concurrent mutation; readers on the same goroutine may
// call Elapsed as often as they like.
type Timer struct {
	// clock is the time source for segment boundaries.
	clock clock.Clock
	// total is the time accumulated by already finished segments.
	total time.Duration
	// segmentStart is when the current segment began. Zero while stopped.
	segmentStart time.Time
	// running reports whether a segment is open.
	running bool
}

// Option configures a Timer.
type Option func(*Timer)

// WithClock sets the time source used by the timer.
func WithClock(c clock.Clock) Option {
	return func(t *Timer) {
		if c != nil {
			t.clock = c
		}
	}
}

// New creates a stopped timer with zero elapsed time.
func New(opts ...Option) *Timer {
	t := &Timer{
		clock: clock.New(),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Start opens a new segment. Calling Start on a running timer does nothing.
func (t *Timer) Start() {
	if t.running {
		return
	}

	t.segmentStart = t.clock.Now()
	t.running = true
}

// Stop closes the current segment and adds it to the total.
// Calling Stop on a stopped timer does nothing.
func (t *Timer) Stop() {
	if !t.running {
		return
	}

	t.total += t.since(t.segmentStart)
	t.segmentStart = time.Time{}
	t.running = false
}

// Reset zeroes the accumulated time. A running timer keeps running and
// starts counting again from now.
func (t *Timer) Reset() {
	t.total = 0

	if t.running {
		t.segmentStart = t.clock.Now()
	}
}

// Elapsed returns the accumulated time including the open segment, if any.
func (t *Timer) Elapsed() time.Duration {
	if !t.running {
		return t.total
	}

	return t.total + t.since(t.segmentStart)
}

// Running reports whether a segment is currently open.
func (t *Timer) Running() bool {
	return t.running
}

// since returns the non-negative time passed since start.
func (t *Timer) since(start time.Time) time.Duration {
	d := t.clock.Since(start)
	if d < 0 {
		return 0
	}

	return d
}

// Format renders d as HH:MM:SS.cc for display.
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	d = d.Truncate(10 * time.Millisecond)

	var (
		hours   = d / time.Hour
		minutes = (d % time.Hour) / time.Minute
		seconds = float64(d%time.Minute) / float64(time.Second)
	)

	return fmt.Sprintf("%02d:%02d:%05.2f", hours, minutes, seconds)
}
