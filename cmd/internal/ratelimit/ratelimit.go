// Package ratelimit provides in-process sliding-window limiters.
package ratelimit

import (
	"sync"
	"time"
)

// Defaults used when constructors receive non-positive inputs.
const (
	DefaultLimit  = 20
	DefaultWindow = 5 * time.Minute
)

// Window is a sliding-window limiter for a single subject.
type Window struct {
	mu     sync.Mutex
	events []time.Time
	limit  int
	window time.Duration
}

// NewWindow constructs a Window with safe defaults when inputs are invalid.
func NewWindow(limit int, window time.Duration) *Window {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Window{
		events: make([]time.Time, 0, limit+8),
		limit:  limit,
		window: window,
	}
}

// Allow reports whether an event at time "now" should be permitted.
// Permitted events are recorded; rejected ones are not.
func (w *Window) Allow(now time.Time) bool {
	ok, _ := w.Reserve(now)
	return ok
}

// Reserve is Allow plus, on rejection, how long until the oldest recorded
// event leaves the window.
func (w *Window) Reserve(now time.Time) (bool, time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.prune(now)

	if len(w.events) >= w.limit {
		return false, w.events[0].Add(w.window).Sub(now)
	}
	w.events = append(w.events, now)
	return true, 0
}

// idle reports whether no events remain in the window at now.
func (w *Window) idle(now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.prune(now)
	return len(w.events) == 0
}

func (w *Window) prune(now time.Time) {
	cut := now.Add(-w.window)
	dst := w.events[:0]
	for _, t := range w.events {
		if t.After(cut) {
			dst = append(dst, t)
		}
	}
	w.events = dst
}

// Evaluate applies the window rule to a list of past events without
// recording anything. It reports whether a new event would be blocked and,
// if so, the wait until the oldest in-window event expires.
func Evaluate(now time.Time, events []time.Time, limit int, window time.Duration) (bool, time.Duration) {
	if limit <= 0 || window <= 0 {
		return false, 0
	}
	cut := now.Add(-window)

	var (
		count  int
		oldest time.Time
	)
	for _, t := range events {
		if !t.After(cut) {
			continue
		}
		count++
		if oldest.IsZero() || t.Before(oldest) {
			oldest = t
		}
	}
	if count < limit {
		return false, 0
	}
	return true, oldest.Add(window).Sub(now)
}
