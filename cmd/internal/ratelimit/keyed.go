package ratelimit

import (
	"sync"
	"time"
)

// sweepEvery bounds how often Keyed scans for idle keys.
const sweepEvery = 256

// Keyed holds one Window per key (client IP, user id, ...).
// Idle windows are dropped periodically so the map does not grow without bound.
type Keyed struct {
	limit  int
	window time.Duration

	mu    sync.Mutex
	keys  map[string]*Window
	calls int
}

// NewKeyed constructs a Keyed limiter; each key gets limit events per window.
func NewKeyed(limit int, window time.Duration) *Keyed {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Keyed{
		limit:  limit,
		window: window,
		keys:   make(map[string]*Window),
	}
}

// Allow records an event for key at now if permitted. On rejection it
// returns the wait before the key may try again.
func (k *Keyed) Allow(key string, now time.Time) (bool, time.Duration) {
	k.mu.Lock()
	w := k.keys[key]
	if w == nil {
		w = NewWindow(k.limit, k.window)
		k.keys[key] = w
	}
	k.calls++
	if k.calls%sweepEvery == 0 {
		k.sweepLocked(now)
		k.keys[key] = w
	}
	k.mu.Unlock()

	return w.Reserve(now)
}

// Len returns the number of tracked keys.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.keys)
}

// Sweep drops keys with no events left in the window.
func (k *Keyed) Sweep(now time.Time) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.sweepLocked(now)
}

func (k *Keyed) sweepLocked(now time.Time) {
	for key, w := range k.keys {
		if w.idle(now) {
			delete(k.keys, key)
		}
	}
}
