package realtime

import (
	"log/slog"
	"sync"

	"sampleapp/cmd/internal/metrics"
	"sampleapp/cmd/internal/micropost"
)

// Hub tracks feed clients per user and fans events out to them.
//
// Publish never blocks: an event for a client whose queue is full is dropped.
type Hub struct {
	log     *slog.Logger
	metrics *metrics.Metrics

	mu     sync.RWMutex
	byUser map[string]map[string]*Client
}

// NewHub constructs a Hub. m may be nil.
func NewHub(log *slog.Logger, m *metrics.Metrics) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:     log,
		metrics: m,
		byUser:  make(map[string]map[string]*Client),
	}
}

// Subscribe registers c for its user's events.
func (h *Hub) Subscribe(c *Client) {
	if h == nil || c == nil || c.ID == "" || c.UserID == "" {
		return
	}

	h.mu.Lock()
	set := h.byUser[c.UserID]
	if set == nil {
		set = make(map[string]*Client)
		h.byUser[c.UserID] = set
	}
	set[c.ID] = c
	h.mu.Unlock()

	h.metrics.FeedClientConnected()
	h.log.Info("feed.client.join", "client_id", c.ID, "user_id", c.UserID)
}

// Unsubscribe removes c, then signals it to shut down.
func (h *Hub) Unsubscribe(c *Client) {
	if h == nil || c == nil {
		return
	}

	h.mu.Lock()
	set := h.byUser[c.UserID]
	_, present := set[c.ID]
	delete(set, c.ID)
	if len(set) == 0 {
		delete(h.byUser, c.UserID)
	}
	h.mu.Unlock()

	// Removal happens before Close so a publisher holding the set never
	// sends to a client whose goroutines are gone.
	c.Close()

	if present {
		h.metrics.FeedClientDisconnected()
		h.log.Info("feed.client.leave", "client_id", c.ID, "user_id", c.UserID)
	}
}

// Publish delivers ev to every client of userID and returns how many accepted it.
func (h *Hub) Publish(userID string, ev Event) int {
	if h == nil {
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, c := range h.byUser[userID] {
		if c.offer(ev) {
			delivered++
			continue
		}
		h.metrics.FeedEventDropped()
	}
	return delivered
}

// Clients returns the number of connected clients for userID.
func (h *Hub) Clients(userID string) int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID])
}

// MicropostCreated implements micropost.Publisher.
func (h *Hub) MicropostCreated(p micropost.Micropost) {
	h.Publish(p.UserID, micropostEvent(TypeMicropostCreated, p))
}

// MicropostDeleted implements micropost.Publisher.
func (h *Hub) MicropostDeleted(p micropost.Micropost) {
	h.Publish(p.UserID, micropostEvent(TypeMicropostDeleted, p))
}
