package realtime

import "sync"

// Client represents one connected feed socket.
//
// Send is never closed by the server, so concurrent publishers cannot panic;
// done signals the connection goroutines to stop. Close is idempotent.
type Client struct {
	ID     string
	UserID string
	Send   chan Event

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient constructs a Client with a bounded send queue.
func NewClient(id, userID string, sendQueueSize int) *Client {
	if sendQueueSize <= 0 {
		sendQueueSize = defaultSendQueueSize
	}
	return &Client{
		ID:     id,
		UserID: userID,
		Send:   make(chan Event, sendQueueSize),
		done:   make(chan struct{}),
	}
}

// Done returns a channel that is closed when the client is shutting down.
func (c *Client) Done() <-chan struct{} {
	if c == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return c.done
}

// Close signals the client goroutines to stop.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// offer enqueues ev without blocking. It reports false when the client is
// closing or its queue is full.
func (c *Client) offer(ev Event) bool {
	select {
	case <-c.Done():
		return false
	default:
	}

	select {
	case c.Send <- ev:
		return true
	default:
		return false
	}
}
