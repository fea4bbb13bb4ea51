package realtime

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"sampleapp/cmd/identity"
	"sampleapp/cmd/internal/ratelimit"
)

// Identifier resolves the signed-in user of a request.
// *session.Manager satisfies it.
type Identifier interface {
	CurrentIdentity(r *http.Request) (identity.User, bool, error)
}

// GatewayConfig controls the feed socket.
type GatewayConfig struct {
	// AllowedOrigins is the browser origin allowlist (shared with CORS).
	AllowedOrigins []string
	// OriginRequired rejects upgrades without an Origin header.
	OriginRequired bool

	WriteTimeout     time.Duration
	ReadIdleTimeout  time.Duration
	SendQueueSize    int
	HeartbeatEvery   time.Duration
	HeartbeatTimeout time.Duration
	RateEvents       int
	RateWindow       time.Duration
}

// DefaultGatewayConfig returns localhost-only development defaults.
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		AllowedOrigins:   []string{"http://localhost", "http://127.0.0.1"},
		OriginRequired:   true,
		WriteTimeout:     defaultWriteTimeout,
		ReadIdleTimeout:  defaultReadIdle,
		SendQueueSize:    defaultSendQueueSize,
		HeartbeatEvery:   heartbeatInterval,
		HeartbeatTimeout: heartbeatTimeout,
		RateEvents:       rateLimitEvents,
		RateWindow:       rateLimitWindow,
	}
}

func (c GatewayConfig) normalized() GatewayConfig {
	d := DefaultGatewayConfig()
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.ReadIdleTimeout <= 0 {
		c.ReadIdleTimeout = d.ReadIdleTimeout
	}
	if c.SendQueueSize < minSendQueueSize {
		c.SendQueueSize = minSendQueueSize
	}
	if c.HeartbeatEvery <= 0 {
		c.HeartbeatEvery = d.HeartbeatEvery
	}
	if c.HeartbeatTimeout <= 0 {
		c.HeartbeatTimeout = d.HeartbeatTimeout
	}
	if c.RateEvents <= 0 {
		c.RateEvents = d.RateEvents
	}
	if c.RateWindow <= 0 {
		c.RateWindow = d.RateWindow
	}
	return c
}

// FeedGateway is the /ws/feed endpoint.
type FeedGateway struct {
	log      *slog.Logger
	hub      *Hub
	sessions Identifier
	cfg      GatewayConfig

	// Derived for websocket.Accept, which only authorizes same-host origins on its own.
	originPatterns []string
}

// NewFeedGateway constructs a gateway.
func NewFeedGateway(log *slog.Logger, hub *Hub, sessions Identifier, cfg GatewayConfig) *FeedGateway {
	if log == nil {
		log = slog.Default()
	}
	if hub == nil {
		hub = NewHub(log, nil)
	}
	cfg = cfg.normalized()
	return &FeedGateway{
		log:            log,
		hub:            hub,
		sessions:       sessions,
		cfg:            cfg,
		originPatterns: deriveOriginPatterns(cfg.AllowedOrigins),
	}
}

// ServeHTTP upgrades a signed-in request and streams the user's events.
func (g *FeedGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := enforceOrigin(r, g.cfg.AllowedOrigins, g.cfg.OriginRequired); err != nil {
		g.log.Info("ws.reject.origin", "err", err, "origin", r.Header.Get("Origin"), "remote", r.RemoteAddr)
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	user, ok, err := g.sessions.CurrentIdentity(r)
	if err != nil {
		g.log.Error("ws.auth.fail", "err", err)
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	if !ok {
		g.log.Info("ws.reject.unauthenticated", "remote", r.RemoteAddr)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: g.originPatterns,
	})
	if err != nil {
		g.log.Error("ws.accept.fail", "err", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	conn.SetReadLimit(maxFrameBytes)

	now := time.Now().UTC()
	clientID, err := identity.NewULID(now)
	if err != nil {
		_ = conn.Close(websocket.StatusInternalError, "id")
		return
	}
	client := NewClient(clientID, user.ID, g.cfg.SendQueueSize)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var closeOnce sync.Once
	shutdown := func(code websocket.StatusCode, reason string) {
		closeOnce.Do(func() {
			g.hub.Unsubscribe(client)
			_ = conn.Close(code, reason)
			cancel()
		})
	}

	// hello goes first so it precedes any published event.
	client.offer(Event{Type: TypeHello, UserID: user.ID, At: now})
	g.hub.Subscribe(client)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case <-client.Done():
				return
			case ev := <-client.Send:
				if err := writeEvent(ctx, conn, ev, g.cfg.WriteTimeout); err != nil {
					g.log.Info("ws.write.fail", "client_id", client.ID, "close_status", websocket.CloseStatus(err), "err", err)
					shutdown(websocket.StatusAbnormalClosure, "write failed")
					return
				}
			}
		}
	}()

	heartbeatDone := make(chan struct{})
	go func() {
		defer close(heartbeatDone)

		t := time.NewTicker(g.cfg.HeartbeatEvery)
		defer t.Stop()

		failures := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-client.Done():
				return
			case <-t.C:
				hbCtx, hbCancel := context.WithTimeout(ctx, g.cfg.HeartbeatTimeout)
				err := conn.Ping(hbCtx)
				hbCancel()

				if err != nil {
					failures++
					g.log.Info("ws.ping.fail", "client_id", client.ID, "failures", failures, "err", err)
					if failures >= maxPingFailures {
						shutdown(websocket.StatusGoingAway, "heartbeat failed")
						return
					}
					continue
				}
				failures = 0
			}
		}
	}()

	rl := ratelimit.NewWindow(g.cfg.RateEvents, g.cfg.RateWindow)

readLoop:
	for {
		readCtx, readCancel := context.WithTimeout(ctx, g.cfg.ReadIdleTimeout)
		_, _, err := conn.Read(readCtx)
		readCancel()

		if err != nil {
			switch classifyReadErr(err) {
			case readErrClose:
				shutdown(websocket.StatusNormalClosure, "peer closed")
			case readErrCtxDone:
				shutdown(websocket.StatusNormalClosure, "context done")
			case readErrConnClosed:
				shutdown(websocket.StatusAbnormalClosure, "conn closed")
			default:
				g.log.Info("ws.read.fail", "client_id", client.ID, "err", err)
				shutdown(websocket.StatusAbnormalClosure, "read failed")
			}
			break readLoop
		}

		// Inbound frames carry no commands; they only count against the limit.
		if !rl.Allow(time.Now().UTC()) {
			client.offer(Event{Type: TypeError, Code: "rate_limited", Message: "too many frames", At: time.Now().UTC()})
			shutdown(websocket.StatusPolicyViolation, "rate limited")
			break readLoop
		}
	}

	shutdown(websocket.StatusNormalClosure, "bye")
	<-writerDone

	select {
	case <-heartbeatDone:
	case <-time.After(closeGrace):
	}
}

func writeEvent(parent context.Context, conn *websocket.Conn, ev Event, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()
	return wsjson.Write(ctx, conn, ev)
}

// ---- read error classification ----

type readErrKind uint8

const (
	readErrUnknown readErrKind = iota
	readErrClose
	readErrCtxDone
	readErrConnClosed
)

func classifyReadErr(err error) readErrKind {
	if websocket.CloseStatus(err) != -1 {
		return readErrClose
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return readErrCtxDone
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) {
		return readErrConnClosed
	}
	return readErrUnknown
}
