package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sampleapp/cmd/identity"
	"sampleapp/cmd/internal/auth/session"
	"sampleapp/cmd/internal/micropost"
)

type gatewayFixture struct {
	hub    *Hub
	srv    *httptest.Server
	user   identity.User
	cookie string
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()

	users := identity.NewMemoryStore()
	u, err := users.CreateUser(context.Background(), identity.CreateUserInput{
		Name:                 "Example User",
		Email:                "user@example.com",
		Password:             "foobar",
		PasswordConfirmation: "foobar",
	})
	require.NoError(t, err)

	cfg := session.DefaultConfig()
	cfg.Secret = []byte(strings.Repeat("k", 32))
	mgr, err := session.NewManager(cfg, identity.NewAuthenticator(users))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, mgr.SignIn(rec, httptest.NewRequest(http.MethodPost, "/sessions", nil), u))
	var cookie string
	for _, c := range rec.Result().Cookies() {
		if c.Name == cfg.CookieName {
			cookie = c.Name + "=" + c.Value
		}
	}
	require.NotEmpty(t, cookie)

	hub := NewHub(nil, nil)
	gwCfg := DefaultGatewayConfig()
	gwCfg.HeartbeatEvery = time.Hour
	gw := NewFeedGateway(nil, hub, mgr, gwCfg)

	srv := httptest.NewServer(mgr.Middleware(gw))
	t.Cleanup(srv.Close)

	return &gatewayFixture{hub: hub, srv: srv, user: u, cookie: cookie}
}

func (f *gatewayFixture) dial(ctx context.Context, origin, cookie string) (*websocket.Conn, *http.Response, error) {
	h := http.Header{}
	if origin != "" {
		h.Set("Origin", origin)
	}
	if cookie != "" {
		h.Set("Cookie", cookie)
	}
	return websocket.Dial(ctx, "ws"+strings.TrimPrefix(f.srv.URL, "http"), &websocket.DialOptions{HTTPHeader: h})
}

func TestFeedGateway_StreamsOwnEvents(t *testing.T) {
	t.Parallel()

	f := newGatewayFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, resp, err := f.dial(ctx, "http://localhost", f.cookie)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	require.NoError(t, err)
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	var hello Event
	require.NoError(t, wsjson.Read(ctx, conn, &hello))
	assert.Equal(t, TypeHello, hello.Type)
	assert.Equal(t, f.user.ID, hello.UserID)

	// Subscription happens right after hello is queued; wait for it.
	require.Eventually(t, func() bool { return f.hub.Clients(f.user.ID) == 1 }, 2*time.Second, 10*time.Millisecond)

	f.hub.MicropostCreated(micropost.Micropost{ID: "p1", UserID: f.user.ID, Content: "Lorem ipsum"})

	var ev Event
	require.NoError(t, wsjson.Read(ctx, conn, &ev))
	assert.Equal(t, TypeMicropostCreated, ev.Type)
	require.NotNil(t, ev.Micropost)
	assert.Equal(t, "Lorem ipsum", ev.Micropost.Content)

	_ = conn.Close(websocket.StatusNormalClosure, "done")
	require.Eventually(t, func() bool { return f.hub.Clients(f.user.ID) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestFeedGateway_RejectsAnonymous(t *testing.T) {
	t.Parallel()

	f := newGatewayFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, resp, err := f.dial(ctx, "http://localhost", "")
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = f.dial(ctx, "http://localhost", "remember_token=forged")
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestFeedGateway_RejectsForeignOrigin(t *testing.T) {
	t.Parallel()

	f := newGatewayFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, origin := range []string{"https://evil.example", ""} {
		_, resp, err := f.dial(ctx, origin, f.cookie)
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		require.Error(t, err, "origin %q", origin)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, "origin %q", origin)
	}
}
