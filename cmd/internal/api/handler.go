// Package api serves the JSON HTTP endpoints for users, sessions and microposts.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"sampleapp/cmd/identity"
	"sampleapp/cmd/internal/auth/session"
	"sampleapp/cmd/internal/metrics"
	"sampleapp/cmd/internal/micropost"
	"sampleapp/cmd/internal/ratelimit"
)

// Flash and error messages shown to the user.
const (
	MsgInvalidCredentials = "Invalid Email/Password Combination"
	MsgWelcome            = "Welcome to the Sample App!"
	MsgProfileUpdated     = "Profile updated."
	MsgUserDeleted        = "User destroyed."
	MsgMicropostCreated   = "Micropost created!"
	MsgMicropostDeleted   = "Micropost deleted."
)

// PasswordAuthenticator checks submitted credentials.
// *identity.Authenticator satisfies it.
type PasswordAuthenticator interface {
	AuthenticateByPassword(ctx context.Context, email, password string) (identity.User, bool, error)
}

// Handler wires HTTP endpoints to the identity store, session manager and micropost service.
type Handler struct {
	log *slog.Logger
	cfg Config

	users    identity.Store
	auth     PasswordAuthenticator
	sessions *session.Manager
	posts    *micropost.Service

	audit    Auditor
	metrics  *metrics.Metrics
	throttle *ratelimit.Keyed
	now      func() time.Time
}

// HandlerOption configures optional handler dependencies.
type HandlerOption func(*Handler)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// WithAuditor overrides the default log auditor.
func WithAuditor(a Auditor) HandlerOption {
	return func(h *Handler) {
		if a != nil {
			h.audit = a
		}
	}
}

// WithMetrics sets the metrics handle.
func WithMetrics(m *metrics.Metrics) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHandler constructs a Handler.
func NewHandler(cfg Config, users identity.Store, auth PasswordAuthenticator, sessions *session.Manager, posts *micropost.Service, opts ...HandlerOption) (*Handler, error) {
	switch {
	case users == nil:
		return nil, errors.New("api: nil user store")
	case auth == nil:
		return nil, errors.New("api: nil authenticator")
	case sessions == nil:
		return nil, errors.New("api: nil session manager")
	case posts == nil:
		return nil, errors.New("api: nil micropost service")
	}

	cfg = cfg.normalized()
	h := &Handler{
		log:      slog.Default(),
		cfg:      cfg,
		users:    users,
		auth:     auth,
		sessions: sessions,
		posts:    posts,
		throttle: ratelimit.NewKeyed(cfg.SignInMax, cfg.SignInWindow),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if h.audit == nil {
		h.audit = LogAuditor{Log: h.log}
	}
	return h, nil
}

// Register wires routes onto mux. The mux must be served beneath the session
// manager's Middleware.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	guard := func(fn http.HandlerFunc) http.Handler { return h.sessions.RequireSignIn(fn) }

	mux.HandleFunc("GET /signin", h.handleSignInPage)
	mux.HandleFunc("POST /sessions", h.handleSignIn)
	mux.HandleFunc("DELETE /sessions", h.handleSignOut)

	mux.HandleFunc("POST /users", h.handleCreateUser)
	mux.Handle("GET /users", guard(h.handleListUsers))
	mux.HandleFunc("GET /users/{id}", h.handleShowUser)
	mux.Handle("PATCH /users/{id}", guard(h.handleUpdateUser))
	mux.Handle("DELETE /users/{id}", guard(h.handleDeleteUser))
	mux.Handle("PUT /users/{id}/admin", guard(h.handleSetAdmin))

	mux.Handle("GET /me", guard(h.handleMe))
	mux.Handle("GET /feed", guard(h.handleFeed))
	mux.Handle("POST /microposts", guard(h.handleCreateMicropost))
	mux.Handle("DELETE /microposts/{id}", guard(h.handleDeleteMicropost))
}

// ---- helpers ----

// currentUser returns the identity RequireSignIn already resolved.
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (identity.User, bool) {
	u, ok, err := h.sessions.CurrentIdentity(r)
	if err != nil {
		h.log.Error("api.current_user.fail", "err", err)
		WriteUnavailable(w, r, err)
		return identity.User{}, false
	}
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", session.DeniedNotice)
		return identity.User{}, false
	}
	return u, true
}

func (h *Handler) page(r *http.Request) (n, limit, offset int) {
	n = pageParam(r)
	limit = h.cfg.PerPage
	return n, limit, (n - 1) * limit
}

func (h *Handler) record(r *http.Request, action, userID string, meta map[string]any) {
	h.audit.Record(r.Context(), AuditEntry{
		Action:    action,
		UserID:    userID,
		IP:        clientIP(r, h.cfg.TrustProxy),
		UserAgent: strings.TrimSpace(r.UserAgent()),
		Meta:      meta,
	})
}

// writeStoreError maps a store error to a response.
func (h *Handler) writeStoreError(w http.ResponseWriter, op string, err error) {
	if fields, ok := identity.FieldErrorsOf(err); ok {
		writeInvalid(w, fields)
		return
	}
	switch {
	case identity.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", "not found")
	case identity.IsForbidden(err):
		writeError(w, http.StatusForbidden, "forbidden", "forbidden")
	default:
		h.log.Error(op+".fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}
