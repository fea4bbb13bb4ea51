package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"sampleapp/cmd/identity"
	"sampleapp/cmd/security/token"
)

// Authenticator resolves a remember-token pair to a user.
// *identity.Authenticator satisfies it.
type Authenticator interface {
	AuthenticateBySalt(ctx context.Context, id, salt string) (identity.User, bool, error)
}

// ErrorHandler writes the response for a datastore failure during resolution.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Manager is the session manager.
type Manager struct {
	cfg      Config
	signer   *Signer
	auth     Authenticator
	flashKey []byte

	log     *slog.Logger
	now     func() time.Time
	onError ErrorHandler
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithErrorHandler sets how resolution failures are reported by DenyAccess and RequireSignIn.
func WithErrorHandler(h ErrorHandler) Option {
	return func(m *Manager) {
		if h != nil {
			m.onError = h
		}
	}
}

// NewManager constructs a Manager. cfg must carry a secret of at least 32 bytes.
func NewManager(cfg Config, auth Authenticator, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if auth == nil {
		return nil, errors.New("session: nil authenticator")
	}

	signer, err := NewSigner(cfg)
	if err != nil {
		return nil, err
	}
	flashKey, err := token.DeriveKey(cfg.Secret, "flash", 32)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:      cfg,
		signer:   signer,
		auth:     auth,
		flashKey: flashKey,
		log:      slog.Default(),
		now:      func() time.Time { return time.Now().UTC() },
		onError:  defaultErrorHandler,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m, nil
}

// Config returns the manager's configuration.
func (m *Manager) Config() Config { return m.cfg }

// ---- request state ----

type ctxKey struct{}

// requestState is the per-request identity: unresolved until first read,
// then fixed unless SignIn/SignOut overwrite it.
type requestState struct {
	mu       sync.Mutex
	resolved bool
	user     identity.User
	ok       bool
}

func (s *requestState) set(u identity.User, ok bool) {
	s.mu.Lock()
	s.resolved, s.user, s.ok = true, u, ok
	s.mu.Unlock()
}

// Middleware attaches fresh per-request identity state. Every handler that
// uses the Manager must run beneath it for reads to be cached.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ctxKey{}, &requestState{})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func stateFrom(r *http.Request) *requestState {
	if st, ok := r.Context().Value(ctxKey{}).(*requestState); ok {
		return st
	}
	return nil
}

// ---- operations ----

// CurrentIdentity returns the request's signed-in user. The remember token
// is read and checked at most once per request; later calls return the
// cached result. A datastore error is returned and not cached.
func (m *Manager) CurrentIdentity(r *http.Request) (identity.User, bool, error) {
	st := stateFrom(r)
	if st == nil {
		return m.resolve(r)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.resolved {
		return st.user, st.ok, nil
	}

	u, ok, err := m.resolve(r)
	if err != nil {
		return identity.User{}, false, err
	}
	st.resolved, st.user, st.ok = true, u, ok
	return u, ok, nil
}

func (m *Manager) resolve(r *http.Request) (identity.User, bool, error) {
	id, salt := m.rememberToken(r)
	return m.auth.AuthenticateBySalt(r.Context(), id, salt)
}

// rememberToken splits the cookie into (id, salt), or ("", "") when it is
// absent or fails verification.
func (m *Manager) rememberToken(r *http.Request) (string, string) {
	c, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return "", ""
	}
	id, salt, err := m.signer.Parse(c.Value, m.now())
	if err != nil {
		m.log.Debug("session.remember_token.invalid", "err", err)
		return "", ""
	}
	return id, salt
}

// IsSignedIn reports whether the request has a current identity.
func (m *Manager) IsSignedIn(r *http.Request) (bool, error) {
	_, ok, err := m.CurrentIdentity(r)
	return ok, err
}

// SignIn writes the remember token for u and makes u the request's identity.
func (m *Manager) SignIn(w http.ResponseWriter, r *http.Request, u identity.User) error {
	value, exp, err := m.signer.Sign(u.ID, u.Salt, m.now())
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    value,
		Path:     m.cfg.CookiePath,
		Domain:   m.cfg.CookieDomain,
		Expires:  exp,
		HttpOnly: true,
		Secure:   m.cfg.CookieSecure,
		SameSite: m.cfg.CookieSameSite,
	})

	if st := stateFrom(r); st != nil {
		st.set(u, true)
	}
	return nil
}

// SignOut deletes the remember token and clears the request's identity.
func (m *Manager) SignOut(w http.ResponseWriter, r *http.Request) {
	m.expireCookie(w, m.cfg.CookieName)
	if st := stateFrom(r); st != nil {
		st.set(identity.User{}, false)
	}
}

// DenyAccess guards a protected handler. When the request is not signed in
// it stores the sign-in notice, redirects to the sign-in page and returns
// true; the caller must stop. It returns false for a signed-in request.
func (m *Manager) DenyAccess(w http.ResponseWriter, r *http.Request) bool {
	ok, err := m.IsSignedIn(r)
	if err != nil {
		m.log.Error("session.resolve.fail", "err", err, "path", r.URL.Path)
		m.onError(w, r, err)
		return true
	}
	if ok {
		return false
	}

	m.SetFlash(w, Flash{Kind: FlashNotice, Message: DeniedNotice})
	http.Redirect(w, r, m.cfg.SignInPath, http.StatusFound)
	return true
}

// RequireSignIn wraps next with DenyAccess.
func (m *Manager) RequireSignIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.DenyAccess(w, r) {
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Manager) expireCookie(w http.ResponseWriter, name string) {
	if w == nil || strings.TrimSpace(name) == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     m.cfg.CookiePath,
		Domain:   m.cfg.CookieDomain,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.cfg.CookieSecure,
		SameSite: m.cfg.CookieSameSite,
	})
}

func defaultErrorHandler(w http.ResponseWriter, _ *http.Request, _ error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte(`{"error":{"code":"unavailable","message":"service unavailable"}}` + "\n"))
}
