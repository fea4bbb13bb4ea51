package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"sampleapp/cmd/identity"
)

// countingAuth wraps a real Authenticator and counts lookups.
type countingAuth struct {
	inner *identity.Authenticator
	calls atomic.Int32
	err   error
}

func (a *countingAuth) AuthenticateBySalt(ctx context.Context, id, salt string) (identity.User, bool, error) {
	a.calls.Add(1)
	if a.err != nil {
		return identity.User{}, false, a.err
	}
	return a.inner.AuthenticateBySalt(ctx, id, salt)
}

type fixture struct {
	users *identity.MemoryStore
	auth  *countingAuth
	mgr   *Manager
	user  identity.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	users := identity.NewMemoryStore()
	u, err := users.CreateUser(context.Background(), identity.CreateUserInput{
		Name:                 "Example User",
		Email:                "user@example.com",
		Password:             "foobar",
		PasswordConfirmation: "foobar",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	auth := &countingAuth{inner: identity.NewAuthenticator(users)}
	mgr, err := NewManager(testConfig(), auth)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return &fixture{users: users, auth: auth, mgr: mgr, user: u}
}

// serve runs h beneath the manager's middleware with the given cookies.
func (f *fixture) serve(h http.HandlerFunc, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.mgr.Middleware(h).ServeHTTP(rec, req)
	return rec
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (f *fixture) signedInCookie(t *testing.T) *http.Cookie {
	t.Helper()

	rec := f.serve(func(w http.ResponseWriter, r *http.Request) {
		if err := f.mgr.SignIn(w, r, f.user); err != nil {
			t.Fatalf("SignIn: %v", err)
		}
	})
	c := cookieNamed(rec, "remember_token")
	if c == nil || c.Value == "" {
		t.Fatalf("remember_token not set")
	}
	return c
}

func TestManager_SignIn_SetsCookieAndIdentity(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.serve(func(w http.ResponseWriter, r *http.Request) {
		if err := f.mgr.SignIn(w, r, f.user); err != nil {
			t.Fatalf("SignIn: %v", err)
		}
		u, ok, err := f.mgr.CurrentIdentity(r)
		if err != nil || !ok || u.ID != f.user.ID {
			t.Fatalf("current identity after SignIn: ok=%v err=%v", ok, err)
		}
	})

	c := cookieNamed(rec, "remember_token")
	if c == nil {
		t.Fatalf("missing cookie")
	}
	if !c.HttpOnly || c.Path != "/" {
		t.Fatalf("unexpected cookie attributes: %+v", c)
	}
	if c.Expires.Before(time.Now().Add(19 * 365 * 24 * time.Hour)) {
		t.Fatalf("cookie should be permanent, expires %v", c.Expires)
	}
	if got := f.auth.calls.Load(); got != 0 {
		t.Fatalf("SignIn must not re-read the token, lookups=%d", got)
	}
}

func TestManager_CurrentIdentity_ResolvesOncePerRequest(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	c := f.signedInCookie(t)

	f.serve(func(w http.ResponseWriter, r *http.Request) {
		for range 3 {
			u, ok, err := f.mgr.CurrentIdentity(r)
			if err != nil || !ok || u.ID != f.user.ID {
				t.Fatalf("unexpected identity: ok=%v err=%v", ok, err)
			}
		}
		if signed, _ := f.mgr.IsSignedIn(r); !signed {
			t.Fatalf("expected signed in")
		}
	}, c)

	if got := f.auth.calls.Load(); got != 1 {
		t.Fatalf("lookups = %d, want 1", got)
	}
}

func TestManager_CurrentIdentity_NoneIsCachedToo(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.serve(func(w http.ResponseWriter, r *http.Request) {
		for range 2 {
			if _, ok, err := f.mgr.CurrentIdentity(r); ok || err != nil {
				t.Fatalf("expected none, ok=%v err=%v", ok, err)
			}
		}
	})

	if got := f.auth.calls.Load(); got != 1 {
		t.Fatalf("lookups = %d, want 1", got)
	}
}

func TestManager_CurrentIdentity_InvalidCookie(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	bad := &http.Cookie{Name: "remember_token", Value: "garbage"}

	f.serve(func(w http.ResponseWriter, r *http.Request) {
		if _, ok, err := f.mgr.CurrentIdentity(r); ok || err != nil {
			t.Fatalf("expected none, ok=%v err=%v", ok, err)
		}
	}, bad)
}

func TestManager_CurrentIdentity_DatastoreErrorNotCached(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	c := f.signedInCookie(t)
	boom := errors.New("db down")

	f.serve(func(w http.ResponseWriter, r *http.Request) {
		f.auth.err = boom
		if _, _, err := f.mgr.CurrentIdentity(r); !errors.Is(err, boom) {
			t.Fatalf("expected datastore error, got %v", err)
		}
		f.auth.err = nil
		if _, ok, err := f.mgr.CurrentIdentity(r); !ok || err != nil {
			t.Fatalf("expected recovery, ok=%v err=%v", ok, err)
		}
	}, c)

	if got := f.auth.calls.Load(); got != 2 {
		t.Fatalf("lookups = %d, want 2", got)
	}
}

func TestManager_SignOut_ThenFreshRequestIsAnonymous(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	c := f.signedInCookie(t)

	rec := f.serve(func(w http.ResponseWriter, r *http.Request) {
		f.mgr.SignOut(w, r)
		if _, ok, _ := f.mgr.CurrentIdentity(r); ok {
			t.Fatalf("identity should be none after SignOut")
		}
	}, c)

	expired := cookieNamed(rec, "remember_token")
	if expired == nil || expired.MaxAge >= 0 || expired.Value != "" {
		t.Fatalf("remember_token not expired: %+v", expired)
	}

	// A fresh request without the token.
	f.serve(func(w http.ResponseWriter, r *http.Request) {
		if _, ok, _ := f.mgr.CurrentIdentity(r); ok {
			t.Fatalf("fresh request without token should be anonymous")
		}
	})
}

func TestManager_StaleSaltIsRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	c := f.signedInCookie(t)

	if err := f.users.DeleteUser(context.Background(), f.user.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	f.serve(func(w http.ResponseWriter, r *http.Request) {
		if _, ok, _ := f.mgr.CurrentIdentity(r); ok {
			t.Fatalf("token for a deleted user must not resolve")
		}
	}, c)
}

func TestManager_DenyAccess(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	reached := false
	protected := f.mgr.RequireSignIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	rec := f.serve(protected.ServeHTTP)
	if reached {
		t.Fatalf("protected handler ran for an anonymous request")
	}
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/signin" {
		t.Fatalf("Location = %q", loc)
	}

	flash := cookieNamed(rec, "flash")
	if flash == nil {
		t.Fatalf("missing flash cookie")
	}
	f.serve(func(w http.ResponseWriter, r *http.Request) {
		got, ok := f.mgr.PopFlash(w, r)
		if !ok || got.Kind != FlashNotice || got.Message != DeniedNotice {
			t.Fatalf("unexpected flash: %+v ok=%v", got, ok)
		}
	}, flash)

	c := f.signedInCookie(t)
	reached = false
	rec = f.serve(protected.ServeHTTP, c)
	if !reached || rec.Code != http.StatusOK {
		t.Fatalf("signed-in request blocked: code=%d", rec.Code)
	}
}

func TestManager_DenyAccess_DatastoreError(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.auth.err = errors.New("db down")

	var handled error
	mgr, err := NewManager(testConfig(), f.auth, WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
		handled = err
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	rec := httptest.NewRecorder()
	mgr.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !mgr.DenyAccess(w, r) {
			t.Fatalf("expected the request to be stopped")
		}
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if handled == nil || rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("error handler not used: code=%d err=%v", rec.Code, handled)
	}
}

func TestManager_WithoutMiddleware_StillResolves(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	c := f.signedInCookie(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	u, ok, err := f.mgr.CurrentIdentity(req)
	if err != nil || !ok || u.ID != f.user.ID {
		t.Fatalf("unexpected: ok=%v err=%v", ok, err)
	}
}

func TestNewManager_RequiresSecret(t *testing.T) {
	t.Parallel()

	if _, err := NewManager(DefaultConfig(), &countingAuth{}); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}
