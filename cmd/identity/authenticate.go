package identity

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"
)

// dummySalt keeps the miss path doing the same digest work as the hit path.
var dummySalt = MakeSalt(time.Unix(0, 0), "dummy-password-for-timing-only")

// Authenticator verifies submitted credentials against a Finder.
//
// Both methods return ok=false for every kind of mismatch, including an
// unknown email or id; callers cannot tell which part was wrong. The error
// is non-nil only when the datastore fails.
type Authenticator struct {
	users Finder
}

// NewAuthenticator constructs an Authenticator over users.
func NewAuthenticator(users Finder) *Authenticator {
	return &Authenticator{users: users}
}

// AuthenticateByPassword returns the user with this email if password matches.
func (a *Authenticator) AuthenticateByPassword(ctx context.Context, email, password string) (User, bool, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		_ = EncryptPassword(dummySalt, password)
		return User{}, false, nil
	}

	u, ok, err := a.users.FindByEmail(ctx, email)
	if err != nil {
		return User{}, false, err
	}
	if !ok {
		_ = EncryptPassword(dummySalt, password)
		return User{}, false, nil
	}
	if !u.HasPassword(password) {
		return User{}, false, nil
	}
	return u, true, nil
}

// AuthenticateBySalt returns the user with this id if its stored salt equals salt exactly.
// It is the remember-token check: the cookie carries (id, salt).
func (a *Authenticator) AuthenticateBySalt(ctx context.Context, id, salt string) (User, bool, error) {
	if strings.TrimSpace(id) == "" || salt == "" {
		return User{}, false, nil
	}

	u, ok, err := a.users.FindByID(ctx, id)
	if err != nil {
		return User{}, false, err
	}
	if !ok {
		return User{}, false, nil
	}
	if subtle.ConstantTimeCompare([]byte(u.Salt), []byte(salt)) != 1 {
		return User{}, false, nil
	}
	return u, true, nil
}
