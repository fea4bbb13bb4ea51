package identity

import (
	"context"
	"time"
)

// User is sampleapp's registered identity.
//
// The plaintext password is never part of the record; only Salt and
// EncryptedPassword are persisted. Salt is fixed at creation.
type User struct {
	ID                string
	Name              string
	Email             string
	EmailNorm         string
	Salt              string
	EncryptedPassword string
	Admin             bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateUserInput describes a sign-up request.
type CreateUserInput struct {
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
	Now                  time.Time
}

// UpdateUserInput replaces a user's profile and password.
// Password is required on every update, as on creation.
type UpdateUserInput struct {
	ID                   string
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
	Now                  time.Time
}

// ListUsersInput pages through users in creation order.
type ListUsersInput struct {
	Limit  int
	Offset int
}

const (
	defaultListLimit = 10
	maxListLimit     = 100
)

func (in ListUsersInput) normalized() ListUsersInput {
	if in.Limit <= 0 {
		in.Limit = defaultListLimit
	}
	if in.Limit > maxListLimit {
		in.Limit = maxListLimit
	}
	if in.Offset < 0 {
		in.Offset = 0
	}
	return in
}

// Finder is the read side used by the Authenticator.
// A missing record is reported as ok=false with a nil error.
type Finder interface {
	FindByEmail(ctx context.Context, email string) (User, bool, error)
	FindByID(ctx context.Context, id string) (User, bool, error)
}

// Store is the credential store persistence boundary.
//
// Contract:
//   - CreateUser/UpdateUser validate first and persist nothing on failure
//     (ValidationError, or ConflictError when the unique email constraint fires).
//   - Email uniqueness is case-insensitive and enforced atomically.
//   - DeleteUser removes the user's microposts as well.
type Store interface {
	Finder

	CreateUser(ctx context.Context, in CreateUserInput) (User, error)
	UpdateUser(ctx context.Context, in UpdateUserInput) (User, error)
	ListUsers(ctx context.Context, in ListUsersInput) ([]User, error)
	CountUsers(ctx context.Context) (int, error)
	SetAdmin(ctx context.Context, id string, admin bool, now time.Time) (User, error)
	DeleteUser(ctx context.Context, id string) error
}
