package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// DeleteHook runs after a user is removed; stores of owned records use it to cascade.
type DeleteHook func(ctx context.Context, userID string) error

// MemoryStore is an in-process Store for development and tests.
// It applies the same validation and uniqueness rules as PostgresStore.
type MemoryStore struct {
	validator Validator

	mu      sync.RWMutex
	users   map[string]User
	byEmail map[string]string
	order   []string
	hooks   []DeleteHook
}

// MemoryOption configures the in-memory store.
type MemoryOption func(*MemoryStore)

// WithMemoryValidator overrides the default validator.
func WithMemoryValidator(v Validator) MemoryOption {
	return func(s *MemoryStore) { s.validator = v }
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		validator: DefaultValidator(),
		users:     make(map[string]User),
		byEmail:   make(map[string]string),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// OnDelete registers a cascade hook. Hooks run in registration order.
func (s *MemoryStore) OnDelete(h DeleteHook) {
	if h == nil {
		return
	}
	s.mu.Lock()
	s.hooks = append(s.hooks, h)
	s.mu.Unlock()
}

// CreateUser validates and stores a new user.
func (s *MemoryStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	now := nowUTC(in.Now)
	fields := s.validator.Check(in.Name, in.Email, in.Password, in.PasswordConfirmation)
	norm := NormalizeEmail(in.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[norm]; taken && !hasField(fields, "email") {
		fields = withTaken(fields)
	}
	if len(fields) > 0 {
		return User{}, ValidationError{Op: op, Fields: fields}
	}

	id, err := NewULID(now)
	if err != nil {
		return User{}, err
	}

	salt := MakeSalt(now, in.Password)
	u := User{
		ID:                id,
		Name:              NormalizeName(in.Name),
		Email:             strings.TrimSpace(in.Email),
		EmailNorm:         norm,
		Salt:              salt,
		EncryptedPassword: EncryptPassword(salt, in.Password),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	s.users[id] = u
	s.byEmail[norm] = id
	s.order = append(s.order, id)
	return u, nil
}

// UpdateUser replaces profile fields and re-encrypts the password under the existing salt.
func (s *MemoryStore) UpdateUser(ctx context.Context, in UpdateUserInput) (User, error) {
	const op = "identity.UpdateUser"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	now := nowUTC(in.Now)
	fields := s.validator.Check(in.Name, in.Email, in.Password, in.PasswordConfirmation)
	norm := NormalizeEmail(in.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[in.ID]
	if !ok {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	if owner, taken := s.byEmail[norm]; taken && owner != u.ID && !hasField(fields, "email") {
		fields = withTaken(fields)
	}
	if len(fields) > 0 {
		return User{}, ValidationError{Op: op, Fields: fields}
	}

	delete(s.byEmail, u.EmailNorm)

	u.Name = NormalizeName(in.Name)
	u.Email = strings.TrimSpace(in.Email)
	u.EmailNorm = norm
	u.EncryptedPassword = EncryptPassword(u.Salt, in.Password)
	u.UpdatedAt = now

	s.users[u.ID] = u
	s.byEmail[norm] = u.ID
	return u, nil
}

// FindByEmail looks a user up by case-insensitive email.
func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (User, bool, error) {
	if err := ctx.Err(); err != nil {
		return User{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return User{}, false, nil
	}
	u, ok := s.users[id]
	return u, ok, nil
}

// FindByID looks a user up by id.
func (s *MemoryStore) FindByID(ctx context.Context, id string) (User, bool, error) {
	if err := ctx.Err(); err != nil {
		return User{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	return u, ok, nil
}

// ListUsers returns users in creation order.
func (s *MemoryStore) ListUsers(ctx context.Context, in ListUsersInput) ([]User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	in = in.normalized()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if in.Offset >= len(s.order) {
		return []User{}, nil
	}
	end := min(in.Offset+in.Limit, len(s.order))

	out := make([]User, 0, end-in.Offset)
	for _, id := range s.order[in.Offset:end] {
		out = append(out, s.users[id])
	}
	return out, nil
}

// CountUsers returns the number of stored users.
func (s *MemoryStore) CountUsers(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

// SetAdmin sets the admin flag.
func (s *MemoryStore) SetAdmin(ctx context.Context, id string, admin bool, now time.Time) (User, error) {
	const op = "identity.SetAdmin"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	u.Admin = admin
	u.UpdatedAt = nowUTC(now)
	s.users[id] = u
	return u, nil
}

// DeleteUser runs the cascade hooks, then removes the user. A failing hook
// leaves the user in place so the delete can be retried.
func (s *MemoryStore) DeleteUser(ctx context.Context, id string) error {
	const op = "identity.DeleteUser"

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	_, ok := s.users[id]
	hooks := append([]DeleteHook(nil), s.hooks...)
	s.mu.RUnlock()
	if !ok {
		return NotFoundError{Op: op, Resource: "user"}
	}

	for _, h := range hooks {
		if err := h(ctx, id); err != nil {
			return fmt.Errorf("%s: cascade: %w", op, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return NotFoundError{Op: op, Resource: "user"}
	}
	delete(s.users, id)
	delete(s.byEmail, u.EmailNorm)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// withTaken inserts the uniqueness failure right after the other email failures.
func withTaken(fields []FieldError) []FieldError {
	taken := FieldError{Field: "email", Reason: ReasonTaken}

	at := len(fields)
	for i, f := range fields {
		if f.Field == "password" {
			at = i
			break
		}
	}
	out := make([]FieldError, 0, len(fields)+1)
	out = append(out, fields[:at]...)
	out = append(out, taken)
	out = append(out, fields[at:]...)
	return out
}

func nowUTC(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
