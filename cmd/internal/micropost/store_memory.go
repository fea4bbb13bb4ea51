package micropost

import (
	"context"
	"sort"
	"strings"
	"sync"

	"sampleapp/cmd/identity"
)

// MemoryStore is an in-process Store used when no database is configured.
type MemoryStore struct {
	owners identity.Finder

	mu     sync.RWMutex
	posts  map[string]Micropost
	byUser map[string][]string // newest first
	// gone holds owners whose posts were cascaded away. User ids are
	// never reused, so a tombstone stays valid for the store's lifetime.
	gone map[string]struct{}
}

// MemoryOption configures the in-memory store.
type MemoryOption func(*MemoryStore)

// WithOwners makes Create reject posts whose owner the finder cannot resolve.
func WithOwners(f identity.Finder) MemoryOption {
	return func(s *MemoryStore) { s.owners = f }
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		posts:  make(map[string]Micropost),
		byUser: make(map[string][]string),
		gone:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Create validates and stores a post.
func (s *MemoryStore) Create(ctx context.Context, in CreateInput) (Micropost, error) {
	const op = "micropost.Create"

	if err := ctx.Err(); err != nil {
		return Micropost{}, err
	}
	if fields := Check(in); len(fields) > 0 {
		return Micropost{}, identity.ValidationError{Op: op, Fields: fields}
	}

	if s.owners != nil {
		_, ok, err := s.owners.FindByID(ctx, in.UserID)
		if err != nil {
			return Micropost{}, err
		}
		if !ok {
			return Micropost{}, identity.NotFoundError{Op: op, Resource: "user"}
		}
	}

	now := nowUTC(in.Now)
	id, err := identity.NewULID(now)
	if err != nil {
		return Micropost{}, err
	}

	p := Micropost{
		ID:        id,
		UserID:    in.UserID,
		Content:   strings.TrimSpace(in.Content),
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The owner lookup ran unlocked; a cascade may have landed since.
	if _, deleted := s.gone[p.UserID]; deleted {
		return Micropost{}, identity.NotFoundError{Op: op, Resource: "user"}
	}

	s.posts[id] = p
	ids := append(s.byUser[p.UserID], id)
	sort.SliceStable(ids, func(i, j int) bool {
		return newer(s.posts[ids[i]], s.posts[ids[j]])
	})
	s.byUser[p.UserID] = ids
	return p, nil
}

// Get returns the post with this id.
func (s *MemoryStore) Get(ctx context.Context, id string) (Micropost, bool, error) {
	if err := ctx.Err(); err != nil {
		return Micropost{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	return p, ok, nil
}

// ListByUser returns the user's posts, newest first.
func (s *MemoryStore) ListByUser(ctx context.Context, userID string, page Page) ([]Micropost, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page = page.normalized()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byUser[userID]
	if page.Offset >= len(ids) {
		return []Micropost{}, nil
	}
	end := min(page.Offset+page.Limit, len(ids))

	out := make([]Micropost, 0, end-page.Offset)
	for _, id := range ids[page.Offset:end] {
		out = append(out, s.posts[id])
	}
	return out, nil
}

// CountByUser returns how many posts the user owns.
func (s *MemoryStore) CountByUser(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byUser[userID]), nil
}

// Delete removes a post owned by ownerID.
func (s *MemoryStore) Delete(ctx context.Context, id, ownerID string) (Micropost, error) {
	const op = "micropost.Delete"

	if err := ctx.Err(); err != nil {
		return Micropost{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return Micropost{}, identity.NotFoundError{Op: op, Resource: "micropost"}
	}
	if p.UserID != ownerID {
		return Micropost{}, identity.OpError{Op: op, Kind: identity.ErrForbidden, Msg: "not the owner"}
	}

	delete(s.posts, id)
	ids := s.byUser[p.UserID]
	for i, v := range ids {
		if v == id {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(s.byUser, p.UserID)
	} else {
		s.byUser[p.UserID] = ids
	}
	return p, nil
}

// DeleteByUser removes every post owned by userID.
func (s *MemoryStore) DeleteByUser(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.byUser[userID]
	for _, id := range ids {
		delete(s.posts, id)
	}
	delete(s.byUser, userID)
	s.gone[userID] = struct{}{}
	return len(ids), nil
}

func newer(a, b Micropost) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
