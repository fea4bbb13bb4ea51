package micropost

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sampleapp/cmd/identity"
	"sampleapp/cmd/internal/metrics"
)

type recordingPublisher struct {
	mu      sync.Mutex
	created []Micropost
	deleted []Micropost
}

func (p *recordingPublisher) MicropostCreated(m Micropost) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, m)
}

func (p *recordingPublisher) MicropostDeleted(m Micropost) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, m)
}

func newUsers(t *testing.T, emails ...string) (*identity.MemoryStore, []identity.User) {
	t.Helper()

	users := identity.NewMemoryStore()
	var out []identity.User
	for _, e := range emails {
		u, err := users.CreateUser(context.Background(), identity.CreateUserInput{
			Name:                 "User " + e,
			Email:                e,
			Password:             "foobar",
			PasswordConfirmation: "foobar",
		})
		require.NoError(t, err)
		out = append(out, u)
	}
	return users, out
}

func TestCheck(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Check(CreateInput{UserID: "u", Content: "Lorem ipsum"}))
	assert.Empty(t, Check(CreateInput{UserID: "u", Content: strings.Repeat("é", MaxContentChars)}))

	got := Check(CreateInput{UserID: "", Content: "  "})
	assert.Equal(t, []identity.FieldError{
		{Field: "user_id", Reason: identity.ReasonBlank},
		{Field: "content", Reason: identity.ReasonBlank},
	}, got)

	got = Check(CreateInput{UserID: "u", Content: strings.Repeat("a", MaxContentChars+1)})
	assert.Equal(t, []identity.FieldError{
		{Field: "content", Reason: "is too long (maximum is 140 characters)"},
	}, got)
}

func TestMemoryStore_NewestFirst(t *testing.T) {
	t.Parallel()

	users, us := newUsers(t, "a@example.com")
	s := NewMemoryStore(WithOwners(users))
	ctx := context.Background()
	base := time.Date(2011, 5, 1, 12, 0, 0, 0, time.UTC)

	older, err := s.Create(ctx, CreateInput{UserID: us[0].ID, Content: "older", Now: base.Add(-24 * time.Hour)})
	require.NoError(t, err)
	newer, err := s.Create(ctx, CreateInput{UserID: us[0].ID, Content: "newer", Now: base.Add(-time.Hour)})
	require.NoError(t, err)

	got, err := s.ListByUser(ctx, us[0].ID, Page{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer.ID, got[0].ID)
	assert.Equal(t, older.ID, got[1].ID)

	page, err := s.ListByUser(ctx, us[0].ID, Page{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, older.ID, page[0].ID)
}

func TestMemoryStore_UnknownOwner(t *testing.T) {
	t.Parallel()

	users, _ := newUsers(t)
	s := NewMemoryStore(WithOwners(users))

	_, err := s.Create(context.Background(), CreateInput{UserID: "01HZZZZZZZZZZZZZZZZZZZZZZZ", Content: "hi"})
	assert.True(t, identity.IsNotFound(err))
}

func TestMemoryStore_DeleteOwnerOnly(t *testing.T) {
	t.Parallel()

	users, us := newUsers(t, "a@example.com", "b@example.com")
	s := NewMemoryStore(WithOwners(users))
	ctx := context.Background()

	p, err := s.Create(ctx, CreateInput{UserID: us[0].ID, Content: "mine"})
	require.NoError(t, err)

	_, err = s.Delete(ctx, p.ID, us[1].ID)
	assert.True(t, identity.IsForbidden(err))

	_, err = s.Delete(ctx, p.ID, us[0].ID)
	require.NoError(t, err)

	_, err = s.Delete(ctx, p.ID, us[0].ID)
	assert.True(t, identity.IsNotFound(err))

	n, err := s.CountByUser(ctx, us[0].ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCascade_DeleteUserRemovesOnlyTheirPosts(t *testing.T) {
	t.Parallel()

	users, us := newUsers(t, "a@example.com", "b@example.com")
	posts := NewMemoryStore(WithOwners(users))
	svc := NewService(posts)
	users.OnDelete(svc.DeleteByUser)
	ctx := context.Background()

	for i := range 3 {
		_, err := svc.Create(ctx, CreateInput{UserID: us[0].ID, Content: "a post", Now: time.Now().Add(time.Duration(i) * time.Second)})
		require.NoError(t, err)
	}
	keep, err := svc.Create(ctx, CreateInput{UserID: us[1].ID, Content: "b post"})
	require.NoError(t, err)

	require.NoError(t, users.DeleteUser(ctx, us[0].ID))

	n, err := posts.CountByUser(ctx, us[0].ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, ok, err := posts.Get(ctx, keep.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, us[1].ID, got.UserID)
}

// deletingFinder removes the owner right after resolving it, so the
// cascade lands between the owner check and the insert.
type deletingFinder struct {
	*identity.MemoryStore
}

func (f deletingFinder) FindByID(ctx context.Context, id string) (identity.User, bool, error) {
	u, ok, err := f.MemoryStore.FindByID(ctx, id)
	if err != nil || !ok {
		return u, ok, err
	}
	if err := f.MemoryStore.DeleteUser(ctx, id); err != nil {
		return identity.User{}, false, err
	}
	return u, true, nil
}

func TestCascade_CreateRacingOwnerDeletion(t *testing.T) {
	t.Parallel()

	users, us := newUsers(t, "a@example.com")
	posts := NewMemoryStore(WithOwners(deletingFinder{users}))
	users.OnDelete(func(ctx context.Context, id string) error {
		_, err := posts.DeleteByUser(ctx, id)
		return err
	})
	ctx := context.Background()

	_, err := posts.Create(ctx, CreateInput{UserID: us[0].ID, Content: "too late"})
	assert.True(t, identity.IsNotFound(err), "got %v", err)

	_, ok, err := users.FindByID(ctx, us[0].ID)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := posts.CountByUser(ctx, us[0].ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestService_PublishesAndCounts(t *testing.T) {
	t.Parallel()

	users, us := newUsers(t, "a@example.com")
	pub := &recordingPublisher{}
	m := metrics.New()
	svc := NewService(NewMemoryStore(WithOwners(users)), WithPublisher(pub), WithMetrics(m))
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateInput{UserID: us[0].ID, Content: "  hello  "})
	require.NoError(t, err)
	assert.Equal(t, "hello", p.Content)

	_, err = svc.Create(ctx, CreateInput{UserID: us[0].ID, Content: ""})
	require.Error(t, err)
	assert.True(t, identity.IsInvalidInput(err))

	feed, total, err := svc.Feed(ctx, us[0].ID, Page{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, feed, 1)

	_, err = svc.Delete(ctx, p.ID, us[0].ID)
	require.NoError(t, err)

	require.Len(t, pub.created, 1)
	require.Len(t, pub.deleted, 1)
	assert.Equal(t, p.ID, pub.deleted[0].ID)

	reg := m.Registry()
	require.NotNil(t, reg)
	n, err := testutil.GatherAndCount(reg, "sampleapp_microposts_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
