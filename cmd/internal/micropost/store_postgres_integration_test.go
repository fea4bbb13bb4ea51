package micropost

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sampleapp/cmd/identity"
	"sampleapp/cmd/internal/pgtest"
)

// Integration tests are opt-in and require SAMPLEAPP_DATABASE_URL.

func TestPostgresStore_CascadeAndOrdering(t *testing.T) {
	t.Parallel()

	pool := pgtest.OpenPool(t)
	schema := pgtest.NewSchema(t, pool)

	users, err := identity.NewPostgresStore(pool, identity.WithSchema(schema))
	require.NoError(t, err)
	posts, err := NewPostgresStore(pool, WithSchema(schema))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	mk := func(email string) identity.User {
		u, err := users.CreateUser(ctx, identity.CreateUserInput{
			Name:                 "User",
			Email:                email,
			Password:             "foobar",
			PasswordConfirmation: "foobar",
		})
		require.NoError(t, err)
		return u
	}
	a, b := mk("a@example.com"), mk("b@example.com")

	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Microsecond)
	older, err := posts.Create(ctx, CreateInput{UserID: a.ID, Content: "older", Now: base})
	require.NoError(t, err)
	newer, err := posts.Create(ctx, CreateInput{UserID: a.ID, Content: "newer", Now: base.Add(time.Minute)})
	require.NoError(t, err)
	other, err := posts.Create(ctx, CreateInput{UserID: b.ID, Content: "other"})
	require.NoError(t, err)

	list, err := posts.ListByUser(ctx, a.ID, Page{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)

	_, err = posts.Delete(ctx, other.ID, a.ID)
	assert.True(t, identity.IsForbidden(err))

	require.NoError(t, users.DeleteUser(ctx, a.ID))

	n, err := posts.CountByUser(ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, ok, err := posts.Get(ctx, other.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPostgresStore_UnknownOwner(t *testing.T) {
	t.Parallel()

	pool := pgtest.OpenPool(t)
	posts, err := NewPostgresStore(pool, WithSchema(pgtest.NewSchema(t, pool)))
	require.NoError(t, err)

	_, err = posts.Create(context.Background(), CreateInput{UserID: "01HZZZZZZZZZZZZZZZZZZZZZZZ", Content: "orphan"})
	assert.True(t, identity.IsNotFound(err))
}
