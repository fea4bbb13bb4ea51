package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_EmbeddedInOrder(t *testing.T) {
	names, err := fs.Glob(Migrations, "*.sql")
	require.NoError(t, err)
	require.Equal(t, []string{"00001_init.sql", "00002_audit_log.sql"}, names)

	for _, n := range names {
		b, err := fs.ReadFile(Migrations, n)
		require.NoError(t, err)
		body := string(b)
		assert.True(t, strings.HasPrefix(body, "-- +goose Up"), n)
		assert.Contains(t, body, "-- +goose Down", n)
	}
}

func TestUpSQL_RetargetsSchema(t *testing.T) {
	got, err := UpSQL("sampleapp_it_x")
	require.NoError(t, err)

	assert.NotContains(t, got, "CREATE SCHEMA")
	assert.NotContains(t, got, "DROP TABLE")
	assert.NotContains(t, got, " sampleapp.")
	for _, want := range []string{
		`CREATE TABLE IF NOT EXISTS "sampleapp_it_x".users`,
		`REFERENCES "sampleapp_it_x".users(id) ON DELETE CASCADE`,
		`ON "sampleapp_it_x".microposts (user_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS "sampleapp_it_x".audit_log`,
		`CONSTRAINT uq_users_email_norm UNIQUE (email_norm)`,
	} {
		assert.Contains(t, got, want)
	}
	assert.Less(t, strings.Index(got, "users ("), strings.Index(got, "audit_log ("))
}

func TestUpSection_RequiresMarkers(t *testing.T) {
	_, err := upSection("SELECT 1;")
	require.Error(t, err)

	_, err = upSection(upMarker + "\nSELECT 1;\n")
	require.Error(t, err)

	up, err := upSection(upMarker + "\nSELECT 1;\n" + downMarker + "\nSELECT 2;\n")
	require.NoError(t, err)
	assert.Equal(t, "\nSELECT 1;\n", up)
}
