package app

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
)

func newMockDB(t *testing.T) *sql.DB {
	t.Helper()
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// The goose seam is package state; these tests do not run in parallel.

func TestMigrate_UsesEmbeddedRoot(t *testing.T) {
	db := newMockDB(t)

	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	var gotDir string
	gooseUpContext = func(_ context.Context, got *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if got != db {
			return errors.New("unexpected db")
		}
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		gotDir = dir
		return nil
	}

	if err := migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate error: %v", err)
	}
	if gotDir != "." {
		t.Fatalf("dir=%q want \".\"", gotDir)
	}
}

func TestMigrate_PropagatesError(t *testing.T) {
	db := newMockDB(t)

	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })
	gooseUpContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return errors.New("boom")
	}

	if err := migrate(context.Background(), db); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestRunMigrations_NilPool(t *testing.T) {
	if err := RunMigrations(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil pool")
	}
}
