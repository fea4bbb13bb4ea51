// Package migrations embeds the goose SQL migrations for the "sampleapp" schema.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Schema is the schema every migration targets.
const Schema = "sampleapp"

const (
	upMarker   = "-- +goose Up"
	downMarker = "-- +goose Down"
)

// Migrations holds every *.sql file in this directory.
//
//go:embed *.sql
var Migrations embed.FS

// UpSQL concatenates the Up sections of all migrations, in order, with the
// tables moved into schema. The schema itself is not created.
// Integration tests use it to build a private copy of the database layout.
func UpSQL(schema string) (string, error) {
	names, err := fs.Glob(Migrations, "*.sql")
	if err != nil {
		return "", err
	}

	qualified := pgx.Identifier{schema}.Sanitize() + "."

	var b strings.Builder
	for _, name := range names {
		raw, err := fs.ReadFile(Migrations, name)
		if err != nil {
			return "", err
		}
		up, err := upSection(string(raw))
		if err != nil {
			return "", fmt.Errorf("%s: %w", name, err)
		}
		up = strings.ReplaceAll(up, "CREATE SCHEMA IF NOT EXISTS "+Schema+";", "")
		up = strings.ReplaceAll(up, Schema+".", qualified)
		b.WriteString(up)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func upSection(body string) (string, error) {
	_, rest, ok := strings.Cut(body, upMarker)
	if !ok {
		return "", fmt.Errorf("missing %q", upMarker)
	}
	up, _, ok := strings.Cut(rest, downMarker)
	if !ok {
		return "", fmt.Errorf("missing %q", downMarker)
	}
	return up, nil
}
