package micropost

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sampleapp/cmd/identity"
)

// PostgresStore implements Store over PostgreSQL.
//
// - The pool is owned by the caller.
// - Owner existence is enforced by the users FK; deleting a user cascades here.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

// WithSchema sets the Postgres schema (default "sampleapp").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if !identity.PgIdentIsValid(schema) {
			return fmt.Errorf("micropost: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{pool: pool, schema: identity.DefaultSchema}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("micropost: nil pool")
	}
	return st, nil
}

const postColumns = `id, user_id, content, created_at, updated_at`

func scanPost(row pgx.Row) (Micropost, error) {
	var p Micropost
	err := row.Scan(&p.ID, &p.UserID, &p.Content, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *PostgresStore) table() string {
	return pgx.Identifier{s.schema, "microposts"}.Sanitize()
}

// Create validates and inserts a post.
func (s *PostgresStore) Create(ctx context.Context, in CreateInput) (Micropost, error) {
	const op = "micropost.Create"

	if err := ctx.Err(); err != nil {
		return Micropost{}, err
	}
	if fields := Check(in); len(fields) > 0 {
		return Micropost{}, identity.ValidationError{Op: op, Fields: fields}
	}

	now := nowUTC(in.Now)
	id, err := identity.NewULID(now)
	if err != nil {
		return Micropost{}, err
	}

	p, err := scanPost(s.pool.QueryRow(ctx,
		`INSERT INTO `+s.table()+` (id, user_id, content, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $4)
		 RETURNING `+postColumns,
		id, in.UserID, strings.TrimSpace(in.Content), now,
	))
	if err != nil {
		if identity.PgIsForeignKeyViolation(err) {
			return Micropost{}, identity.NotFoundError{Op: op, Resource: "user"}
		}
		return Micropost{}, err
	}
	return p, nil
}

// Get returns the post with this id.
func (s *PostgresStore) Get(ctx context.Context, id string) (Micropost, bool, error) {
	if err := ctx.Err(); err != nil {
		return Micropost{}, false, err
	}

	p, err := scanPost(s.pool.QueryRow(ctx,
		`SELECT `+postColumns+` FROM `+s.table()+` WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Micropost{}, false, nil
		}
		return Micropost{}, false, err
	}
	return p, true, nil
}

// ListByUser returns the user's posts, newest first.
func (s *PostgresStore) ListByUser(ctx context.Context, userID string, page Page) ([]Micropost, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page = page.normalized()

	rows, err := s.pool.Query(ctx,
		`SELECT `+postColumns+` FROM `+s.table()+`
		  WHERE user_id = $1
		  ORDER BY created_at DESC, id DESC
		  LIMIT $2 OFFSET $3`,
		userID, page.Limit, page.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Micropost, 0, page.Limit)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountByUser returns how many posts the user owns.
func (s *PostgresStore) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM `+s.table()+` WHERE user_id = $1`,
		userID,
	).Scan(&n)
	return n, err
}

// Delete removes a post owned by ownerID.
func (s *PostgresStore) Delete(ctx context.Context, id, ownerID string) (Micropost, error) {
	const op = "micropost.Delete"

	if err := ctx.Err(); err != nil {
		return Micropost{}, err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return Micropost{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := scanPost(tx.QueryRow(ctx,
		`SELECT `+postColumns+` FROM `+s.table()+` WHERE id = $1 FOR UPDATE`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Micropost{}, identity.NotFoundError{Op: op, Resource: "micropost"}
		}
		return Micropost{}, err
	}
	if p.UserID != ownerID {
		return Micropost{}, identity.OpError{Op: op, Kind: identity.ErrForbidden, Msg: "not the owner"}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM `+s.table()+` WHERE id = $1`, id); err != nil {
		return Micropost{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Micropost{}, err
	}
	return p, nil
}

// DeleteByUser removes every post owned by userID. The users FK cascade
// does the same on user deletion; this is for explicit cleanup.
func (s *PostgresStore) DeleteByUser(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM `+s.table()+` WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
