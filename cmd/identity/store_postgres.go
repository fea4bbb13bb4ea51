package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements the credential store over PostgreSQL.
//
// - The pgx pool is owned by the caller; this store must NOT close it.
// - Schema/table identifiers are safely quoted to avoid SQL injection via identifiers.
// - Email uniqueness is enforced by uq_users_email_norm; the pre-insert lookup only
//   improves the error report and is not relied on for correctness.
// - Microposts reference users with ON DELETE CASCADE.
type PostgresStore struct {
	pool      *pgxpool.Pool
	schema    string
	validator Validator
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// DefaultSchema is the Postgres schema created by the migrations.
const DefaultSchema = "sampleapp"

// WithSchema sets the Postgres schema used by the store (default "sampleapp").
// The schema name is validated to be a legal PostgreSQL identifier.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("identity: empty schema")
		}
		if !PgIdentIsValid(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// WithValidator overrides the default validator.
func WithValidator(v Validator) PostgresOption {
	return func(s *PostgresStore) error {
		s.validator = v
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:      pool,
		schema:    DefaultSchema,
		validator: DefaultValidator(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return st, nil
}

const userColumns = `id, name, email, email_norm, salt, encrypted_password, admin, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.EmailNorm,
		&u.Salt,
		&u.EncryptedPassword,
		&u.Admin,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

// CreateUser validates and inserts a new user.
func (s *PostgresStore) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.CreateUser"

	if s == nil || s.pool == nil {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}
	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	now := nowUTC(in.Now)
	fields := s.validator.Check(in.Name, in.Email, in.Password, in.PasswordConfirmation)
	norm := NormalizeEmail(in.Email)

	if !hasField(fields, "email") {
		taken, err := s.emailTaken(ctx, norm, "")
		if err != nil {
			return User{}, err
		}
		if taken {
			fields = withTaken(fields)
		}
	}
	if len(fields) > 0 {
		return User{}, ValidationError{Op: op, Fields: fields}
	}

	userID, err := NewULID(now)
	if err != nil {
		return User{}, err
	}
	salt := MakeSalt(now, in.Password)

	users := pgIdent(s.schema, "users")

	u, err := scanUser(s.pool.QueryRow(ctx,
		`INSERT INTO `+users+` (
		     id, name, email, email_norm, salt, encrypted_password, admin, created_at, updated_at
		   ) VALUES ($1, $2, $3, $4, $5, $6, false, $7, $7)
		 RETURNING `+userColumns,
		userID,
		NormalizeName(in.Name),
		strings.TrimSpace(in.Email),
		norm,
		salt,
		EncryptPassword(salt, in.Password),
		now,
	))
	if err != nil {
		if field, ok := pgClassifyUniqueViolation(err); ok {
			return User{}, ConflictError{Op: op, Field: field}
		}
		return User{}, err
	}
	return u, nil
}

// UpdateUser replaces name, email and password. The salt column is never written.
func (s *PostgresStore) UpdateUser(ctx context.Context, in UpdateUserInput) (User, error) {
	const op = "identity.UpdateUser"

	if s == nil || s.pool == nil {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	if strings.TrimSpace(in.ID) == "" {
		return User{}, pgInvalid(op, "missing id")
	}

	now := nowUTC(in.Now)
	fields := s.validator.Check(in.Name, in.Email, in.Password, in.PasswordConfirmation)
	norm := NormalizeEmail(in.Email)

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return User{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	users := pgIdent(s.schema, "users")

	var salt string
	err = tx.QueryRow(ctx,
		`SELECT salt FROM `+users+` WHERE id = $1 FOR UPDATE`,
		in.ID,
	).Scan(&salt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, NotFoundError{Op: op, Resource: "user"}
		}
		return User{}, err
	}

	if !hasField(fields, "email") {
		var taken bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM `+users+` WHERE email_norm = $1 AND id <> $2)`,
			norm, in.ID,
		).Scan(&taken)
		if err != nil {
			return User{}, err
		}
		if taken {
			fields = withTaken(fields)
		}
	}
	if len(fields) > 0 {
		return User{}, ValidationError{Op: op, Fields: fields}
	}

	u, err := scanUser(tx.QueryRow(ctx,
		`UPDATE `+users+`
		    SET name = $2, email = $3, email_norm = $4, encrypted_password = $5, updated_at = $6
		  WHERE id = $1
		 RETURNING `+userColumns,
		in.ID,
		NormalizeName(in.Name),
		strings.TrimSpace(in.Email),
		norm,
		EncryptPassword(salt, in.Password),
		now,
	))
	if err != nil {
		if field, ok := pgClassifyUniqueViolation(err); ok {
			return User{}, ConflictError{Op: op, Field: field}
		}
		return User{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return User{}, err
	}
	return u, nil
}

// FindByEmail looks a user up by case-insensitive email.
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (User, bool, error) {
	if err := ctx.Err(); err != nil {
		return User{}, false, err
	}
	norm := NormalizeEmail(email)
	if norm == "" {
		return User{}, false, nil
	}

	users := pgIdent(s.schema, "users")
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM `+users+` WHERE email_norm = $1`,
		norm,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, false, nil
		}
		return User{}, false, err
	}
	return u, true, nil
}

// FindByID looks a user up by id.
func (s *PostgresStore) FindByID(ctx context.Context, id string) (User, bool, error) {
	if err := ctx.Err(); err != nil {
		return User{}, false, err
	}
	if strings.TrimSpace(id) == "" {
		return User{}, false, nil
	}

	users := pgIdent(s.schema, "users")
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM `+users+` WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, false, nil
		}
		return User{}, false, err
	}
	return u, true, nil
}

// ListUsers returns users in creation order.
func (s *PostgresStore) ListUsers(ctx context.Context, in ListUsersInput) ([]User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	in = in.normalized()

	users := pgIdent(s.schema, "users")
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM `+users+`
		  ORDER BY created_at ASC, id ASC
		  LIMIT $1 OFFSET $2`,
		in.Limit, in.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]User, 0, in.Limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// CountUsers returns the number of stored users.
func (s *PostgresStore) CountUsers(ctx context.Context) (int, error) {
	users := pgIdent(s.schema, "users")

	var n int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM `+users).Scan(&n)
	return n, err
}

// SetAdmin sets the admin flag.
func (s *PostgresStore) SetAdmin(ctx context.Context, id string, admin bool, now time.Time) (User, error) {
	const op = "identity.SetAdmin"

	if err := ctx.Err(); err != nil {
		return User{}, err
	}

	users := pgIdent(s.schema, "users")
	u, err := scanUser(s.pool.QueryRow(ctx,
		`UPDATE `+users+` SET admin = $2, updated_at = $3 WHERE id = $1 RETURNING `+userColumns,
		id, admin, nowUTC(now),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, NotFoundError{Op: op, Resource: "user"}
		}
		return User{}, err
	}
	return u, nil
}

// DeleteUser removes the user; owned microposts go with it (FK ON DELETE CASCADE).
func (s *PostgresStore) DeleteUser(ctx context.Context, id string) error {
	const op = "identity.DeleteUser"

	if err := ctx.Err(); err != nil {
		return err
	}

	users := pgIdent(s.schema, "users")
	tag, err := s.pool.Exec(ctx, `DELETE FROM `+users+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return NotFoundError{Op: op, Resource: "user"}
	}
	return nil
}

func (s *PostgresStore) emailTaken(ctx context.Context, norm, exceptID string) (bool, error) {
	users := pgIdent(s.schema, "users")

	var taken bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+users+` WHERE email_norm = $1 AND id <> $2)`,
		norm, exceptID,
	).Scan(&taken)
	return taken, err
}

// ---- helpers ----

// pgInvalid standardizes invalid input errors.
func pgInvalid(op, msg string) error {
	return OpError{Op: op, Kind: ErrInvalidInput, Msg: msg}
}

// PgIdentIsValid checks if a string is a safe Postgres identifier.
func PgIdentIsValid(s string) bool {
	return pgIdentRe.MatchString(s)
}

// pgIdent safely quotes a schema-qualified identifier: "schema"."name".
func pgIdent(schema, name string) string {
	return pgx.Identifier{schema, name}.Sanitize()
}

// PgIsForeignKeyViolation reports SQLSTATE 23503.
func PgIsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23503" // foreign_key_violation
}

func pgClassifyUniqueViolation(err error) (field string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != "23505" { // unique_violation
		return "", false
	}

	// Prefer stable schema constraint names. Fall back to substring matching.
	c := strings.ToLower(strings.TrimSpace(pgErr.ConstraintName))

	switch {
	case c == "uq_users_email_norm", strings.Contains(c, "email"):
		return "email", true
	default:
		return "unique", true
	}
}
