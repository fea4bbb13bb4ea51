package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sampleapp/cmd/identity"
)

// Audit actions.
const (
	ActionSignInSuccess     = "auth.signin.success"
	ActionSignInFailed      = "auth.signin.failed"
	ActionSignInRateLimited = "auth.signin.rate_limited"
	ActionSignOut           = "auth.signout"
	ActionUserCreated       = "users.created"
	ActionUserDeleted       = "users.deleted"
	ActionUserAdminChanged  = "users.admin_changed"
)

// AuditEntry is one security-relevant event.
type AuditEntry struct {
	Action    string
	UserID    string
	IP        net.IP
	UserAgent string
	Meta      map[string]any
}

// Auditor records audit entries. Record must not fail the request; implementations log their own errors.
type Auditor interface {
	Record(ctx context.Context, e AuditEntry)
}

// LogAuditor writes entries as structured log lines. Used when no database is configured.
type LogAuditor struct {
	Log *slog.Logger
}

// Record implements Auditor.
func (a LogAuditor) Record(_ context.Context, e AuditEntry) {
	log := a.Log
	if log == nil {
		log = slog.Default()
	}
	attrs := []any{"action", e.Action}
	if e.UserID != "" {
		attrs = append(attrs, "user_id", e.UserID)
	}
	if e.IP != nil {
		attrs = append(attrs, "ip", e.IP.String())
	}
	if len(e.Meta) > 0 {
		attrs = append(attrs, "meta", e.Meta)
	}
	log.Info("audit", attrs...)
}

// PostgresAuditor inserts entries into <schema>.audit_log.
type PostgresAuditor struct {
	pool   *pgxpool.Pool
	schema string
	log    *slog.Logger
}

// NewPostgresAuditor constructs a PostgresAuditor. schema defaults to identity.DefaultSchema.
func NewPostgresAuditor(pool *pgxpool.Pool, schema string, log *slog.Logger) (*PostgresAuditor, error) {
	if pool == nil {
		return nil, errors.New("audit: nil db pool")
	}
	schema = strings.TrimSpace(schema)
	if schema == "" {
		schema = identity.DefaultSchema
	}
	if !identity.PgIdentIsValid(schema) {
		return nil, identity.OpError{Op: "audit.NewPostgresAuditor", Kind: identity.ErrInvalidInput, Msg: "invalid schema"}
	}
	if log == nil {
		log = slog.Default()
	}
	return &PostgresAuditor{pool: pool, schema: schema, log: log}, nil
}

// Record implements Auditor.
func (a *PostgresAuditor) Record(ctx context.Context, e AuditEntry) {
	action := strings.TrimSpace(e.Action)
	if a == nil || action == "" {
		return
	}

	var ipVal any
	if e.IP != nil {
		ipVal = e.IP.String()
	}

	meta := "{}"
	if len(e.Meta) > 0 {
		if b, err := json.Marshal(e.Meta); err == nil {
			meta = string(b)
		}
	}

	// The request may already be finishing; keep the insert short and detached from its cancellation.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	table := pgx.Identifier{a.schema, "audit_log"}.Sanitize()
	_, err := a.pool.Exec(ctx, `
		INSERT INTO `+table+` (
			action, user_id, ip, user_agent, meta, created_at
		) VALUES ($1, $2, $3, $4, $5::jsonb, now())
	`, action, trimOrNil(e.UserID), ipVal, trimOrNil(e.UserAgent), meta)
	if err != nil {
		a.log.Error("audit.insert.fail", "err", err, "action", action)
	}
}

func trimOrNil(s string) any {
	v := strings.TrimSpace(s)
	if v == "" {
		return nil
	}
	return v
}
