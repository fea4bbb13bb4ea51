// Package micropost stores users' short posts and serves their feeds.
package micropost

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"sampleapp/cmd/identity"
)

// MaxContentChars is the maximum number of characters in a post.
const MaxContentChars = 140

// Micropost is one short post owned by exactly one user.
type Micropost struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateInput describes a new post.
type CreateInput struct {
	UserID  string
	Content string
	Now     time.Time
}

// Page selects a window of a newest-first listing.
type Page struct {
	Limit  int
	Offset int
}

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

func (p Page) normalized() Page {
	if p.Limit <= 0 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Check returns every failing rule of in. Owner existence is left to the store.
func Check(in CreateInput) []identity.FieldError {
	var out []identity.FieldError

	if strings.TrimSpace(in.UserID) == "" {
		out = append(out, identity.FieldError{Field: "user_id", Reason: identity.ReasonBlank})
	}

	content := strings.TrimSpace(in.Content)
	if content == "" {
		out = append(out, identity.FieldError{Field: "content", Reason: identity.ReasonBlank})
	}
	if utf8.RuneCountInString(content) > MaxContentChars {
		out = append(out, identity.FieldError{
			Field:  "content",
			Reason: fmt.Sprintf("is too long (maximum is %d characters)", MaxContentChars),
		})
	}
	return out
}

func nowUTC(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
