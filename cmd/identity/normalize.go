package identity

import "strings"

// NormalizeEmail performs case-insensitive canonicalization.
// The normalized form backs the unique constraint and all lookups by email.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeName trims surrounding whitespace; case is preserved.
func NormalizeName(s string) string {
	return strings.TrimSpace(s)
}
