package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	// SecretEnvKey is the env var name for the session master secret.
	// #nosec G101 -- not a credential; it's an environment variable name.
	SecretEnvKey = "SAMPLEAPP_SESSION_SECRET"

	// MinSecretBytes is the minimum accepted master secret size.
	MinSecretBytes = 32
)

// HashSHA256Hex returns a SHA-256 hex digest of s.
func HashSHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HashHMACSHA256Hex returns an HMAC-SHA256 hex digest of s using key.
func HashHMACSHA256Hex(s string, key []byte) string {
	m := hmac.New(sha256.New, key)
	_, _ = m.Write([]byte(s))
	return hex.EncodeToString(m.Sum(nil))
}

// SecretFromEnv returns the configured master secret (trimmed), enforcing a minimum byte length.
// If the env var is missing/blank -> ErrSecretMissing.
// If too short -> ErrSecretTooShort.
func SecretFromEnv(minBytes int) ([]byte, error) {
	return CheckSecret(os.Getenv(SecretEnvKey), minBytes)
}

// CheckSecret applies the SecretFromEnv rules to an explicit value.
func CheckSecret(raw string, minBytes int) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrSecretMissing
	}
	b := []byte(raw)
	if minBytes > 0 && len(b) < minBytes {
		return nil, ErrSecretTooShort
	}
	return b, nil
}

// DeriveKey derives an n-byte subkey from secret for the given purpose label
// using HKDF-SHA256. Equal inputs always yield equal keys.
func DeriveKey(secret []byte, purpose string, n int) ([]byte, error) {
	if len(secret) == 0 {
		return nil, ErrSecretMissing
	}
	if n <= 0 {
		n = sha256.Size
	}

	r := hkdf.New(sha256.New, secret, nil, []byte("sampleapp/"+purpose))
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}
