package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Secret = []byte(strings.Repeat("k", 32))
	return cfg
}

func TestSigner_SignAndParse(t *testing.T) {
	t.Parallel()

	s, err := NewSigner(testConfig())
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	now := time.Date(2011, 5, 1, 12, 0, 0, 0, time.UTC)
	tok, exp, err := s.Sign("01HZZZZZZZZZZZZZZZZZZZZZZZ", "salt-value", now)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !exp.After(now.Add(19 * 365 * 24 * time.Hour)) {
		t.Fatalf("expected a long-lived token, exp=%v", exp)
	}

	id, salt, err := s.Parse(tok, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if id != "01HZZZZZZZZZZZZZZZZZZZZZZZ" || salt != "salt-value" {
		t.Fatalf("unexpected pair (%q, %q)", id, salt)
	}
}

func TestSigner_RejectsTamperingAndForeignKeys(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	s, _ := NewSigner(testConfig())
	tok, _, err := s.Sign("id", "salt", now)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	other := testConfig()
	other.Secret = []byte(strings.Repeat("x", 32))
	foreign, _ := NewSigner(other)

	parts := strings.Split(tok, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	for name, raw := range map[string]string{
		"empty":    "",
		"garbage":  "not-a-jwt",
		"tampered": tampered,
	} {
		if _, _, err := s.Parse(raw, now); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
	if _, _, err := foreign.Parse(tok, now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign key: expected ErrInvalidToken, got %v", err)
	}
}

func TestSigner_RejectsExpiredAndWrongIssuer(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.TTL = time.Minute
	s, _ := NewSigner(cfg)

	now := time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC)
	tok, _, _ := s.Sign("id", "salt", now)
	if _, _, err := s.Parse(tok, now.Add(2*time.Minute)); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expiry rejection, got %v", err)
	}

	cfg2 := testConfig()
	cfg2.Issuer = "someone-else"
	s2, _ := NewSigner(cfg2)
	tok2, _, _ := s2.Sign("id", "salt", now)
	full, _ := NewSigner(testConfig())
	if _, _, err := full.Parse(tok2, now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected issuer rejection, got %v", err)
	}
}

func TestSigner_RejectsNoneAlgorithm(t *testing.T) {
	t.Parallel()

	s, _ := NewSigner(testConfig())
	now := time.Now().UTC()

	claims := RememberClaims{
		Salt: "salt",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "id",
			Issuer:    "sampleapp",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, _, err := s.Parse(unsigned, now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected rejection of alg=none, got %v", err)
	}
}

func TestNewSigner_ShortSecret(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Secret = []byte("short")
	if _, err := NewSigner(cfg); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}
