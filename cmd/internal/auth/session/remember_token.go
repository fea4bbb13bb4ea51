package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"sampleapp/cmd/security/token"
)

// RememberClaims is the remember_token payload: sub is the user id.
type RememberClaims struct {
	Salt string `json:"salt"`
	jwt.RegisteredClaims
}

// Signer issues and verifies remember tokens.
type Signer struct {
	key    []byte
	issuer string
	ttl    time.Duration
}

// NewSigner derives the HS256 key from cfg.Secret.
func NewSigner(cfg Config) (*Signer, error) {
	if len(cfg.Secret) < token.MinSecretBytes {
		return nil, fmt.Errorf("%w: %v", ErrConfig, token.ErrSecretTooShort)
	}
	key, err := token.DeriveKey(cfg.Secret, "remember_token", 32)
	if err != nil {
		return nil, err
	}
	return &Signer{key: key, issuer: cfg.Issuer, ttl: cfg.TTL}, nil
}

// Sign returns a signed token for (id, salt) and its expiry.
func (s *Signer) Sign(id, salt string, now time.Time) (string, time.Time, error) {
	now = now.UTC()
	exp := now.Add(s.ttl)

	claims := RememberClaims{
		Salt: salt,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse verifies raw at now and returns the (id, salt) pair it carries.
func (s *Signer) Parse(raw string, now time.Time) (id, salt string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", ErrInvalidToken
	}

	var claims RememberClaims
	_, err = jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.Salt == "" {
		return "", "", ErrInvalidToken
	}
	return claims.Subject, claims.Salt, nil
}
