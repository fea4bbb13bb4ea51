package app

import (
	"crypto/rand"
	"errors"
	"fmt"

	"sampleapp/cmd/internal/auth/session"
	"sampleapp/cmd/security/token"
)

// ValidateSecurityConfig enforces the session secret policy at startup.
//
// With RequireSessionSecret the secret must come from the environment. Otherwise
// a missing secret is replaced by a random per-process one: remember-me cookies
// then stop working at every restart, which is acceptable only in development.
func ValidateSecurityConfig(cfg Config, sess *session.Config, log Logger) error {
	if sess == nil {
		return errors.New("security policy: nil session config")
	}
	if len(sess.Secret) >= token.MinSecretBytes {
		return nil
	}

	if len(sess.Secret) > 0 {
		return fmt.Errorf("security policy: %s is too short (min %d bytes)", token.SecretEnvKey, token.MinSecretBytes)
	}
	if cfg.RequireSessionSecret {
		return fmt.Errorf("security policy: SAMPLEAPP_REQUIRE_SESSION_SECRET=true but %s is missing", token.SecretEnvKey)
	}

	secret := make([]byte, token.MinSecretBytes)
	if _, err := rand.Read(secret); err != nil {
		return fmt.Errorf("security policy: generate ephemeral secret: %w", err)
	}
	sess.Secret = secret
	if log != nil {
		log.Warn("security.session_secret.ephemeral", "env", token.SecretEnvKey)
	}
	return nil
}
