package session

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"sampleapp/cmd/security/token"
)

// Config defines all runtime configuration for the session subsystem.
type Config struct {
	// CookieName is the remember-token cookie.
	CookieName string

	// FlashCookieName carries the one-shot notice between a redirect and the next page.
	FlashCookieName string

	// TTL is the remember-token lifetime; the cookie is effectively permanent.
	TTL time.Duration

	CookiePath     string
	CookieDomain   string
	CookieSecure   bool
	CookieSameSite http.SameSite

	// Issuer is the "iss" claim of remember tokens.
	Issuer string

	// SignInPath is where DenyAccess redirects.
	SignInPath string

	// Secret is the master secret; signing keys are derived from it.
	Secret []byte
}

// DefaultConfig returns the development defaults. Secret is left empty.
func DefaultConfig() Config {
	return Config{
		CookieName:      "remember_token",
		FlashCookieName: "flash",
		TTL:             20 * 365 * 24 * time.Hour,
		CookiePath:      "/",
		CookieSecure:    false,
		CookieSameSite:  http.SameSiteLaxMode,
		Issuer:          "sampleapp",
		SignInPath:      "/signin",
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Optional:
//   - SAMPLEAPP_SESSION_COOKIE_NAME
//   - SAMPLEAPP_SESSION_FLASH_COOKIE_NAME
//   - SAMPLEAPP_SESSION_TTL (Go duration)
//   - SAMPLEAPP_SESSION_COOKIE_PATH
//   - SAMPLEAPP_SESSION_COOKIE_DOMAIN
//   - SAMPLEAPP_SESSION_COOKIE_SECURE
//   - SAMPLEAPP_SESSION_COOKIE_SAMESITE (lax|strict|none)
//   - SAMPLEAPP_SESSION_ISSUER
//   - SAMPLEAPP_SESSION_SIGNIN_PATH
//   - SAMPLEAPP_SESSION_SECRET (at least 32 bytes when set)
//
// A missing secret is not an error here; the startup policy decides.
// Returns an error wrapping ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := strings.TrimSpace(os.Getenv("SAMPLEAPP_SESSION_COOKIE_NAME")); v != "" {
		cfg.CookieName = v
	}
	if v := strings.TrimSpace(os.Getenv("SAMPLEAPP_SESSION_FLASH_COOKIE_NAME")); v != "" {
		cfg.FlashCookieName = v
	}

	if v := os.Getenv("SAMPLEAPP_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("%w: SAMPLEAPP_SESSION_TTL", ErrConfig)
		}
		cfg.TTL = d
	}

	if v := strings.TrimSpace(os.Getenv("SAMPLEAPP_SESSION_COOKIE_PATH")); v != "" {
		cfg.CookiePath = v
	}
	cfg.CookieDomain = strings.TrimSpace(os.Getenv("SAMPLEAPP_SESSION_COOKIE_DOMAIN"))

	if v := strings.TrimSpace(os.Getenv("SAMPLEAPP_SESSION_COOKIE_SECURE")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: SAMPLEAPP_SESSION_COOKIE_SECURE", ErrConfig)
		}
		cfg.CookieSecure = b
	}

	if v := os.Getenv("SAMPLEAPP_SESSION_COOKIE_SAMESITE"); v != "" {
		ss, ok := parseSameSite(v)
		if !ok {
			return Config{}, fmt.Errorf("%w: SAMPLEAPP_SESSION_COOKIE_SAMESITE", ErrConfig)
		}
		cfg.CookieSameSite = ss
	}

	if v := strings.TrimSpace(os.Getenv("SAMPLEAPP_SESSION_ISSUER")); v != "" {
		cfg.Issuer = v
	}
	if v := strings.TrimSpace(os.Getenv("SAMPLEAPP_SESSION_SIGNIN_PATH")); v != "" {
		if !strings.HasPrefix(v, "/") {
			return Config{}, fmt.Errorf("%w: SAMPLEAPP_SESSION_SIGNIN_PATH", ErrConfig)
		}
		cfg.SignInPath = v
	}

	secret, err := token.SecretFromEnv(token.MinSecretBytes)
	switch {
	case err == nil:
		cfg.Secret = secret
	case errors.Is(err, token.ErrSecretMissing):
	default:
		return Config{}, fmt.Errorf("%w: %s: %v", ErrConfig, token.SecretEnvKey, err)
	}

	// SameSite=None is rejected by browsers without Secure.
	if cfg.CookieSameSite == http.SameSiteNoneMode && !cfg.CookieSecure {
		return Config{}, fmt.Errorf("%w: SameSite=None requires a secure cookie", ErrConfig)
	}

	return cfg, nil
}

// Validate checks a config assembled in code.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.CookieName) == "":
		return fmt.Errorf("%w: empty cookie name", ErrConfig)
	case strings.TrimSpace(c.FlashCookieName) == "":
		return fmt.Errorf("%w: empty flash cookie name", ErrConfig)
	case c.TTL <= 0:
		return fmt.Errorf("%w: non-positive ttl", ErrConfig)
	case !strings.HasPrefix(c.SignInPath, "/"):
		return fmt.Errorf("%w: sign-in path must be absolute", ErrConfig)
	case len(c.Secret) < token.MinSecretBytes:
		return fmt.Errorf("%w: %v", ErrConfig, token.ErrSecretTooShort)
	}
	return nil
}

func parseSameSite(v string) (http.SameSite, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "lax":
		return http.SameSiteLaxMode, true
	case "strict":
		return http.SameSiteStrictMode, true
	case "none":
		return http.SameSiteNoneMode, true
	default:
		return http.SameSiteDefaultMode, false
	}
}
