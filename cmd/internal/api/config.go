package api

import (
	"os"
	"strconv"
	"strings"
	"time"

	"sampleapp/cmd/internal/ratelimit"
)

// Config controls API behavior and abuse limits.
type Config struct {
	TrustProxy   bool
	MaxBodyBytes int64
	PerPage      int

	SignInMax    int
	SignInWindow time.Duration
}

// DefaultConfig returns the defaults used when no environment overrides are set.
func DefaultConfig() Config {
	return Config{
		TrustProxy:   false,
		MaxBodyBytes: 1 << 20, // 1 MiB
		PerPage:      10,
		SignInMax:    ratelimit.DefaultLimit,
		SignInWindow: ratelimit.DefaultWindow,
	}
}

// LoadConfigFromEnv loads API config from environment variables with safe defaults.
func LoadConfigFromEnv() Config {
	d := DefaultConfig()
	return Config{
		TrustProxy:   envBool("SAMPLEAPP_API_TRUST_PROXY", d.TrustProxy),
		MaxBodyBytes: envInt64("SAMPLEAPP_API_MAX_BODY_BYTES", d.MaxBodyBytes),
		PerPage:      envInt("SAMPLEAPP_API_PER_PAGE", d.PerPage),
		SignInMax:    envInt("SAMPLEAPP_API_SIGNIN_MAX", d.SignInMax),
		SignInWindow: envDuration("SAMPLEAPP_API_SIGNIN_WINDOW", d.SignInWindow),
	}.normalized()
}

func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = d.MaxBodyBytes
	}
	if c.PerPage <= 0 {
		c.PerPage = d.PerPage
	}
	if c.PerPage > 100 {
		c.PerPage = 100
	}
	if c.SignInMax <= 0 {
		c.SignInMax = d.SignInMax
	}
	if c.SignInWindow <= 0 {
		c.SignInWindow = d.SignInWindow
	}
	return c
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
