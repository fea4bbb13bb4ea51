package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	cfg := LoadConfigFromEnv()
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 10, cfg.PerPage)
	assert.Equal(t, 20, cfg.SignInMax)
	assert.Equal(t, 5*time.Minute, cfg.SignInWindow)
}

func TestLoadConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("SAMPLEAPP_API_TRUST_PROXY", "true")
	t.Setenv("SAMPLEAPP_API_PER_PAGE", "500")
	t.Setenv("SAMPLEAPP_API_SIGNIN_MAX", "-3")
	t.Setenv("SAMPLEAPP_API_SIGNIN_WINDOW", "90s")

	cfg := LoadConfigFromEnv()
	assert.True(t, cfg.TrustProxy)
	assert.Equal(t, 100, cfg.PerPage)
	assert.Equal(t, 20, cfg.SignInMax)
	assert.Equal(t, 90*time.Second, cfg.SignInWindow)
}
