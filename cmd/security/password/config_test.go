package password

import (
	"os"
	"testing"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"SAMPLEAPP_PASSWORD_MIN_LEN", "SAMPLEAPP_PASSWORD_MAX_LEN"} {
		_ = os.Unsetenv(k)
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}
	if cfg.Policy.MinLength != 6 || cfg.Policy.MaxLength != 40 {
		t.Fatalf("unexpected defaults: %+v", cfg.Policy)
	}
}

func TestFromEnv_Override(t *testing.T) {
	t.Setenv("SAMPLEAPP_PASSWORD_MIN_LEN", "10")
	t.Setenv("SAMPLEAPP_PASSWORD_MAX_LEN", "200")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}
	if cfg.Policy.MinLength != 10 || cfg.Policy.MaxLength != 200 {
		t.Fatalf("policy override failed: %+v", cfg.Policy)
	}
}

func TestFromEnv_InvalidMinMax(t *testing.T) {
	t.Setenv("SAMPLEAPP_PASSWORD_MIN_LEN", "20")
	t.Setenv("SAMPLEAPP_PASSWORD_MAX_LEN", "10")

	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFromEnv_NotANumber(t *testing.T) {
	t.Setenv("SAMPLEAPP_PASSWORD_MIN_LEN", "six")

	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected error")
	}
}
