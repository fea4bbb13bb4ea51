package app

import (
	"context"
	"errors"
	"io/fs"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"sampleapp/cmd/internal/auth/session"
)

// Run is the CLI entrypoint used by cmd/sampleapp.
// It returns an error instead of calling os.Exit to keep defers effective and lint clean.
func Run() error {
	if err := loadDotEnv(EnvString("SAMPLEAPP_ENV_FILE", ".env")); err != nil {
		return err
	}

	cfg := LoadConfig()
	log := NewLogger(cfg.LogLevel, cfg.LogFormat)

	sess, err := session.LoadConfigFromEnv()
	if err != nil {
		return err
	}
	if err := ValidateSecurityConfig(cfg, &sess, log); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := New(ctx, cfg, sess, log)
	if err != nil {
		return err
	}
	return a.Run(ctx)
}

// loadDotEnv reads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
