// Package config loads server configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the server's runtime configuration.
type Config struct {
	// Port is the TCP port the HTTP server listens on.
	Port int `env:"PORT" envDefault:"8080"`

	// DBPath is the SQLite database file path. Parent directories are
	// created on startup if missing.
	DBPath string `env:"DB_PATH" envDefault:"./data/debtrail.db"`

	// JWTSecret is the HMAC secret shared with the identity provider.
	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`

	// TokenDuration bounds how long generated tokens stay valid. Validation
	// honors whatever expiry the provider signed.
	TokenDuration time.Duration `env:"TOKEN_DURATION" envDefault:"24h"`

	// GatewayWebhookSecret authenticates payment gateway callbacks.
	GatewayWebhookSecret string `env:"GATEWAY_WEBHOOK_SECRET,required,notEmpty"`

	// NotifierURL is the base URL of the notification service. Empty
	// disables outbound notifications.
	NotifierURL string `env:"NOTIFIER_URL"`

	// LinkSweepInterval is how often the background job re-links unlinked
	// debts. Zero disables the job; the maintenance endpoint still works.
	LinkSweepInterval time.Duration `env:"LINK_SWEEP_INTERVAL" envDefault:"1h"`

	// ReminderInterval is how often overdue-debt reminders are dispatched.
	// Zero disables the job.
	ReminderInterval time.Duration `env:"REMINDER_INTERVAL" envDefault:"24h"`
}

// Load parses the configuration from the process environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
