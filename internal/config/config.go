// Package config loads service configuration from environment variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the full service configuration.
type Config struct {
	Addr     string `env:"ADDR" envDefault:":8080"`
	Database Database
	Notifier Notifier
	GitHub   GitHub
}

// Database holds PostgreSQL connection settings.
type Database struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	Name     string `env:"DB_NAME" envDefault:"registrations"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	MaxConns int32  `env:"DB_MAX_CONNS" envDefault:"20"`
	MinConns int32  `env:"DB_MIN_CONNS" envDefault:"2"`
}

// DSN builds a libpq-compatible connection string.
func (d Database) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// Notifier sizes the asynchronous fan-out dispatcher.
type Notifier struct {
	QueueSize int `env:"NOTIFY_QUEUE_SIZE" envDefault:"256"`
	Workers   int `env:"NOTIFY_WORKERS" envDefault:"4"`
}

// GitHub configures the blob store backed by the GitHub contents API.
// An empty token selects the in-memory blob store.
type GitHub struct {
	Token  string `env:"GITHUB_TOKEN"`
	Repo   string `env:"GITHUB_REPO"`
	Branch string `env:"GITHUB_BRANCH" envDefault:"main"`
}

// Load parses configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
