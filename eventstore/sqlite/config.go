package sqlite

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the store configuration, loadable from the environment.
type Config struct {
	// Path is the SQLite database file path.
	Path string `env:"BANKLEDGER_SQLITE_PATH" envDefault:"bankledger.db"`
	// BusyTimeoutMillis bounds how long a writer waits on a locked
	// database before failing. Appends remain all-or-nothing on timeout.
	BusyTimeoutMillis int `env:"BANKLEDGER_SQLITE_BUSY_TIMEOUT_MS" envDefault:"5000"`
}

// ConfigFromEnv loads the store configuration from environment variables.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse sqlite config: %w", err)
	}
	return cfg, nil
}

// DSN renders the connection string with the pragmas the store relies on.
func (c Config) DSN() string {
	return fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL", c.Path, c.BusyTimeoutMillis)
}
