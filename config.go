package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration, read from the environment (and a
// local .env file when present).
type Config struct {
	Port     string `env:"PORT" envDefault:"5175"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	// LogFormat is "json" or "console".
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Store selects the game repository: "memory" or "sqlite".
	Store  string `env:"STORE" envDefault:"sqlite"`
	DBPath string `env:"DB_PATH" envDefault:"./data/justone.db"`

	JWTSecret      string `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	JWTExpiresDays int    `env:"JWT_EXPIRES_DAYS" envDefault:"14"`
	CookieName     string `env:"COOKIE_NAME" envDefault:"justone_token"`
	SecureCookies  bool   `env:"SECURE_COOKIES" envDefault:"false"`
	ClientOrigin   string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`

	WordsFile string `env:"WORDS_FILE"`

	SweepInterval  time.Duration `env:"SWEEP_INTERVAL" envDefault:"5m"`
	SweepIdleAfter time.Duration `env:"SWEEP_IDLE_AFTER" envDefault:"2h"`
	SaveRetries    int           `env:"SAVE_RETRIES" envDefault:"3"`
}

// loadConfig parses the environment into a Config and checks the values
// the server cannot run without.
func loadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	switch cfg.Store {
	case "memory", "sqlite":
	default:
		return Config{}, fmt.Errorf("STORE must be memory or sqlite, got %q", cfg.Store)
	}
	if cfg.JWTExpiresDays <= 0 {
		return Config{}, fmt.Errorf("JWT_EXPIRES_DAYS must be positive, got %d", cfg.JWTExpiresDays)
	}
	if cfg.SaveRetries < 0 {
		return Config{}, fmt.Errorf("SAVE_RETRIES must not be negative, got %d", cfg.SaveRetries)
	}
	return cfg, nil
}

func (c Config) tokenTTL() time.Duration {
	return time.Duration(c.JWTExpiresDays) * 24 * time.Hour
}
