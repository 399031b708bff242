package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration, parsed from the environment.
// A .env file loaded by main feeds the same variables in development.
type Config struct {
	HTTPAddr     string `env:"HTTP_ADDR" envDefault:":5175"`
	DBPath       string `env:"DB_PATH" envDefault:"./data/riftle.db"`
	ClientOrigin string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`

	JWTSecret     string `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	JWTExpireDays int    `env:"JWT_EXPIRES_DAYS" envDefault:"14"`
	CookieName    string `env:"COOKIE_NAME" envDefault:"riftle_token"`
	SecureCookies bool   `env:"SECURE_COOKIES" envDefault:"false"`

	// MaxGuesses bounds attempts per (player, puzzle).
	MaxGuesses int `env:"MAX_GUESSES" envDefault:"6"`

	// PuzzleSalt keys the deterministic daily card selection.
	PuzzleSalt string `env:"PUZZLE_SALT" envDefault:"local_dev_salt"`

	AnalyticsCacheTTL time.Duration `env:"ANALYTICS_CACHE_TTL" envDefault:"5m"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.MaxGuesses < 1 {
		return nil, fmt.Errorf("MAX_GUESSES must be >= 1, got %d", cfg.MaxGuesses)
	}
	return &cfg, nil
}
