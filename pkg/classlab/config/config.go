package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, parsed from the environment.
type Config struct {
	Port      string `env:"PORT" envDefault:"8080"`
	DBPath    string `env:"CLASSLAB_DB_PATH" envDefault:"classlab.db"`
	JWTSecret string `env:"JWT_SECRET" envDefault:"classlab-dev-secret-change-in-production"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`

	// External services. Keys left empty disable the corresponding
	// integration (auto-photo fetch, keyword extraction, mail).
	FlickrKey       string `env:"FLICKR_KEY"`
	WatsonURL       string `env:"WATSON_URL"`
	WatsonKey       string `env:"WATSON_KEY"`
	SendgridKey     string `env:"SENDGRID_KEY"`
	DefaultMailFrom string `env:"MAIL_FROM" envDefault:"no-reply@classlab.local"`

	// Frontend origin used in mailed links
	BaseURL string `env:"CLASSLAB_BASE_URL" envDefault:"http://localhost:3000"`
}

// Load parses configuration from the environment, reading a .env file
// first when one exists (development convenience).
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("loading .env: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}
