package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds everything the process needs from its environment. The
// owner id is the distinguished principal that resolves to the top
// authority level in every chat.
type Config struct {
	Token        string `env:"BOT_TOKEN,required"`
	OwnerID      int64  `env:"OWNER_ID,required"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"points.sqlite"`
}

// Load reads an optional .env file and parses the environment into a
// Config.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("config: Failed to load .env file", "error", err)
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}

	return cfg, nil
}
