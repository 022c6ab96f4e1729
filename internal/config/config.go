// Package config reads process configuration from the environment,
// with optional .env loading for local development.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config is everything the binaries need from the environment.
type Config struct {
	// Port is the HTTP listen port for cmd/api.
	Port string

	// StateDir holds the persisted JSON documents.
	StateDir string

	// GeminiAPIKey authenticates against the AI gateway. Empty means
	// AI features are disabled; the tracker itself keeps working.
	GeminiAPIKey string

	// Model overrides the default Gemini model when set.
	Model string
}

// Load reads configuration, consulting a .env file when present.
func Load() (Config, error) {
	// Missing .env is fine: production sets real environment variables.
	_ = godotenv.Load()

	cfg := Config{
		Port:         getenv("PORT", "8080"),
		StateDir:     os.Getenv("FINSIGHT_STATE_DIR"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		Model:        os.Getenv("FINSIGHT_MODEL"),
	}

	if cfg.StateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("config.Load: resolve home dir: %w", err)
		}
		cfg.StateDir = filepath.Join(home, ".finsight")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
