// Package config loads runtime configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/justestif/go-photo-playlist/internal/deezer"
	"github.com/justestif/go-photo-playlist/internal/playlist"
)

// DefaultAddr is the default HTTP listen address.
const DefaultAddr = "127.0.0.1:8080"

// Config holds all runtime settings.
type Config struct {
	DeezerBaseURL string
	DeezerTimeout time.Duration

	// AuditDir is where filtering logs are written. Empty disables them.
	AuditDir string

	// DatabaseURL enables run persistence when set.
	DatabaseURL string

	SpotifyID     string
	SpotifySecret string

	Addr               string
	LogLevel           zerolog.Level
	ScoringConcurrency int
}

// Load reads an optional .env file (existing environment variables win) and
// builds a Config from the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	cfg := &Config{
		DeezerBaseURL:      getenv("DEEZER_BASE_URL", deezer.DefaultBaseURL),
		AuditDir:           getenv("AUDIT_DIR", "history"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		SpotifyID:          os.Getenv("SPOTIFY_ID"),
		SpotifySecret:      os.Getenv("SPOTIFY_SECRET"),
		Addr:               getenv("HTTP_ADDR", DefaultAddr),
		LogLevel:           zerolog.InfoLevel,
		ScoringConcurrency: playlist.DefaultConcurrency,
	}

	var err error
	if cfg.DeezerTimeout, err = durationEnv("DEEZER_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.ScoringConcurrency, err = intEnv("SCORING_CONCURRENCY", cfg.ScoringConcurrency); err != nil {
		return nil, err
	}
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok && v != "" {
		level, err := zerolog.ParseLevel(v)
		if err != nil {
			return nil, fmt.Errorf("parsing LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = level
	}

	return cfg, nil
}

// Deezer returns the catalogue client configuration.
func (c *Config) Deezer() deezer.Config {
	return deezer.Config{BaseURL: c.DeezerBaseURL, Timeout: c.DeezerTimeout}
}

// HasSpotify reports whether Spotify export credentials are configured.
func (c *Config) HasSpotify() bool {
	return c.SpotifyID != "" && c.SpotifySecret != ""
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return n, nil
}
