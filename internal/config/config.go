// apps/solver/internal/config/config.go
//
// Process configuration.
// Responsibilities:
//   - Loading .env (if present) and reading settings from the environment.
//   - Overlaying strategy tuning from the YAML file named by SOLVER_CONFIG.
//   - Choosing the entropy cache backend (file directory or SQLite).

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/robalobadob/wordle/apps/solver/internal/game"
	"github.com/robalobadob/wordle/apps/solver/internal/strategy"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config is the resolved process configuration.
type Config struct {
	Port         string
	LogLevel     zerolog.Level
	DataDir      string
	DBPath       string
	CacheBackend string
	JWTSecret    string
	ClientOrigin string
	DailySalt    string
	Languages    []string

	ValidatorTimeout time.Duration
	MaxGuesses       int
	Tuning           strategy.Tuning
}

// solverFile is the YAML overlay read from SOLVER_CONFIG.
type solverFile struct {
	MaxGuesses int              `yaml:"max_guesses"`
	Tuning     *strategy.Tuning `yaml:"tuning"`
	Languages  []string         `yaml:"languages"`
}

// Load reads .env (ignored when missing), the environment and the optional
// SOLVER_CONFIG overlay.
func Load() (*Config, error) {
	_ = godotenv.Load()

	c := &Config{
		Port:             getEnv("PORT", "5175"),
		LogLevel:         zerolog.InfoLevel,
		DataDir:          getEnv("DATA_DIR", "./data"),
		CacheBackend:     strings.ToLower(getEnv("CACHE_BACKEND", BackendFile)),
		JWTSecret:        getEnv("JWT_SECRET", "dev_secret_change_me"),
		ClientOrigin:     getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		DailySalt:        getEnv("DAILY_SALT", "local_dev_salt"),
		Languages:        splitList(getEnv("LANGUAGES", "en,ar")),
		ValidatorTimeout: 3 * time.Second,
		MaxGuesses:       game.DefaultMaxGuesses,
		Tuning:           strategy.DefaultTuning(),
	}
	c.DBPath = getEnv("DB_PATH", filepath.Join(c.DataDir, "solver.db"))

	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		c.LogLevel = lvl
	}
	if v := os.Getenv("VALIDATOR_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("VALIDATOR_TIMEOUT: %w", err)
		}
		c.ValidatorTimeout = d
	}
	if v := os.Getenv("MAX_GUESSES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("MAX_GUESSES: invalid value %q", v)
		}
		c.MaxGuesses = n
	}
	switch c.CacheBackend {
	case BackendFile, BackendSQLite:
	default:
		return nil, fmt.Errorf("CACHE_BACKEND: unknown backend %q", c.CacheBackend)
	}

	if path := os.Getenv("SOLVER_CONFIG"); path != "" {
		if err := c.overlay(path); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// overlay applies the YAML file at path. Fields left out keep their values.
func (c *Config) overlay(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read solver config: %w", err)
	}
	f := solverFile{Tuning: &c.Tuning}
	if err := yaml.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("parse solver config %s: %w", path, err)
	}
	if f.MaxGuesses > 0 {
		c.MaxGuesses = f.MaxGuesses
	}
	if len(f.Languages) > 0 {
		c.Languages = f.Languages
	}
	if c.Tuning.Decay <= 0 {
		return fmt.Errorf("solver config %s: decay must be positive", path)
	}
	return nil
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
