// Package config loads service settings from the environment. A .env file in
// the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// history backends
const (
	HistoryMemory   = "memory"
	HistoryBadger   = "badger"
	HistoryPostgres = "postgres"
)

var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")
	ErrMissingBadgerPath  = errors.New("BADGER_PATH is required for the badger history backend")
	ErrInvalidHistory     = errors.New("HISTORY_BACKEND must be memory, badger or postgres")
)

// Config holds everything the API server needs.
type Config struct {
	Port        int
	DatabaseURL string

	// PersistURL points at a remote automation endpoint. When empty,
	// automations are stored in DATABASE_URL directly.
	PersistURL  string
	SaveTimeout time.Duration

	// CatalogPath overrides the embedded node template catalog.
	CatalogPath string

	HistoryBackend string
	BadgerPath     string

	CORSOrigins []string
	LogLevel    string
	LogFormat   string
}

// Load reads the environment (and .env when present) and validates it.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a config from a lookup function such as os.LookupEnv.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(k, def string) string {
		if v, ok := lookup(k); ok && v != "" {
			return v
		}
		return def
	}

	port, err := strconv.Atoi(get("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}
	timeout, err := time.ParseDuration(get("SAVE_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SAVE_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Port:           port,
		DatabaseURL:    get("DATABASE_URL", ""),
		PersistURL:     strings.TrimRight(get("PERSIST_URL", ""), "/"),
		SaveTimeout:    timeout,
		CatalogPath:    get("CATALOG_PATH", ""),
		HistoryBackend: strings.ToLower(get("HISTORY_BACKEND", HistoryMemory)),
		BadgerPath:     get("BADGER_PATH", ""),
		CORSOrigins:    splitList(get("CORS_ORIGINS", "http://localhost:3000")),
		LogLevel:       get("LOG_LEVEL", "info"),
		LogFormat:      get("LOG_FORMAT", "text"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field combinations.
func (c *Config) Validate() error {
	switch c.HistoryBackend {
	case HistoryMemory:
	case HistoryBadger:
		if c.BadgerPath == "" {
			return ErrMissingBadgerPath
		}
	case HistoryPostgres:
		if c.DatabaseURL == "" {
			return ErrMissingDatabaseURL
		}
	default:
		return ErrInvalidHistory
	}

	// automations live in postgres unless a remote endpoint is configured
	if c.PersistURL == "" && c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	return nil
}

// NeedsDatabase reports whether a postgres pool must be opened.
func (c *Config) NeedsDatabase() bool {
	return c.PersistURL == "" || c.HistoryBackend == HistoryPostgres
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
