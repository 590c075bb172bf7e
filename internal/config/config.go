package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	defaultAppEnv   = "development"
	defaultDBPath   = ":memory:"
	defaultPort     = "8080"
	defaultLogLevel = "info"
	defaultCurrency = "ARS"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	AppEnv    string
	DBPath    string
	Port      string
	LogLevel  string
	LogPretty bool
	Currency  string
}

// IsDev reports whether the server runs in a local development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	}
	return false
}

// InMemory reports whether recipes live only for the lifetime of the process.
func (c Config) InMemory() bool {
	return c.DBPath == ":memory:" || strings.Contains(c.DBPath, "mode=memory")
}

// Load reads environment variables and returns a populated Config.
func Load() Config {
	// Best-effort: production injects real environment variables.
	if n, err := loadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("ignoring .env file")
	} else if n > 0 {
		log.Debug().Int("keys", n).Msg("loaded .env file")
	}

	cfg := Config{
		AppEnv:   envOr("APP_ENV", defaultAppEnv),
		DBPath:   envOr("DB_PATH", defaultDBPath),
		Port:     envOr("PORT", defaultPort),
		LogLevel: envOr("LOG_LEVEL", defaultLogLevel),
		Currency: envOr("CURRENCY", defaultCurrency),
	}

	if raw := strings.TrimSpace(os.Getenv("LOG_PRETTY")); raw != "" {
		pretty, err := strconv.ParseBool(raw)
		if err != nil {
			log.Warn().Str("value", raw).Msg("LOG_PRETTY is not a boolean, using false")
		}
		cfg.LogPretty = pretty
	}

	if os.Getenv("DB_PATH") == "" {
		log.Warn().Msg("DB_PATH is not set, recipes are kept in memory for this process only")
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
