package config

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Skotchmaster/command_pilot/internal/llm"
	"github.com/Skotchmaster/command_pilot/internal/search"
	"github.com/Skotchmaster/command_pilot/internal/service"
	pkgcfg "github.com/Skotchmaster/command_pilot/pkg/config"
)

type Config struct {
	Addr         string
	DatabaseURL  string
	JWTSecret    []byte
	SessionTTL   time.Duration
	CookieSecure bool
	LogLevel     string

	AllowedOrigins []string

	LLM llm.Config

	RedisURL        string
	RateLimit       int
	RateLimitWindow time.Duration

	KafkaBrokers []string

	Search search.Config
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	cfg := &Config{
		Addr:         ":" + pkgcfg.EnvDefault("PORT", "8080"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		JWTSecret:    []byte(os.Getenv("JWT_SECRET_KEY")),
		SessionTTL:   pkgcfg.EnvDurationDefault("JWT_TTL", service.DefaultSessionTTL),
		CookieSecure: pkgcfg.EnvBoolDefault("COOKIE_SECURE", false),
		LogLevel:     pkgcfg.EnvDefault("LOG_LEVEL", "info"),

		AllowedOrigins: pkgcfg.CSV(pkgcfg.EnvDefault("ALLOWED_ORIGINS", "http://localhost:5173")),

		LLM: llm.Config{
			APIKey:  os.Getenv("OPENROUTER_API_KEY"),
			BaseURL: pkgcfg.EnvDefault("OPENROUTER_BASE_URL", llm.DefaultBaseURL),
			Model:   pkgcfg.EnvDefault("OPENROUTER_MODEL", llm.DefaultModel),
		},

		RedisURL:        os.Getenv("REDIS_URL"),
		RateLimit:       pkgcfg.EnvIntDefault("RATE_LIMIT", 20),
		RateLimitWindow: pkgcfg.EnvDurationDefault("RATE_LIMIT_WINDOW", time.Hour),

		KafkaBrokers: pkgcfg.CSV(os.Getenv("KAFKA_BROKERS")),

		Search: search.Config{
			URL:      os.Getenv("ES_URL"),
			User:     os.Getenv("ES_USER"),
			Password: os.Getenv("ES_PASSWORD"),
			Index:    pkgcfg.EnvDefault("ES_INDEX", search.DefaultIndex),
		},
	}

	if err := pkgcfg.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL"); err != nil {
		return nil, err
	}
	if err := pkgcfg.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET_KEY"); err != nil {
		return nil, err
	}
	return cfg, nil
}
