package cli

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	pkgcfg "github.com/Skotchmaster/command_pilot/pkg/config"
)

const (
	DefaultAPIURL    = "http://localhost:8080"
	defaultStoreName = ".command-pilot.db"
)

// Config configures the terminal client.
type Config struct {
	APIURL    string
	StorePath string
	LogLevel  string
}

// LoadConfig reads .env when present. The store defaults to a file in the home
// directory, or the working directory when home is unknown.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	store := os.Getenv("PILOT_STORE")
	if store == "" {
		store = defaultStoreName
		if home, err := os.UserHomeDir(); err == nil {
			store = filepath.Join(home, defaultStoreName)
		}
	}

	return &Config{
		APIURL:    pkgcfg.EnvDefault("PILOT_API_URL", DefaultAPIURL),
		StorePath: store,
		LogLevel:  pkgcfg.EnvDefault("PILOT_LOG_LEVEL", "warn"),
	}, nil
}
