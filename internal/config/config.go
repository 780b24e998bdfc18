// Package config reads process configuration from the environment.
// A .env file in the working directory is loaded first if present; real
// environment variables take precedence over it.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/field-report/internal/auth"
)

const (
	DefaultPort   = 3000
	DefaultDBPath = "data/fieldreport.db"
)

// Config holds everything main needs to build the server.
type Config struct {
	Port               int
	DBPath             string
	BcryptCost         int
	LogLevel           slog.Level
	CORSAllowedOrigins []string
}

// Load reads .env (optional) and then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: reading .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, defaulting unset values.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Port:               DefaultPort,
		DBPath:             DefaultDBPath,
		BcryptCost:         auth.DefaultCost,
		LogLevel:           slog.LevelInfo,
		CORSAllowedOrigins: []string{"*"},
	}

	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 1 || port > 65535 {
			return Config{}, fmt.Errorf("config: invalid PORT %q", v)
		}
		cfg.Port = port
	}

	if v := getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}

	if v := getenv("BCRYPT_COST"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid BCRYPT_COST %q", v)
		}
		if cost < auth.MinProductionCost || cost > bcrypt.MaxCost {
			return Config{}, fmt.Errorf("config: BCRYPT_COST %d outside [%d, %d]", cost, auth.MinProductionCost, bcrypt.MaxCost)
		}
		cfg.BcryptCost = cost
	}

	if v := getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("config: invalid LOG_LEVEL %q", v)
		}
	}

	if v := getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) == 0 {
			return Config{}, fmt.Errorf("config: CORS_ALLOWED_ORIGINS has no origins")
		}
		cfg.CORSAllowedOrigins = origins
	}

	return cfg, nil
}
