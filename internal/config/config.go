package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env      string
	Addr     string
	DBDSN    string
	LogLevel string

	JWTSecret string
	TokenTTL  time.Duration

	MaxLoginAttempts int
	LockoutWindow    time.Duration

	BootstrapName     string
	BootstrapEmail    string
	BootstrapPassword string
}

func Load() (Config, error) {
	return LoadFromEnv(os.Getenv)
}

func LoadFromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Env:       getenv("APP_ENV"),
		Addr:      getenv("APP_ADDR"),
		DBDSN:     getenv("APP_DB_DSN"),
		LogLevel:  getenv("APP_LOG_LEVEL"),
		JWTSecret: getenv("APP_JWT_SECRET"),
	}

	if cfg.Env == "" {
		cfg.Env = "dev"
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8080"
	}

	switch cfg.Env {
	case "dev", "prod", "test":
	default:
		return Config{}, errors.New("APP_ENV: must be one of dev, test, prod")
	}

	ttlRaw := getenv("APP_TOKEN_TTL")
	if ttlRaw == "" {
		cfg.TokenTTL = 24 * time.Hour
	} else {
		ttl, err := time.ParseDuration(ttlRaw)
		if err != nil {
			return Config{}, fmt.Errorf("APP_TOKEN_TTL: %w", err)
		}
		if ttl <= 0 {
			return Config{}, errors.New("APP_TOKEN_TTL: must be > 0")
		}
		cfg.TokenTTL = ttl
	}

	maxRaw := getenv("APP_MAX_LOGIN_ATTEMPTS")
	if maxRaw == "" {
		cfg.MaxLoginAttempts = 5
	} else {
		max, err := strconv.Atoi(maxRaw)
		if err != nil {
			return Config{}, fmt.Errorf("APP_MAX_LOGIN_ATTEMPTS: %w", err)
		}
		if max < 1 {
			return Config{}, errors.New("APP_MAX_LOGIN_ATTEMPTS: must be >= 1")
		}
		cfg.MaxLoginAttempts = max
	}

	windowRaw := getenv("APP_LOCKOUT_WINDOW")
	if windowRaw == "" {
		cfg.LockoutWindow = 30 * time.Minute
	} else {
		window, err := time.ParseDuration(windowRaw)
		if err != nil {
			return Config{}, fmt.Errorf("APP_LOCKOUT_WINDOW: %w", err)
		}
		if window <= 0 {
			return Config{}, errors.New("APP_LOCKOUT_WINDOW: must be > 0")
		}
		cfg.LockoutWindow = window
	}

	cfg.BootstrapEmail = strings.TrimSpace(strings.ToLower(getenv("APP_BOOTSTRAP_EMAIL")))
	cfg.BootstrapName = strings.TrimSpace(getenv("APP_BOOTSTRAP_NAME"))
	cfg.BootstrapPassword = getenv("APP_BOOTSTRAP_PASSWORD")

	if cfg.BootstrapPassword != "" && cfg.BootstrapEmail == "" {
		return Config{}, errors.New("APP_BOOTSTRAP_EMAIL: required when APP_BOOTSTRAP_PASSWORD is set")
	}
	if cfg.BootstrapPassword != "" && cfg.BootstrapName == "" {
		cfg.BootstrapName = "Administrator"
	}

	if cfg.IsProd() {
		if cfg.DBDSN == "" {
			return Config{}, errors.New("APP_DB_DSN: required in prod")
		}
		if len(cfg.JWTSecret) < 32 {
			return Config{}, errors.New("APP_JWT_SECRET: must be at least 32 bytes in prod")
		}
	}

	return cfg, nil
}

func (c Config) IsProd() bool { return c.Env == "prod" }
