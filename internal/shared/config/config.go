package config

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	AuthModeLocal  = "local"
	AuthModeRemote = "remote"

	SessionBackendPostgres = "postgres"
	SessionBackendRedis    = "redis"
)

// Config holds application configuration
type Config struct {
	Version     string `env:"VERSION" envDefault:"0.1.0"`
	Port        int    `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"prod"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	SentryDSN   string `env:"SENTRY_DSN"`
	DatabaseURL string `env:"DATABASE_URL"`
	SecretKey   string `env:"SECRET_KEY"`

	AuthMode    string        `env:"AUTH_MODE" envDefault:"local"`
	AuthURL     string        `env:"AUTH_URL"`
	AuthTimeout time.Duration `env:"AUTH_TIMEOUT" envDefault:"10s"`
	JWTIssuer   string        `env:"JWT_ISSUER" envDefault:"delivery"`

	SessionBackend string        `env:"SESSION_BACKEND" envDefault:"postgres"`
	RedisURL       string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"720h"`

	LoginScreenTTL       time.Duration `env:"LOGIN_SCREEN_TTL" envDefault:"30m"`
	ConnectivityCacheTTL time.Duration `env:"CONNECTIVITY_CACHE_TTL" envDefault:"5s"`
	DefaultLanguage      string        `env:"DEFAULT_LANGUAGE" envDefault:"en"`

	// Prefilled into new login screens outside production only.
	DemoEmail    string `env:"DEMO_EMAIL"`
	DemoPassword string `env:"DEMO_PASSWORD"`
}

func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.AuthMode {
	case AuthModeLocal:
	case AuthModeRemote:
		if c.AuthURL == "" {
			return fmt.Errorf("AUTH_URL is required when AUTH_MODE=%s", AuthModeRemote)
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode)
	}

	switch c.SessionBackend {
	case SessionBackendPostgres, SessionBackendRedis:
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend)
	}
	return nil
}

func (c *Config) IsEnvProd() bool {
	if c.Environment == "prod" && c.SentryDSN != "" {
		return true
	}
	return false
}

// Key decodes SECRET_KEY. It must be 16, 24 or 32 bytes hex encoded.
func (c *Config) Key() ([]byte, error) {
	key, err := hex.DecodeString(c.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("invalid hex SECRET_KEY: %w", err)
	}
	switch len(key) {
	case 16, 24, 32:
		return key, nil
	default:
		return nil, fmt.Errorf("SECRET_KEY must decode to 16, 24 or 32 bytes, got %d", len(key))
	}
}
