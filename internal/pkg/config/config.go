package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// devJWTSecret is used outside production when JWT_SECRET is unset.
const devJWTSecret = "insecure-development-secret"

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// CORSOrigins also restricts websocket origins. Empty allows any.
	CORSOrigins []string `env:"CORS_ORIGINS"`

	// WebhookWorkers is the number of sharded webhook workers.
	WebhookWorkers int `env:"WEBHOOK_WORKERS, default=8"`

	Auth        AuthConfig
	Mongo       MongoConfig
	Redis       RedisConfig
	MercadoPago MercadoPagoConfig

	// InsecureJWTSecret is set when the development fallback secret is in use.
	InsecureJWTSecret bool
}

type AuthConfig struct {
	JWTSecret    string        `env:"JWT_SECRET"`
	TokenTTL     time.Duration `env:"JWT_TTL,       default=168h"`
	CookieSecure bool          `env:"COOKIE_SECURE, default=false"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=commerce"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR,      default=localhost:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,        default=0"`
	DedupTTL time.Duration `env:"REDIS_DEDUP_TTL, default=72h"`
}

type MercadoPagoConfig struct {
	AccessToken   string        `env:"MP_ACCESS_TOKEN"`
	BaseURL       string        `env:"MP_BASE_URL,      default=https://api.mercadopago.com"`
	WebhookSecret string        `env:"MP_WEBHOOK_SECRET"`
	Timeout       time.Duration `env:"MP_TIMEOUT,       default=10s"`
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool { return c.Env == "production" }

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}

	if cfg.Auth.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("config: JWT_SECRET is required in production")
		}
		cfg.Auth.JWTSecret = devJWTSecret
		cfg.InsecureJWTSecret = true
	}
	if cfg.IsProduction() && len(cfg.CORSOrigins) == 0 {
		return nil, errors.New("config: CORS_ORIGINS is required in production")
	}
	if cfg.Auth.TokenTTL <= 0 {
		return nil, fmt.Errorf("config: JWT_TTL must be positive, got %s", cfg.Auth.TokenTTL)
	}
	return &cfg, nil
}
