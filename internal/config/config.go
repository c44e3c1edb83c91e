package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const envProduction = "production"

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port                     int           `envconfig:"PORT" default:"8080"`
	LogLevel                 string        `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL              string        `envconfig:"DATABASE_URL" required:"true"`
	AppEnv                   string        `envconfig:"APP_ENV" default:"local"`
	AppURL                   string        `envconfig:"APP_URL" default:"http://localhost:8080"`
	FrontendURL              string        `envconfig:"FRONTEND_URL" default:"http://localhost:4200"`
	CORSAllowedOrigins       []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	RedisURL                 string        `envconfig:"REDIS_URL" default:""`
	TokenSigningKey          string        `envconfig:"TOKEN_SIGNING_KEY" default:""`
	BcryptCost               int           `envconfig:"BCRYPT_COST" default:"12"`
	StoreTimeout             time.Duration `envconfig:"STORE_TIMEOUT" default:"2s"`
	RateLimitJanitorInterval time.Duration `envconfig:"RATE_LIMIT_JANITOR_INTERVAL" default:"1m"`
	AdminEmail               string        `envconfig:"ADMIN_EMAIL" default:""`
	AdminPassword            string        `envconfig:"ADMIN_PASSWORD" default:""`
	Version                  string        `envconfig:"VERSION" default:"dev"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction reports whether the response post-processors should run.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.AppEnv), envProduction)
}
