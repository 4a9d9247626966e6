package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBName     string `envconfig:"DB_NAME" default:"medication_skus"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	AppPort string `envconfig:"APP_PORT" default:"8003"`

	JWTSecret       string        `envconfig:"JWT_SECRET" required:"true"`
	AccessTokenTTL  time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"15m"`
	RefreshTokenTTL time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"720h"`

	// Events are only published when set.
	NatsURL      string `envconfig:"NATS_URL"`
	OtelEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	DBWaitInterval time.Duration `envconfig:"DB_WAIT_INTERVAL" default:"1s"`

	RateLimitMax        int           `envconfig:"RATE_LIMIT_MAX" default:"100"`
	RateLimitExpiration time.Duration `envconfig:"RATE_LIMIT_EXPIRATION" default:"60s"`
}

// Load reads .env.dev when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env.dev"); err != nil {
		log.Println("No .env.dev file found, reading from environment variables provided by Docker")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}
