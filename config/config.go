package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port string `envconfig:"PORT" default:"8080"`

	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"riparo"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`

	// Base URL used for checkout success/cancel redirects when the request
	// carries no Origin header.
	AppBaseURL string `envconfig:"APP_BASE_URL" default:"https://lablinkriparo.it"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	ForfeitureCron     bool   `envconfig:"ENABLE_FORFEITURE_CRON" default:"true"`
	ForfeitureSchedule string `envconfig:"FORFEITURE_SCHEDULE" default:"0 3 * * *"`
}

var C Config

func Load() error {
	if err := envconfig.Process("", &C); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	return nil
}

func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}
