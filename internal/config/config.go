package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/alpha-cen/auth-user-service/pkg/config"
)

// Config holds all configuration for the auth/user service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"authsvc"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"authsvc_secret"`
	PostgresDB   string `env:"POSTGRES_DB_NAME" envDefault:"authsvc"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// AWS Cognito
	AWSRegion           string        `env:"AWS_REGION" envDefault:"us-east-1"`
	CognitoUserPoolID   string        `env:"COGNITO_USER_POOL_ID"`
	CognitoClientID     string        `env:"COGNITO_CLIENT_ID"`
	CognitoClientSecret string        `env:"COGNITO_CLIENT_SECRET"`
	CognitoTimeout      time.Duration `env:"COGNITO_TIMEOUT" envDefault:"10s"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`

	// Tracing
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}

	// Outside development the identity provider settings must be explicit.
	if cfg.Environment != "development" {
		if cfg.CognitoUserPoolID == "" {
			return nil, fmt.Errorf("COGNITO_USER_POOL_ID must be set in %q mode", cfg.Environment)
		}
		if cfg.CognitoClientID == "" {
			return nil, fmt.Errorf("COGNITO_CLIENT_ID must be set in %q mode", cfg.Environment)
		}
	}

	return cfg, nil
}

// JWKSEndpoint returns the Cognito user pool's published JWK set URL.
func (c *Config) JWKSEndpoint() string {
	return fmt.Sprintf(
		"https://cognito-idp.%s.amazonaws.com/%s/.well-known/jwks.json",
		c.AWSRegion, c.CognitoUserPoolID,
	)
}

// Issuer returns the expected token issuer for the configured user pool.
func (c *Config) Issuer() string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", c.AWSRegion, c.CognitoUserPoolID)
}
