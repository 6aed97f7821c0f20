package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/perkhive/recognition-gateway/pkg/config"
	"github.com/perkhive/recognition-gateway/pkg/database"
)

// Config holds all configuration for the recognition gateway.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"GATEWAY_HTTP_PORT" envDefault:"8080"`

	// Auth
	JWTSecret string `env:"JWT_SECRET,required"`

	// CORS
	AllowedOrigin string `env:"ALLOWED_ORIGIN" envDefault:"*"`

	// Downstream service URLs
	RecognitionServiceURL string `env:"RECOGNITION_SERVICE_URL" envDefault:"http://localhost:8081"`
	WalletServiceURL      string `env:"WALLET_SERVICE_URL" envDefault:"http://localhost:8082"`
	MediaServiceURL       string `env:"MEDIA_SERVICE_URL" envDefault:"http://localhost:8083"`

	// Circuit breaker settings for downstream service calls
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Per-step submission timeouts (seconds). Each step gets its own
	// context.WithTimeout so a slow downstream cannot block the whole
	// submission indefinitely.
	ResolveTimeout int `env:"SUBMIT_RESOLVE_TIMEOUT" envDefault:"10"`
	UploadTimeout  int `env:"SUBMIT_UPLOAD_TIMEOUT" envDefault:"60"`
	CreateTimeout  int `env:"SUBMIT_CREATE_TIMEOUT" envDefault:"5"`
	CreditTimeout  int `env:"SUBMIT_CREDIT_TIMEOUT" envDefault:"5"`

	// Submission guard
	GuardTTLSeconds int `env:"SUBMIT_GUARD_TTL_SECONDS" envDefault:"30"`

	// Redis
	Redis database.RedisConfig

	// PostgreSQL (credit reconciliation store)
	Postgres database.PostgresConfig

	// Credit reconciliation worker
	ReconcileIntervalSeconds int `env:"RECONCILE_INTERVAL_SECONDS" envDefault:"60"`
	ReconcileBatchSize       int `env:"RECONCILE_BATCH_SIZE" envDefault:"50"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Rate limiting
	RateLimitPerSecond float64 `env:"RATE_LIMIT_PER_SECOND" envDefault:"10"`
	RateLimitBurst     int     `env:"RATE_LIMIT_BURST" envDefault:"20"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load gateway config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	for name, rawURL := range map[string]string{
		"RECOGNITION_SERVICE_URL": c.RecognitionServiceURL,
		"WALLET_SERVICE_URL":      c.WalletServiceURL,
		"MEDIA_SERVICE_URL":       c.MediaServiceURL,
	} {
		if rawURL == "" {
			return fmt.Errorf("%s is required", name)
		}
		if _, err := url.ParseRequestURI(rawURL); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, rawURL, err)
		}
	}
	return nil
}

// StepTimeout converts a configured timeout in seconds to a duration.
func StepTimeout(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
