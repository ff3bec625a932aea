package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string `env:"SERVICE_NAME" env-default:"content-checkout"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"info"`
	HTTPAddr    string `env:"HTTP_ADDR" env-default:":8080"`

	PostgresDSN   string `env:"POSTGRES_DSN" env-required:"true"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" env-default:"true"`

	RedisAddr       string        `env:"REDIS_ADDR" env-default:"localhost:6379"`
	ContentCacheTTL time.Duration `env:"CONTENT_CACHE_TTL" env-default:"10m"`

	Kafka    Kafka
	Stripe   Stripe
	Checkout Checkout
	Sweeper  Sweeper

	JWTSecret    string `env:"JWT_SECRET" env-required:"true"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

type Kafka struct {
	Brokers             []string `env:"KAFKA_BROKERS" env-separator:"," env-default:"localhost:9092"`
	PurchaseEventsTopic string   `env:"PURCHASE_EVENTS_TOPIC" env-default:"purchases"`
	ContentEventsTopic  string   `env:"CONTENT_EVENTS_TOPIC" env-default:"content"`
	ContentEventsGroup  string   `env:"CONTENT_EVENTS_GROUP" env-default:"content-checkout"`
	Retry               Retry
}

type Retry struct {
	Attempts uint          `env:"PUBLISH_RETRY_ATTEMPTS" env-default:"3"`
	Delay    time.Duration `env:"PUBLISH_RETRY_DELAY" env-default:"200ms"`
	MaxDelay time.Duration `env:"PUBLISH_RETRY_MAX_DELAY" env-default:"2s"`
}

type Stripe struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY" env-required:"true"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET" env-required:"true"`
	// пусто = api.stripe.com
	APIURL           string        `env:"STRIPE_API_URL"`
	WebhookTolerance time.Duration `env:"WEBHOOK_TOLERANCE" env-default:"5m"`
}

type Checkout struct {
	SuccessURL          string        `env:"CHECKOUT_SUCCESS_URL" env-default:"http://localhost:8080/checkout/success"`
	CancelURL           string        `env:"CHECKOUT_CANCEL_URL" env-default:"http://localhost:8080/checkout/cancel"`
	Currency            string        `env:"CHECKOUT_CURRENCY" env-default:"usd"`
	GatewayTimeout      time.Duration `env:"GATEWAY_TIMEOUT" env-default:"10s"`
	CompensationTimeout time.Duration `env:"COMPENSATION_TIMEOUT" env-default:"5s"`
}

// Sweeper is off unless PENDING_MAX_AGE is set.
type Sweeper struct {
	PendingMaxAge time.Duration `env:"PENDING_MAX_AGE" env-default:"0s"`
	Interval      time.Duration `env:"SWEEP_INTERVAL" env-default:"5m"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("failed to load .env file, using environment only", "error", err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	slog.Info("config loaded",
		"http_addr", cfg.HTTPAddr,
		"redis_addr", cfg.RedisAddr,
		"kafka_brokers", cfg.Kafka.Brokers,
		"webhook_tolerance", cfg.Stripe.WebhookTolerance,
		"sweeper_enabled", cfg.Sweeper.PendingMaxAge > 0)
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Stripe.WebhookTolerance <= 0 {
		return fmt.Errorf("WEBHOOK_TOLERANCE must be positive, got %s", c.Stripe.WebhookTolerance)
	}
	if c.Checkout.GatewayTimeout <= 0 {
		return fmt.Errorf("GATEWAY_TIMEOUT must be positive, got %s", c.Checkout.GatewayTimeout)
	}
	if c.Sweeper.PendingMaxAge > 0 && c.Sweeper.PendingMaxAge <= c.Checkout.GatewayTimeout {
		return fmt.Errorf("PENDING_MAX_AGE (%s) must exceed GATEWAY_TIMEOUT (%s)", c.Sweeper.PendingMaxAge, c.Checkout.GatewayTimeout)
	}
	if c.Sweeper.PendingMaxAge > 0 && c.Sweeper.Interval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive when PENDING_MAX_AGE is set")
	}
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is empty")
	}
	return nil
}
