package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/smartmenu/order-intake/internal/domain/order"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (ORDERS_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (ORDERS_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Pricing     PricingConfig
	RabbitMQ    RabbitMQConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// PricingConfig holds the business rules used to derive order amounts.
type PricingConfig struct {
	TaxRate  string `default:"0.15" usage:"Inclusive tax rate applied to order totals" flag:"tax-rate"`
	Currency string `default:"SAR" usage:"Currency code stored on every order"`
}

// RabbitMQConfig controls order event publishing. Publishing is disabled
// when URL is empty.
type RabbitMQConfig struct {
	URL      string `default:"" usage:"AMQP URL for order events" flag:"rabbitmq-url"`
	Exchange string `default:"orders_topic" usage:"Topic exchange for order events" flag:"rabbitmq-exchange"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins []string `default:"*" usage:"Allowed CORS origins"`
	MaxAge  int      `default:"86400" usage:"Preflight cache duration in seconds" flag:"cors-max-age"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "ORDERS",
		Files:     []string{"config.yaml", "/etc/orders/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database URL is required: set ORDERS_DATABASE_URL or DATABASE_URL")
	}
	if _, err := c.OrderPricing(); err != nil {
		return err
	}
	return nil
}

// OrderPricing converts the pricing section into domain pricing rules.
func (c *Config) OrderPricing() (order.Pricing, error) {
	rate, err := decimal.NewFromString(c.Pricing.TaxRate)
	if err != nil {
		return order.Pricing{}, errors.Wrapf(err, "parse tax rate %q", c.Pricing.TaxRate)
	}
	p := order.Pricing{TaxRate: rate, Currency: c.Pricing.Currency}
	if err := p.Validate(); err != nil {
		return order.Pricing{}, errors.Wrap(err, "pricing")
	}
	return p, nil
}

// applyPlatformDefaults maps the conventional DATABASE_URL and PORT
// variables onto the ORDERS_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
