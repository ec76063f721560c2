package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/pageturn/bookshop-pos/internal/domain/cart"
)

// Config holds the complete application configuration, loadable from
// environment variables (POS_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (POS_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	APIKeyPepper string `usage:"HMAC pepper for operator API key hashing" flag:"api-key-pepper"`
	Session      SessionConfig
	Pricing      PricingConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// SessionConfig controls the in-memory billing session store.
type SessionConfig struct {
	TTL      time.Duration `default:"30m"  usage:"Idle TTL before a billing session expires"`
	Capacity int           `default:"1024" usage:"Maximum number of concurrent billing sessions"`
}

// PricingConfig holds the billing policy as decimal strings so rates
// round-trip exactly through env vars and YAML.
type PricingConfig struct {
	DiscountThreshold string `default:"100"  usage:"Subtotal above which the discount applies" flag:"discount-threshold"`
	DiscountRate      string `default:"0.05" usage:"Discount rate applied above the threshold" flag:"discount-rate"`
	TaxRate           string `default:"0.1"  usage:"Tax rate applied to the discounted base" flag:"tax-rate"`
	DeliveryFee       string `default:"0"    usage:"Flat delivery charge added to every bill" flag:"delivery-fee"`
}

// Policy parses the configured values into the cart pricing policy.
func (p PricingConfig) Policy() (cart.Pricing, error) {
	threshold, err := decimal.NewFromString(p.DiscountThreshold)
	if err != nil {
		return cart.Pricing{}, errors.Wrap(err, "discount threshold")
	}
	discount, err := decimal.NewFromString(p.DiscountRate)
	if err != nil {
		return cart.Pricing{}, errors.Wrap(err, "discount rate")
	}
	tax, err := decimal.NewFromString(p.TaxRate)
	if err != nil {
		return cart.Pricing{}, errors.Wrap(err, "tax rate")
	}
	delivery, err := decimal.NewFromString(p.DeliveryFee)
	if err != nil {
		return cart.Pricing{}, errors.Wrap(err, "delivery fee")
	}
	return cart.Pricing{
		DiscountThreshold: threshold,
		DiscountRate:      discount,
		TaxRate:           tax,
		DeliveryFee:       delivery,
	}, nil
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
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
		EnvPrefix: "POS",
		Files:     []string{"config.yaml", "/etc/bookshop-pos/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set POS_DATABASE_URL or DATABASE_URL")
	}
	if _, err := cfg.Pricing.Policy(); err != nil {
		return nil, errors.Wrap(err, "pricing config")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's POS_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
