package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

// Config holds the complete application configuration, loadable from
// environment variables (ARTOS_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (ARTOS_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RedisURL    string `default:"redis://localhost:6379/0" usage:"Redis connection URL for cart storage" flag:"redis-url"`
	ProofDir    string `default:"data/proofs" usage:"Directory for uploaded payment proofs" flag:"proof-dir"`

	Auth      AuthConfig
	Checkout  CheckoutConfig
	Verify    VerifyConfig
	Email     EmailConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// AuthConfig controls session tokens and the admin allowlist.
type AuthConfig struct {
	JWTSecret   string        `usage:"HMAC secret for session tokens (ARTOS_AUTH_JWT_SECRET)" flag:"jwt-secret"`
	TokenTTL    time.Duration `default:"24h" usage:"Session token lifetime" flag:"token-ttl"`
	AdminEmails []string      `usage:"Email addresses with admin access" flag:"admin-emails"`
}

// CheckoutConfig is the checkout metadata served to the storefront.
type CheckoutConfig struct {
	Locations     []LocationConfig
	Bank          BankConfig
	OrderDeadline string `default:"Order by Wednesday 16:00 for this week's bake" usage:"Weekly cutoff copy shown at checkout" flag:"order-deadline"`
}

// LocationConfig describes one pickup point.
type LocationConfig struct {
	Label   string `usage:"Pickup location label"`
	Address string `usage:"Pickup location address"`
	Times   string `usage:"Pickup times"`
}

// BankConfig is the EFT account shown at checkout.
type BankConfig struct {
	AccountHolder string `usage:"EFT account holder"`
	Bank          string `usage:"EFT bank name"`
	AccountNumber string `usage:"EFT account number"`
	BranchCode    string `usage:"EFT branch code"`
}

// VerifyConfig points at the payment-proof verification model.
type VerifyConfig struct {
	BaseURL string        `default:"https://generativelanguage.googleapis.com" usage:"Verification API base URL"`
	APIKey  string        `usage:"Verification API key (ARTOS_VERIFY_API_KEY)"`
	Model   string        `default:"gemini-1.5-flash" usage:"Verification model name"`
	Timeout time.Duration `default:"30s" usage:"Verification request timeout"`
}

// EmailConfig identifies the EmailJS service for order confirmations.
// Leaving it empty disables outgoing mail.
type EmailConfig struct {
	ServiceID  string `usage:"EmailJS service ID"`
	TemplateID string `usage:"EmailJS template ID"`
	PublicKey  string `usage:"EmailJS public key"`
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

// LoadConfig loads configuration from .env, environment variables, and YAML
// config files, then applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	// Best effort: local development keeps secrets in .env.
	_ = godotenv.Load()

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "ARTOS",
		Files:     []string{"config.yaml", "/etc/artos/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set ARTOS_DATABASE_URL or DATABASE_URL")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("JWT secret is required: set ARTOS_AUTH_JWT_SECRET")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and
// PORT to the application's ARTOS_-prefixed configuration, and fills the
// bakery's own pickup points when none are configured.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if c.RedisURL == "redis://localhost:6379/0" {
		if v := os.Getenv("REDIS_URL"); v != "" {
			c.RedisURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}

	if len(c.Checkout.Locations) == 0 {
		c.Checkout.Locations = []LocationConfig{
			{Label: "Centurion", Address: "Centurion, Pretoria", Times: "Thursday 10:00-18:00"},
			{Label: "Doxa", Address: "Doxa Deo Church, East Lynne", Times: "Sunday 08:00-12:00"},
		}
	}
}

// LocationLabels returns the configured pickup labels, the set order
// placement validates against.
func (c *Config) LocationLabels() []string {
	labels := make([]string, len(c.Checkout.Locations))
	for i, l := range c.Checkout.Locations {
		labels[i] = l.Label
	}
	return labels
}
