package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full application configuration, loaded once at startup and
// passed explicitly to the services that need it.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Gateway    GatewayConfig    `mapstructure:"gateway"`
	SMTP       SMTPConfig       `mapstructure:"smtp"`
	Pricing    PricingConfig    `mapstructure:"pricing"`
	Dispatcher DispatcherConfig `mapstructure:"dispatcher"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	Mode string `mapstructure:"mode"` // debug, release
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // postgres, sqlite
	DSN    string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// GatewayConfig holds credentials for the online payment gateway.
type GatewayConfig struct {
	KeyID         string `mapstructure:"key_id"`
	KeySecret     string `mapstructure:"key_secret"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	Currency      string `mapstructure:"currency"`
}

type SMTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	User string `mapstructure:"user"`
	Pass string `mapstructure:"pass"`
	From string `mapstructure:"from"`
}

// PricingConfig is the single source of truth for billing parameters.
// The urgency multiplier applied to orders is derived from
// UrgencySurchargePercent; nothing is hard-coded in the order flow.
type PricingConfig struct {
	TaxRatePercent          float64 `mapstructure:"tax_rate_percent"`
	UrgencySurchargePercent float64 `mapstructure:"urgency_surcharge_percent"`
	InvoiceDueDays          int     `mapstructure:"invoice_due_days"`
	DefaultReorderThreshold float64 `mapstructure:"default_reorder_threshold"`
	OrderNumberPrefix       string  `mapstructure:"order_number_prefix"`
	InvoiceNumberPrefix     string  `mapstructure:"invoice_number_prefix"`
}

type DispatcherConfig struct {
	Workers      int           `mapstructure:"workers"`
	ClaimLimit   int           `mapstructure:"claim_limit"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
}

type SentryConfig struct {
	DSN string `mapstructure:"dsn"`
}

type TracingConfig struct {
	Endpoint string `mapstructure:"endpoint"` // OTLP HTTP endpoint, empty disables
}

// UrgencyMultiplier returns the multiplier applied to urgent orders,
// e.g. 20% surcharge -> 1.20.
func (p PricingConfig) UrgencyMultiplier() float64 {
	return 1 + p.UrgencySurchargePercent/100
}

// Load reads config.yaml from ./config or the working directory, with
// TAILORSHOP_* environment overrides.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	v.SetEnvPrefix("TAILORSHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "tailorshop.db")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("jwt.secret", "dev-secret")
	v.SetDefault("jwt.ttl", 24*time.Hour)
	v.SetDefault("gateway.currency", "INR")
	v.SetDefault("pricing.tax_rate_percent", 18.0)
	v.SetDefault("pricing.urgency_surcharge_percent", 20.0)
	v.SetDefault("pricing.invoice_due_days", 7)
	v.SetDefault("pricing.default_reorder_threshold", 5.0)
	v.SetDefault("pricing.order_number_prefix", "ORD")
	v.SetDefault("pricing.invoice_number_prefix", "INV")
	v.SetDefault("dispatcher.workers", 2)
	v.SetDefault("dispatcher.claim_limit", 64)
	v.SetDefault("dispatcher.poll_interval", 200*time.Millisecond)
	v.SetDefault("dispatcher.max_attempts", 3)
}
