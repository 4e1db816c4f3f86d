package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTPPort       string `envconfig:"PORT" default:"3001"`
	GRPCHealthPort string `envconfig:"GRPC_HEALTH_PORT"`

	MongoURI      string `envconfig:"MONGODB_URI" default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"MONGODB_DATABASE" default:"storefront"`

	// Empty RedisAddr disables the cart cache and keeps sessions in memory.
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	Mail Mail `envconfig:"MAIL"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`

	KafkaBrokers       []string `envconfig:"KAFKA_BROKERS"`
	KafkaCheckoutTopic string   `envconfig:"KAFKA_CHECKOUT_TOPIC" default:"checkout-completed"`

	PaymentPolicy string `envconfig:"PAYMENT_POLICY" default:"approve"`
	CartReprice   bool   `envconfig:"CART_REPRICE" default:"false"`

	SessionRequired bool          `envconfig:"SESSION_REQUIRED" default:"false"`
	SessionTTL      time.Duration `envconfig:"SESSION_TTL" default:"72h"`

	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
}

// Mail is read from MAIL_HOST, MAIL_PORT, etc. envconfig tries the prefixed
// MAIL_MAIL_* key first and falls back to the tag name.
type Mail struct {
	Host     string        `envconfig:"MAIL_HOST" default:"localhost"`
	Port     int           `envconfig:"MAIL_PORT" default:"587"`
	User     string        `envconfig:"MAIL_USER"`
	Password string        `envconfig:"MAIL_PASS"`
	From     string        `envconfig:"MAIL_FROM" default:"\"Sneaker Store\" <noreply@sneakerstore.com>"`
	Timeout  time.Duration `envconfig:"MAIL_TIMEOUT" default:"10s"`
}

var paymentPolicies = []string{"approve", "decline", "error", "random"}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.CORSAllowedOrigins = trimAll(cfg.CORSAllowedOrigins)
	cfg.KafkaBrokers = trimAll(cfg.KafkaBrokers)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	policyOK := false
	for _, p := range paymentPolicies {
		if c.PaymentPolicy == p {
			policyOK = true
			break
		}
	}
	if !policyOK {
		return fmt.Errorf("PAYMENT_POLICY must be one of %s, got %q", strings.Join(paymentPolicies, ", "), c.PaymentPolicy)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.Mail.Port <= 0 || c.Mail.Port > 65535 {
		return fmt.Errorf("MAIL_PORT out of range: %d", c.Mail.Port)
	}
	return nil
}

func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
