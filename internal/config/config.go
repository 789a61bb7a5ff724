package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Port                             string `mapstructure:"PORT"`
	GinMode                          string `mapstructure:"GIN_MODE"`
	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`
	ClientURL                        string `mapstructure:"CLIENT_URL"`

	FeedLimit          int           `mapstructure:"FEED_LIMIT"`
	FeedOwnerCacheSize int           `mapstructure:"FEED_OWNER_CACHE_SIZE"`
	OwnerCacheTTL      time.Duration `mapstructure:"OWNER_CACHE_TTL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	RateLimitProbes int           `mapstructure:"RATE_LIMIT_PROBES"`
	RateLimitWindow time.Duration `mapstructure:"RATE_LIMIT_WINDOW"`
	RateLimitBlock  time.Duration `mapstructure:"RATE_LIMIT_BLOCK"`

	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`
	EventsQueue string `mapstructure:"EVENTS_QUEUE"`

	SMTPHost string `mapstructure:"SMTP_HOST"`
	SMTPPort string `mapstructure:"SMTP_PORT"`
	SMTPUser string `mapstructure:"SMTP_USER"`
	SMTPPass string `mapstructure:"SMTP_PASS"`
	MailFrom string `mapstructure:"MAIL_FROM"`
}

var keys = []string{
	"PORT", "GIN_MODE",
	"FIREBASE_PROJECT_ID", "GOOGLE_APPLICATION_CREDENTIALS", "FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
	"CLIENT_URL",
	"FEED_LIMIT", "FEED_OWNER_CACHE_SIZE", "OWNER_CACHE_TTL",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"RATE_LIMIT_PROBES", "RATE_LIMIT_WINDOW", "RATE_LIMIT_BLOCK",
	"RABBITMQ_URL", "EVENTS_QUEUE",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASS", "MAIL_FROM",
}

// LoadConfig loads configuration from environment variables using Viper.
// When CONFIG_FILE names a YAML file, its keys act as defaults that the
// environment overrides.
func LoadConfig() (*Config, error) {
	v := viper.New()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("FEED_LIMIT", 50)
	v.SetDefault("FEED_OWNER_CACHE_SIZE", 256)
	v.SetDefault("OWNER_CACHE_TTL", 10*time.Minute)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RATE_LIMIT_PROBES", 30)
	v.SetDefault("RATE_LIMIT_WINDOW", time.Minute)
	v.SetDefault("RATE_LIMIT_BLOCK", 5*time.Minute)
	v.SetDefault("EVENTS_QUEUE", "tripzi.onboarding")
	v.SetDefault("SMTP_PORT", "587")

	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", k, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields every binary needs.
func (c *Config) Validate() error {
	if c.FirebaseProjectID == "" {
		return errors.New("FIREBASE_PROJECT_ID is required")
	}
	if c.GoogleApplicationCredentials == "" && c.FirebaseServiceAccountJSONBase64 == "" {
		return errors.New("either GOOGLE_APPLICATION_CREDENTIALS or FIREBASE_SERVICE_ACCOUNT_JSON_BASE64 is required")
	}
	if c.FeedLimit <= 0 {
		return fmt.Errorf("FEED_LIMIT must be positive, got %d", c.FeedLimit)
	}
	if c.FeedOwnerCacheSize <= 0 {
		return fmt.Errorf("FEED_OWNER_CACHE_SIZE must be positive, got %d", c.FeedOwnerCacheSize)
	}
	if c.RateLimitProbes <= 0 || c.RateLimitWindow <= 0 {
		return errors.New("RATE_LIMIT_PROBES and RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

// IsRelease reports whether GIN_MODE selects release behaviour.
func (c *Config) IsRelease() bool {
	return strings.EqualFold(c.GinMode, "release")
}

// RedisEnabled reports whether a shared Redis is configured.
func (c *Config) RedisEnabled() bool { return c.RedisAddr != "" }
