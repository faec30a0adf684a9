package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds everything the webhook process needs at startup.
type Config struct {
	Addr              string        `yaml:"addr"`
	WebhookPath       string        `yaml:"webhook_path"`
	DatabaseURL       string        `yaml:"database_url"`
	ShopifySecret     string        `yaml:"shopify_api_secret"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	Log               LogConfig     `yaml:"log"`
}

// LogConfig selects the apex/log handler and level.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // cli|json|text
}

const (
	defaultAddr              = ":8080"
	defaultWebhookPath       = "/webhooks/shopify/orders"
	defaultMaxBodyBytes      = 1 << 20
	defaultReadHeaderTimeout = 5 * time.Second
	defaultShutdownTimeout   = 10 * time.Second
	defaultLogLevel          = "info"
	defaultLogFormat         = "cli"
)

// Default returns a Config populated with defaults only.
func Default() Config {
	return Config{
		Addr:              defaultAddr,
		WebhookPath:       defaultWebhookPath,
		MaxBodyBytes:      defaultMaxBodyBytes,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		ShutdownTimeout:   defaultShutdownTimeout,
		Log: LogConfig{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}

// Load builds the configuration from defaults, an optional .env file, an
// optional YAML file and finally the process environment, in that order.
// An empty path falls back to CONFIG_FILE.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, errors.Wrap(err, "load .env")
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read config file %s", path)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return errors.Wrapf(err, "parse config file %s", path)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Addr = valueOrDefault("APP_ADDR", c.Addr)
	c.WebhookPath = valueOrDefault("WEBHOOK_PATH", c.WebhookPath)
	c.DatabaseURL = valueOrDefault("SUPABASE_DB_URL", c.DatabaseURL)
	c.DatabaseURL = valueOrDefault("DATABASE_URL", c.DatabaseURL)
	c.ShopifySecret = valueOrDefault("SHOPIFY_API_SECRET", c.ShopifySecret)
	c.Log.Level = valueOrDefault("LOG_LEVEL", c.Log.Level)
	c.Log.Format = valueOrDefault("LOG_FORMAT", c.Log.Format)

	if v := os.Getenv("MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid MAX_BODY_BYTES value %q", v)
		}
		c.MaxBodyBytes = n
	}

	var err error
	if c.ReadHeaderTimeout, err = parseDuration("READ_HEADER_TIMEOUT", c.ReadHeaderTimeout); err != nil {
		return err
	}
	if c.ShutdownTimeout, err = parseDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout); err != nil {
		return err
	}
	return nil
}

// Validate reports configuration the process cannot start with.
func (c Config) Validate() error {
	if c.ShopifySecret == "" {
		return errors.New("SHOPIFY_API_SECRET is required")
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.MaxBodyBytes <= 0 {
		return errors.Errorf("max body bytes must be positive, got %d", c.MaxBodyBytes)
	}
	if c.WebhookPath == "" || c.WebhookPath[0] != '/' {
		return errors.Errorf("webhook path %q must start with /", c.WebhookPath)
	}
	return nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", key)
	}
	return d, nil
}
