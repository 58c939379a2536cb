package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Name     string `yaml:"name"`
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	// ShippingCost is the flat shipping cost added to every order total.
	ShippingCost string        `yaml:"shipping_cost"`
	CartTTL      time.Duration `yaml:"cart_ttl"`
}

type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	DBName          string        `yaml:"dbname"`
	SSLMode         string        `yaml:"sslmode"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MigrationsPath  string        `yaml:"migrations_path"`
}

type Config struct {
	App      AppConfig      `yaml:"app"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// NewConfig reads the YAML file named by CONFIG_PATH (if any), then .env,
// then lets environment variables override individual values.
func NewConfig() (*Config, error) {
	return Load(os.Getenv("CONFIG_PATH"), ".env")
}

func Load(yamlPath, envPath string) (*Config, error) {
	cfg := defaults()

	if yamlPath != "" {
		file, err := os.Open(yamlPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer file.Close()

		if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", yamlPath, err)
		}
	}

	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envPath, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.App.Name = "shop-service"
	cfg.App.Port = "8080"
	cfg.App.LogLevel = "info"
	cfg.App.ShippingCost = "0"
	cfg.App.CartTTL = 7 * 24 * time.Hour

	cfg.Postgres.SSLMode = "disable"
	cfg.Postgres.MaxConns = 10
	cfg.Postgres.MinConns = 2
	cfg.Postgres.MaxConnLifetime = 30 * time.Minute
	cfg.Postgres.MigrationsPath = "migrations"
	return cfg
}

func applyEnv(cfg *Config) error {
	setString(&cfg.App.Port, "APP_PORT")
	setString(&cfg.App.LogLevel, "LOG_LEVEL")
	setString(&cfg.App.ShippingCost, "SHIPPING_COST")
	if err := setDuration(&cfg.App.CartTTL, "CART_TTL"); err != nil {
		return err
	}

	setString(&cfg.Postgres.Host, "DB_HOST")
	setString(&cfg.Postgres.Port, "DB_PORT")
	setString(&cfg.Postgres.User, "DB_USER")
	setString(&cfg.Postgres.Password, "DB_PASSWORD")
	setString(&cfg.Postgres.DBName, "DB_NAME")
	setString(&cfg.Postgres.SSLMode, "DB_SSLMODE")
	setString(&cfg.Postgres.MigrationsPath, "DB_MIGRATIONS_PATH")
	if err := setInt32(&cfg.Postgres.MaxConns, "DB_MAX_CONNS"); err != nil {
		return err
	}
	if err := setInt32(&cfg.Postgres.MinConns, "DB_MIN_CONNS"); err != nil {
		return err
	}
	return setDuration(&cfg.Postgres.MaxConnLifetime, "DB_MAX_CONN_LIFETIME")
}

func (c *Config) validate() error {
	required := []struct{ key, value string }{
		{"DB_HOST", c.Postgres.Host},
		{"DB_PORT", c.Postgres.Port},
		{"DB_USER", c.Postgres.User},
		{"DB_PASSWORD", c.Postgres.Password},
		{"DB_NAME", c.Postgres.DBName},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.key)
		}
	}

	shipping, err := decimal.NewFromString(c.App.ShippingCost)
	if err != nil {
		return fmt.Errorf("invalid shipping cost %q: %w", c.App.ShippingCost, err)
	}
	if shipping.IsNegative() {
		return fmt.Errorf("shipping cost must be non-negative, got %s", c.App.ShippingCost)
	}

	if c.App.CartTTL <= 0 {
		return fmt.Errorf("cart ttl must be positive, got %s", c.App.CartTTL)
	}
	if c.Postgres.MinConns > c.Postgres.MaxConns {
		return fmt.Errorf("min conns (%d) must not exceed max conns (%d)", c.Postgres.MinConns, c.Postgres.MaxConns)
	}
	return nil
}

// ShippingCostAmount returns the validated flat shipping cost.
func (c *Config) ShippingCostAmount() decimal.Decimal {
	return decimal.RequireFromString(c.App.ShippingCost)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt32(dst *int32, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = int32(n)
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = d
	return nil
}
