package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mediastore/storefront/internal/domain"
	"github.com/mediastore/storefront/internal/pricing"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	API     APIConfig     `yaml:"api"`
	Store   StoreConfig   `yaml:"store"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	Pricing PricingConfig `yaml:"pricing"`
	Log     LogConfig     `yaml:"log"`
}

type HTTPConfig struct {
	Port               string        `yaml:"port"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
	MaxRequestBodySize int64         `yaml:"max_request_body_size"`
}

type APIConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
	AccessToken  string        `yaml:"access_token"`
	RefreshToken string        `yaml:"refresh_token"`
	SyncCart     bool          `yaml:"sync_cart"`
}

type StoreConfig struct {
	Driver string       `yaml:"driver"`
	Key    string       `yaml:"key"`
	SQLite SQLiteConfig `yaml:"sqlite"`
	Redis  RedisConfig  `yaml:"redis"`
	Mongo  MongoConfig  `yaml:"mongo"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
}

type PricingConfig struct {
	DiscountRate      decimal.Decimal         `yaml:"discount_rate"`
	DiscountThreshold decimal.Decimal         `yaml:"discount_threshold"`
	TaxRate           decimal.Decimal         `yaml:"tax_rate"`
	DefaultShipping   string                  `yaml:"default_shipping"`
	ShippingMethods   []domain.ShippingMethod `yaml:"shipping_methods"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() *Config {
	policy := pricing.DefaultPolicy()
	return &Config{
		HTTP: HTTPConfig{
			Port:               "8080",
			RequestTimeout:     30 * time.Second,
			ShutdownTimeout:    10 * time.Second,
			MaxRequestBodySize: 1 << 20, // 1MB
		},
		API: APIConfig{
			BaseURL: "http://localhost:3000/api",
			Timeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Driver: DriverSQLite,
			Key:    "storefront",
			SQLite: SQLiteConfig{Path: "storefront.db"},
			Redis:  RedisConfig{Addr: "localhost:6379", TTL: 24 * time.Hour},
			Mongo:  MongoConfig{URI: "mongodb://localhost:27017", Database: "storefront"},
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "checkout-outbox",
			GroupID: "storefront",
		},
		Pricing: PricingConfig{
			DiscountRate:      policy.DiscountRate,
			DiscountThreshold: policy.DiscountThreshold,
			TaxRate:           policy.TaxRate,
			DefaultShipping:   policy.DefaultShipping,
			ShippingMethods:   policy.ShippingMethods,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.HTTP.Port = getEnv("HTTP_PORT", c.HTTP.Port)
	c.API.BaseURL = getEnv("API_BASE_URL", c.API.BaseURL)
	c.API.AccessToken = getEnv("API_ACCESS_TOKEN", c.API.AccessToken)
	c.API.RefreshToken = getEnv("API_REFRESH_TOKEN", c.API.RefreshToken)
	c.Store.Driver = getEnv("STORE_DRIVER", c.Store.Driver)
	c.Store.Key = getEnv("STORE_KEY", c.Store.Key)
	c.Store.SQLite.Path = getEnv("SQLITE_PATH", c.Store.SQLite.Path)
	c.Store.Redis.Addr = getEnv("REDIS_ADDR", c.Store.Redis.Addr)
	c.Store.Redis.Password = getEnv("REDIS_PASSWORD", c.Store.Redis.Password)
	c.Store.Mongo.URI = getEnv("MONGO_URI", c.Store.Mongo.URI)
	c.Store.Mongo.Database = getEnv("MONGO_DATABASE", c.Store.Mongo.Database)
	c.Kafka.Topic = getEnv("KAFKA_TOPIC", c.Kafka.Topic)
	c.Kafka.GroupID = getEnv("KAFKA_GROUP_ID", c.Kafka.GroupID)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		c.Kafka.Brokers = splitList(brokers)
	}
	if v := getEnv("KAFKA_ENABLED", ""); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("KAFKA_ENABLED: %w", err)
		}
		c.Kafka.Enabled = enabled
	}
	if v := getEnv("API_SYNC_CART", ""); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("API_SYNC_CART: %w", err)
		}
		c.API.SyncCart = enabled
	}
	return nil
}

func (c *Config) Validate() error {
	if c.HTTP.Port == "" {
		return errors.New("http port is required")
	}
	if c.API.BaseURL == "" {
		return errors.New("api base url is required")
	}
	if c.Store.Key == "" {
		return errors.New("store key is required")
	}
	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.SQLite.Path == "" {
			return errors.New("sqlite path is required")
		}
	case DriverRedis:
		if c.Store.Redis.Addr == "" {
			return errors.New("redis addr is required")
		}
	case DriverMongo:
		if c.Store.Mongo.URI == "" || c.Store.Mongo.Database == "" {
			return errors.New("mongo uri and database are required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka enabled without brokers")
	}
	if err := c.Policy().Validate(); err != nil {
		return fmt.Errorf("pricing: %w", err)
	}
	return nil
}

func (c *Config) Policy() pricing.Policy {
	return pricing.Policy{
		DiscountRate:      c.Pricing.DiscountRate,
		DiscountThreshold: c.Pricing.DiscountThreshold,
		TaxRate:           c.Pricing.TaxRate,
		ShippingMethods:   c.Pricing.ShippingMethods,
		DefaultShipping:   c.Pricing.DefaultShipping,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
