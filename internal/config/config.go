package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
)

type Config struct {
	ServiceName string         `mapstructure:"service_name"`
	HTTP        HTTPConfig     `mapstructure:"http"`
	DB          DBConfig       `mapstructure:"db"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Kafka       KafkaConfig    `mapstructure:"kafka"`
	JWT         JWTConfig      `mapstructure:"jwt"`
	Razorpay    RazorpayConfig `mapstructure:"razorpay"`
	Admin       AdminConfig    `mapstructure:"admin"`
	Log         LogConfig      `mapstructure:"log"`
}

type HTTPConfig struct {
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	RateLimit   float64  `mapstructure:"rate_limit"`
	RateBurst   int      `mapstructure:"rate_burst"`
}

type DBConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	Name           string `mapstructure:"name"`
	ConnectRetries int    `mapstructure:"connect_retries"`
}

type RedisConfig struct {
	Addr       string        `mapstructure:"addr"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	ProductTTL time.Duration `mapstructure:"product_ttl"`
}

type KafkaConfig struct {
	Brokers    []string `mapstructure:"brokers"`
	OrderTopic string   `mapstructure:"order_topic"`
	GroupID    string   `mapstructure:"group_id"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
}

type RazorpayConfig struct {
	KeyID     string        `mapstructure:"key_id"`
	KeySecret string        `mapstructure:"key_secret"`
	BaseURL   string        `mapstructure:"base_url"`
	Currency  string        `mapstructure:"currency"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type AdminConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Load reads configuration from the environment and, when configPath is
// set, from that file. Keys map to env vars with dots replaced by
// underscores: db.host -> DB_HOST.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Kafka.Brokers = splitList(cfg.Kafka.Brokers)
	cfg.HTTP.CORSOrigins = splitList(cfg.HTTP.CORSOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if c.DB.Host == "" {
		return errors.New("db.host is required")
	}
	if c.Razorpay.KeyID == "" || c.Razorpay.KeySecret == "" {
		return errors.New("razorpay.key_id and razorpay.key_secret are required")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTP.Port)
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("jwt lifetimes must be positive")
	}
	return nil
}

// DSN builds the go-sql-driver DSN; parseTime is required for DATETIME
// columns to scan into time.Time.
func (c DBConfig) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, fmt.Sprint(c.Port))
	cfg.DBName = c.Name
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN()
}

func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

// splitList accepts both a list and a single comma separated entry.
func splitList(in []string) []string {
	out := []string{}
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "marketplace-service")

	v.SetDefault("http.port", 8080)
	v.SetDefault("http.cors_origins", "*")
	v.SetDefault("http.rate_limit", 10)
	v.SetDefault("http.rate_burst", 30)

	v.SetDefault("db.host", "127.0.0.1")
	v.SetDefault("db.port", 3306)
	v.SetDefault("db.user", "root")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "marketplace")
	v.SetDefault("db.connect_retries", 5)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.product_ttl", "10m")

	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.order_topic", "orders")
	v.SetDefault("kafka.group_id", "catalog-cache")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.access_ttl", "60m")
	v.SetDefault("jwt.refresh_ttl", "168h")

	v.SetDefault("razorpay.key_id", "")
	v.SetDefault("razorpay.key_secret", "")
	v.SetDefault("razorpay.base_url", "https://api.razorpay.com")
	v.SetDefault("razorpay.currency", "INR")
	v.SetDefault("razorpay.timeout", "10s")

	v.SetDefault("admin.api_key", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}
