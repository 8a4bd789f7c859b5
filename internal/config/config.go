package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

// DotEnvFile is read from the working directory when present. Variables
// already set in the process environment take precedence over it.
const DotEnvFile = ".env"

// EnvPrefix prefixes every environment override. Keys are
// INTAKE_<SECTION>_<FIELD>, e.g. INTAKE_SERVER_PORT or INTAKE_RATE_LIMIT_BURST.
// Fields carry no envconfig tag: a tag would make envconfig fall back to the
// bare name and pick up host variables such as PATH, USER or PORT.
const EnvPrefix = "INTAKE"

type Config struct {
	Server    ServerConfig    `mapstructure:"server" split_words:"true"`
	Database  DatabaseConfig  `mapstructure:"database" split_words:"true"`
	Redis     RedisConfig     `mapstructure:"redis" split_words:"true"`
	Events    EventsConfig    `mapstructure:"events" split_words:"true"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" split_words:"true"`
	Security  SecurityConfig  `mapstructure:"security" split_words:"true"`
	Log       LogConfig       `mapstructure:"log" split_words:"true"`
	Metrics   MetricsConfig   `mapstructure:"metrics" split_words:"true"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port" split_words:"true"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" split_words:"true"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" split_words:"true"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes" split_words:"true"`
	// MaxBodyBytes caps request bodies; larger bodies get 413.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes" split_words:"true"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "memory".
	Driver string `mapstructure:"driver" split_words:"true"`
	// URL takes precedence over the individual connection fields.
	URL             string        `mapstructure:"url" split_words:"true"`
	Host            string        `mapstructure:"host" split_words:"true"`
	Port            int           `mapstructure:"port" split_words:"true"`
	User            string        `mapstructure:"user" split_words:"true"`
	Password        string        `mapstructure:"password" split_words:"true"`
	Name            string        `mapstructure:"name" split_words:"true"`
	SSLMode         string        `mapstructure:"sslmode" split_words:"true"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" split_words:"true"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" split_words:"true"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" split_words:"true"`
}

// DSN returns the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type RedisConfig struct {
	URL          string        `mapstructure:"url" split_words:"true"`
	MaxRetries   int           `mapstructure:"max_retries" split_words:"true"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff" split_words:"true"`
	PoolSize     int           `mapstructure:"pool_size" split_words:"true"`
	MinIdleConns int           `mapstructure:"min_idle_conns" split_words:"true"`
}

type EventsConfig struct {
	Enabled          bool          `mapstructure:"enabled" split_words:"true"`
	ChannelPrefix    string        `mapstructure:"channel_prefix" split_words:"true"`
	FailureThreshold uint32        `mapstructure:"failure_threshold" split_words:"true"`
	OpenTimeout      time.Duration `mapstructure:"open_timeout" split_words:"true"`
	// PublishTimeout bounds each publish made while serving a request.
	PublishTimeout time.Duration `mapstructure:"publish_timeout" split_words:"true"`
}

type RateLimitConfig struct {
	Enabled           bool          `mapstructure:"enabled" split_words:"true"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" split_words:"true"`
	Burst             int           `mapstructure:"burst" split_words:"true"`
	ClientTTL         time.Duration `mapstructure:"client_ttl" split_words:"true"`
}

type SecurityConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" split_words:"true"`
	AllowedMethods []string `mapstructure:"allowed_methods" split_words:"true"`
	AllowedHeaders []string `mapstructure:"allowed_headers" split_words:"true"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" split_words:"true"`
	Format string `mapstructure:"format" split_words:"true"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled" split_words:"true"`
	Path      string `mapstructure:"path" split_words:"true"`
	Namespace string `mapstructure:"namespace" split_words:"true"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 4000)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.max_header_bytes", 1<<20)
	v.SetDefault("server.max_body_bytes", 1<<20)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "intake")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)

	v.SetDefault("events.enabled", false)
	v.SetDefault("events.channel_prefix", "intake:")
	v.SetDefault("events.failure_threshold", 5)
	v.SetDefault("events.open_timeout", 30*time.Second)
	v.SetDefault("events.publish_timeout", 250*time.Millisecond)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20.0)
	v.SetDefault("rate_limit.burst", 40)
	v.SetDefault("rate_limit.client_ttl", 10*time.Minute)

	v.SetDefault("security.allowed_origins", []string{"*"})
	v.SetDefault("security.allowed_methods", []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("security.allowed_headers", []string{"Content-Type", "X-Request-ID"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "intake")
}

// LoadConfig reads defaults, then the YAML file at path (or ./config.yaml,
// ./config/config.yaml when path is empty and such a file exists), then
// INTAKE_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", DotEnvFile, err)
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errors.New("server max_body_bytes must be positive")
	}

	switch c.Database.Driver {
	case "memory":
	case "postgres":
		if c.Database.URL != "" {
			if _, err := url.Parse(c.Database.URL); err != nil {
				return fmt.Errorf("invalid database url: %w", err)
			}
		} else if c.Database.Host == "" || c.Database.Name == "" {
			return errors.New("database url or host and name are required")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return errors.New("rate limit requires positive requests_per_second and burst")
	}

	if c.Events.Enabled && c.Redis.URL == "" {
		return errors.New("redis url is required when events are enabled")
	}
	if c.Events.Enabled && c.Events.PublishTimeout <= 0 {
		return errors.New("events publish_timeout must be positive")
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics path %q must start with /", c.Metrics.Path)
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}

	return nil
}
