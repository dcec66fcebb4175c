// Package config loads service configuration from defaults, an optional YAML file and
// LEDGER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. LEDGER_SERVER_PORT.
const EnvPrefix = "LEDGER"

// ConfigFileEnv names an optional YAML config file.
const ConfigFileEnv = "LEDGER_CONFIG_FILE"

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Ingest        IngestConfig        `mapstructure:"ingest"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Profiling     ProfilingConfig     `mapstructure:"profiling"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Host               string   `mapstructure:"host"`
	Port               int      `mapstructure:"port"`
	RateLimitPerSecond float64  `mapstructure:"rate_limit_per_second"`
	RateLimitBurst     int      `mapstructure:"rate_limit_burst"`
	AllowedOrigins     []string `mapstructure:"allowed_origins"`
	MaxBodyBytes       int64    `mapstructure:"max_body_bytes"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
	// Path is the SQLite database file.
	Path     string `mapstructure:"path"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

type AuthConfig struct {
	JWTSecret  string `mapstructure:"jwt_secret"`
	APIKeyHash string `mapstructure:"api_key_hash"`
}

type IngestConfig struct {
	Timezone string `mapstructure:"timezone"`
	// DefaultYear is used for notifications without a year; 0 means the current year.
	DefaultYear       int    `mapstructure:"default_year"`
	CategoryRulesPath string `mapstructure:"category_rules_path"`
	RequireDate       bool   `mapstructure:"require_date"`
	SeedEnabled       bool   `mapstructure:"seed_enabled"`
	BatchLimit        int    `mapstructure:"batch_limit"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ProfilingConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

type ObservabilityConfig struct {
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
	ServiceName    string `mapstructure:"service_name"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.rate_limit_per_second", 0)
	v.SetDefault("server.rate_limit_burst", 0)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.max_body_bytes", 1<<20)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "ledger")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.path", "data/ledger.db")
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("database.min_conns", 5)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.api_key_hash", "")

	v.SetDefault("ingest.timezone", "Asia/Seoul")
	v.SetDefault("ingest.default_year", 0)
	v.SetDefault("ingest.category_rules_path", "")
	v.SetDefault("ingest.require_date", false)
	v.SetDefault("ingest.seed_enabled", true)
	v.SetDefault("ingest.batch_limit", 1000)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("profiling.enabled", false)
	v.SetDefault("profiling.port", 6060)

	v.SetDefault("observability.metrics_enabled", true)
	v.SetDefault("observability.service_name", "card-alert-ledger")
}

// Load resolves configuration: defaults, then the file named by LEDGER_CONFIG_FILE (if
// set), then environment variables.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if err := validPort("server.port", c.Server.Port); err != nil {
		return err
	}
	if c.Profiling.Enabled {
		if err := validPort("profiling.port", c.Profiling.Port); err != nil {
			return err
		}
	}

	switch c.Database.Driver {
	case "postgres":
		if err := validPort("database.port", c.Database.Port); err != nil {
			return err
		}
		if c.Database.Host == "" || c.Database.Name == "" {
			return fmt.Errorf("%w: database.host and database.name are required for postgres", ErrInvalidConfig)
		}
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("%w: database.path is required for sqlite", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown database.driver %q", ErrInvalidConfig, c.Database.Driver)
	}

	if c.Ingest.BatchLimit < 0 {
		return fmt.Errorf("%w: ingest.batch_limit must not be negative", ErrInvalidConfig)
	}
	if c.Ingest.DefaultYear < 0 || c.Ingest.DefaultYear > 9999 {
		return fmt.Errorf("%w: ingest.default_year out of range", ErrInvalidConfig)
	}
	if _, err := c.Ingest.Location(); err != nil {
		return err
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("%w: unknown logging.format %q", ErrInvalidConfig, c.Logging.Format)
	}
	return nil
}

func validPort(key string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%w: %s must be between 1 and 65535, got %d", ErrInvalidConfig, key, port)
	}
	return nil
}

// DSN builds the PostgreSQL connection URL.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Name,
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {d.SSLMode}}.Encode()
	}
	return u.String()
}

// Location loads the configured time zone used to resolve the current year and day.
func (i IngestConfig) Location() (*time.Location, error) {
	if i.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(i.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: ingest.timezone: %v", ErrInvalidConfig, err)
	}
	return loc, nil
}
