// Package config provides configuration management for the catalog service.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for every environment variable read by Load.
const EnvPrefix = "CATALOG"

// SSL mode constants for database connections.
const (
	// SSLModeDisable disables SSL (use only for local development).
	SSLModeDisable = "disable"
	// SSLModeRequire requires SSL but does not verify certificates.
	SSLModeRequire = "require"
	// SSLModeVerifyCA verifies the server certificate against a CA.
	SSLModeVerifyCA = "verify-ca"
	// SSLModeVerifyFull verifies the server certificate and hostname.
	SSLModeVerifyFull = "verify-full"
)

// Config holds all configuration for the catalog service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Database contains PostgreSQL connection settings.
	Database DatabaseConfig `mapstructure:"database"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP API port (default: 8000).
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// IdleTimeout is the maximum keep-alive idle time.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// RateLimitRPS is the sustained request rate accepted by the API. Zero disables limiting.
	RateLimitRPS float64 `mapstructure:"rate_limit_rps"`
	// RateLimitBurst is the token bucket size used with RateLimitRPS.
	RateLimitBurst int `mapstructure:"rate_limit_burst"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname.
	Host string `mapstructure:"host"`
	// Port is the PostgreSQL server port (default: 5432).
	Port int `mapstructure:"port"`
	// User is the database username.
	User string `mapstructure:"user"`
	// Password is read only from CATALOG_DATABASE_PASSWORD, never from a config file.
	Password string `mapstructure:"-"`
	// Name is the database name.
	Name string `mapstructure:"name"`
	// SSLMode controls SSL connection security (require, verify-ca, verify-full, disable).
	SSLMode string `mapstructure:"ssl_mode"`
	// MaxConns is the maximum number of connections in the pool (default: 20).
	MaxConns int32 `mapstructure:"max_conns"`
	// MinConns is the minimum number of connections to keep open (default: 2).
	MinConns int32 `mapstructure:"min_conns"`
	// MaxConnLifetime is the maximum lifetime of a connection before it's closed.
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	// MaxConnIdleTime is the maximum time a connection can be idle before it's closed.
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	// HealthCheckPeriod is the interval between health checks of idle connections.
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	// ConnectTimeout is the maximum time to wait for a connection.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// MigrationPath is the path to migration files (relative or absolute).
	MigrationPath string `mapstructure:"migration_path"`
	// MigrationAutoRun enables automatic migration on startup.
	MigrationAutoRun bool `mapstructure:"migration_auto_run"`
}

// LoggingConfig mirrors observability.LoggingConfig.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // trace .. panic
	Format     string `mapstructure:"format"` // json, console or pretty
	Output     string `mapstructure:"output"` // stdout or stderr
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig controls the Prometheus endpoint served next to the API.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Path      string `mapstructure:"path"`
	Namespace string `mapstructure:"namespace"`
}

// DSN returns a postgres:// URL for the catalog database. Credentials are
// escaped, so passwords may contain any character.
func (c *DatabaseConfig) DSN() string {
	query := url.Values{}
	query.Set("sslmode", c.SSLMode)
	if c.ConnectTimeout > 0 {
		query.Set("connect_timeout", strconv.Itoa(int(c.ConnectTimeout.Seconds())))
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// HTTPAddress returns the listen address of the HTTP API.
func (c *ServerConfig) HTTPAddress() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.HTTPPort))
}

// MetricsAddress returns the listen address of the metrics server.
func (c *ServerConfig) MetricsAddress() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.MetricsPort))
}

// Load reads configuration from a .env file, environment variables and an
// optional config.yaml, in increasing order of precedence for the last two.
func Load() (*Config, error) {
	// A .env file only seeds variables that are not already set in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/catalog-service")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates fields that are excluded from file-based configuration.
func loadSecrets(cfg *Config) {
	cfg.Database.Password = os.Getenv(EnvPrefix + "_DATABASE_PASSWORD")
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8000)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "2m")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.rate_limit_rps", 0)
	v.SetDefault("server.rate_limit_burst", 50)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "catalog")
	v.SetDefault("database.name", "catalog")
	// Use CATALOG_DATABASE_SSL_MODE=disable for local development.
	v.SetDefault("database.ssl_mode", SSLModeRequire)
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")
	v.SetDefault("database.health_check_period", "30s")
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.migration_path", "migrations")
	v.SetDefault("database.migration_auto_run", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "catalog")
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	for _, check := range []func() error{
		c.validateServer,
		c.Database.validate,
		c.Logging.validate,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if !validPort(c.Server.HTTPPort) {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Metrics.Enabled {
		switch {
		case !validPort(c.Server.MetricsPort):
			return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
		case c.Server.MetricsPort == c.Server.HTTPPort:
			return fmt.Errorf("metrics port must differ from HTTP port: %d", c.Server.MetricsPort)
		case !strings.HasPrefix(c.Metrics.Path, "/"):
			return fmt.Errorf("metrics path must start with '/': %q", c.Metrics.Path)
		}
	}
	if c.Server.RateLimitRPS < 0 {
		return errors.New("rate_limit_rps must not be negative")
	}
	if c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst <= 0 {
		return errors.New("rate_limit_burst must be positive when rate limiting is enabled")
	}
	return nil
}

func (d *DatabaseConfig) validate() error {
	switch {
	case d.Host == "":
		return errors.New("database host is required")
	case !validPort(d.Port):
		return fmt.Errorf("invalid database port: %d", d.Port)
	case d.Name == "":
		return errors.New("database name is required")
	case d.MaxConns < d.MinConns:
		return fmt.Errorf("max_conns (%d) must be >= min_conns (%d)", d.MaxConns, d.MinConns)
	}
	switch d.SSLMode {
	case SSLModeDisable, SSLModeRequire, SSLModeVerifyCA, SSLModeVerifyFull:
		return nil
	default:
		return fmt.Errorf("invalid database ssl_mode: %q", d.SSLMode)
	}
}

func (l *LoggingConfig) validate() error {
	switch strings.ToLower(l.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return fmt.Errorf("invalid log level: %s", l.Level)
	}
	switch strings.ToLower(l.Format) {
	case "json", "console", "pretty":
		return nil
	default:
		return fmt.Errorf("invalid log format: %s", l.Format)
	}
}

func validPort(port int) bool {
	return port > 0 && port <= 65535
}
