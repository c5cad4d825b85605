// Package config loads DreamBiz settings from an optional .env file, an
// optional YAML file and DREAMBIZ_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	dreambiz "github.com/blyssafrica-alt/dreambiz-sub006"
	"github.com/blyssafrica-alt/dreambiz-sub006/retry"
	"github.com/blyssafrica-alt/dreambiz-sub006/store/sqlstore"
)

// EnvPrefix prefixes every environment override, e.g. DREAMBIZ_DATABASE_DSN.
const EnvPrefix = "DREAMBIZ"

// Supported database drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverMongo    = "mongo"
)

// Config represents the application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Retry    RetryConfig    `mapstructure:"retry"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MongoDatabase   string        `mapstructure:"mongo_database"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// EngineConfig holds engine behavior settings.
type EngineConfig struct {
	OperationTimeout    time.Duration `mapstructure:"operation_timeout"`
	EntitlementCacheTTL time.Duration `mapstructure:"entitlement_cache_ttl"`
	DisableMigrate      bool          `mapstructure:"disable_migrate"`
	Location            string        `mapstructure:"location"`
}

// RetryConfig holds the store retry policy.
type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
}

// HTTPConfig holds HTTP transport settings.
type HTTPConfig struct {
	Addr          string        `mapstructure:"addr"`
	BasePath      string        `mapstructure:"base_path"`
	DisableRoutes bool          `mapstructure:"disable_routes"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
}

// AuthConfig holds session token settings.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig holds metrics-related configuration.
type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	policy := retry.DefaultPolicy()
	return Config{
		Database: DatabaseConfig{
			Driver:          DriverMemory,
			MongoDatabase:   "dreambiz",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Hour,
		},
		Engine: EngineConfig{
			OperationTimeout:    dreambiz.DefaultOperationTimeout,
			EntitlementCacheTTL: dreambiz.DefaultEntitlementCacheTTL,
			Location:            "UTC",
		},
		Retry: RetryConfig{
			MaxAttempts:     policy.MaxAttempts,
			InitialInterval: policy.InitialInterval,
			MaxInterval:     policy.MaxInterval,
			Multiplier:      policy.Multiplier,
		},
		HTTP: HTTPConfig{
			Addr:         ":8080",
			BasePath:     "/api/v1",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			Issuer:   "dreambiz",
			TokenTTL: 24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Namespace: "dreambiz",
		},
	}
}

// Load reads the configuration. envFiles are loaded first; with none given
// an optional .env in the working directory is used. configFile may be
// empty, in which case dreambiz.yaml is looked up in the working directory
// and ignored when absent.
func Load(configFile string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load .env: %w", err)
		}
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("config: load env files: %w", err)
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("dreambiz")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.mongo_database", d.Database.MongoDatabase)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", d.Database.ConnMaxLifetime)

	v.SetDefault("engine.operation_timeout", d.Engine.OperationTimeout)
	v.SetDefault("engine.entitlement_cache_ttl", d.Engine.EntitlementCacheTTL)
	v.SetDefault("engine.disable_migrate", d.Engine.DisableMigrate)
	v.SetDefault("engine.location", d.Engine.Location)

	v.SetDefault("retry.max_attempts", d.Retry.MaxAttempts)
	v.SetDefault("retry.initial_interval", d.Retry.InitialInterval)
	v.SetDefault("retry.max_interval", d.Retry.MaxInterval)
	v.SetDefault("retry.multiplier", d.Retry.Multiplier)

	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("http.base_path", d.HTTP.BasePath)
	v.SetDefault("http.disable_routes", d.HTTP.DisableRoutes)
	v.SetDefault("http.read_timeout", d.HTTP.ReadTimeout)
	v.SetDefault("http.write_timeout", d.HTTP.WriteTimeout)

	v.SetDefault("auth.jwt_secret", d.Auth.JWTSecret)
	v.SetDefault("auth.issuer", d.Auth.Issuer)
	v.SetDefault("auth.token_ttl", d.Auth.TokenTTL)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("metrics.namespace", d.Metrics.Namespace)
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverMemory:
	case DriverPostgres, DriverSQLite, DriverMySQL, DriverMongo:
		if c.Database.DSN == "" {
			return fmt.Errorf("config: database.dsn is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("config: unknown database.driver %q", c.Database.Driver)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("config: retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Engine.OperationTimeout <= 0 {
		return errors.New("config: engine.operation_timeout must be positive")
	}
	if _, err := time.LoadLocation(c.Engine.Location); err != nil {
		return fmt.Errorf("config: engine.location: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log.format %q", c.Log.Format)
	}
	return nil
}

// PoolOptions returns the SQL connection pool settings.
func (c *Config) PoolOptions() sqlstore.PoolOptions {
	return sqlstore.PoolOptions{
		MaxOpenConns:    c.Database.MaxOpenConns,
		MaxIdleConns:    c.Database.MaxIdleConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
	}
}

// RetryPolicy returns the store retry policy.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:     c.Retry.MaxAttempts,
		InitialInterval: c.Retry.InitialInterval,
		MaxInterval:     c.Retry.MaxInterval,
		Multiplier:      c.Retry.Multiplier,
		AttemptTimeout:  c.Engine.OperationTimeout,
	}
}

// EngineOptions translates the engine settings into engine options.
func (c *Config) EngineOptions(logger *slog.Logger) []dreambiz.Option {
	loc, err := time.LoadLocation(c.Engine.Location)
	if err != nil {
		loc = time.UTC
	}
	return []dreambiz.Option{
		dreambiz.WithLogger(logger),
		dreambiz.WithRetryPolicy(c.RetryPolicy()),
		dreambiz.WithOperationTimeout(c.Engine.OperationTimeout),
		dreambiz.WithEntitlementCacheTTL(c.Engine.EntitlementCacheTTL),
		dreambiz.WithAutoMigrate(!c.Engine.DisableMigrate),
		dreambiz.WithLocation(loc),
	}
}

// NewLogger builds the slog logger described by the log settings.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// SlogLevel parses Level, falling back to info.
func (c LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
