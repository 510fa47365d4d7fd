package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "forum.yml"

	defaultPort            = 8080
	defaultEnv             = "development"
	defaultDriver          = DriverMemory
	defaultTokenTTL        = 24 * time.Hour
	defaultShutdownTimeout = 10 * time.Second
	defaultLogLevel        = "info"
	defaultLogMaxSizeMB    = 50
	defaultLogMaxBackups   = 5
	defaultLogMaxAgeDays   = 28
	defaultBaseURL         = "http://localhost:8080"
	defaultPollInterval    = 30 * time.Second
	defaultMaxIndent       = 6
	defaultPageLimit       = 100
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	Client   ClientConfig   `yaml:"client"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	Env             string        `yaml:"env"` // "development" | "production"
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "memory" | "postgres"
	DSN    string `yaml:"dsn"`
}

// RedisConfig selects the unread counter store. An empty URL keeps the
// counters in memory.
type RedisConfig struct {
	URL string `yaml:"url"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type ClientConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Token        string        `yaml:"token"`
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxIndent    int           `yaml:"max_indent"`
	PageLimit    int           `yaml:"page_limit"`
}

func (c *Config) Production() bool { return c.Server.Env == "production" }

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. With an empty path a missing
// DefaultConfigPath is not an error.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	path := strings.TrimSpace(configPath)
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	normalize(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	return &cfg, nil
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            defaultPort,
			Env:             defaultEnv,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Database: DatabaseConfig{Driver: defaultDriver},
		Auth:     AuthConfig{TokenTTL: defaultTokenTTL},
		Log: LogConfig{
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
		Client: ClientConfig{
			BaseURL:      defaultBaseURL,
			PollInterval: defaultPollInterval,
			MaxIndent:    defaultMaxIndent,
			PageLimit:    defaultPageLimit,
		},
	}
}

func applyEnv(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	overrides := []struct {
		key string
		dst *string
	}{
		{"FORUM_ENV", &cfg.Server.Env},
		{"FORUM_DATABASE_DRIVER", &cfg.Database.Driver},
		{"FORUM_DATABASE_DSN", &cfg.Database.DSN},
		{"FORUM_REDIS_URL", &cfg.Redis.URL},
		{"FORUM_JWT_SECRET", &cfg.Auth.JWTSecret},
		{"FORUM_LOG_LEVEL", &cfg.Log.Level},
		{"FORUM_BASE_URL", &cfg.Client.BaseURL},
		{"FORUM_TOKEN", &cfg.Client.Token},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.key); ok {
			*o.dst = v
		}
	}
	return nil
}

func normalize(cfg *Config) {
	cfg.Server.Env = strings.ToLower(strings.TrimSpace(cfg.Server.Env))
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	cfg.Database.DSN = strings.TrimSpace(cfg.Database.DSN)
	cfg.Redis.URL = strings.TrimSpace(cfg.Redis.URL)
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.File = strings.TrimSpace(cfg.Log.File)
	cfg.Client.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Client.BaseURL), "/")
	cfg.Client.Token = strings.TrimSpace(cfg.Client.Token)

	if cfg.Server.Env == "" {
		cfg.Server.Env = defaultEnv
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = defaultDriver
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d, expected 1-65535", c.Server.Port)
	}
	if c.Server.Env != "development" && c.Server.Env != "production" {
		return fmt.Errorf("invalid server.env %q, expected development or production", c.Server.Env)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid server.shutdown_timeout %s, expected > 0", c.Server.ShutdownTimeout)
	}
	switch c.Database.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Database.DSN == "" {
			return errors.New("database.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("invalid database.driver %q, expected memory or postgres", c.Database.Driver)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("invalid auth.token_ttl %s, expected > 0", c.Auth.TokenTTL)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level %q: %w", c.Log.Level, err)
	}
	if c.Log.MaxSizeMB < 1 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		return errors.New("invalid log rotation settings")
	}
	if c.Client.PollInterval <= 0 {
		return fmt.Errorf("invalid client.poll_interval %s, expected > 0", c.Client.PollInterval)
	}
	if c.Client.MaxIndent < 1 {
		return fmt.Errorf("invalid client.max_indent %d, expected >= 1", c.Client.MaxIndent)
	}
	if c.Client.PageLimit < 1 || c.Client.PageLimit > 100 {
		return fmt.Errorf("invalid client.page_limit %d, expected 1-100", c.Client.PageLimit)
	}
	return nil
}

// RequireSecret reports an error when the server has no key to verify
// identity tokens with.
func (c *Config) RequireSecret() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("auth.jwt_secret (or FORUM_JWT_SECRET) is required")
	}
	return nil
}
