package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Game    GameConfig    `yaml:"game"`
	Redis   RedisConfig   `yaml:"redis"`
	Archive ArchiveConfig `yaml:"archive"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
	// RateLimit is requests per second per client; 0 disables the limiter.
	RateLimit       int           `yaml:"rateLimit"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

type GameConfig struct {
	MatchInterval time.Duration `yaml:"matchInterval"`
	SessionTTL    time.Duration `yaml:"sessionTTL"`
}

// RedisConfig enables the session store when URL is set.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// ArchiveConfig enables the SQL archive when DSN is set.
type ArchiveConfig struct {
	Driver string `yaml:"driver"` // sqlite3 | postgres
	DSN    string `yaml:"dsn"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
	Caller  bool   `yaml:"caller"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3000,
			AllowedOrigins:  []string{"http://localhost:5173"},
			RateLimit:       20,
			ShutdownTimeout: 10 * time.Second,
		},
		Game: GameConfig{
			MatchInterval: time.Second,
			SessionTTL:    24 * time.Hour,
		},
		Archive: ArchiveConfig{Driver: "sqlite3"},
		Log: LogConfig{
			Level:   "info",
			Format:  "console",
			Console: true,
		},
	}
}

// Load reads the optional YAML file at path, applies environment overrides
// and validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path = strings.TrimSpace(path); path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
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
	if v := env("CHESS_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := env("CHESS_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CHESS_PORT: %w", err)
		}
		c.Server.Port = n
	}
	if v := env("CHESS_ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	if v := env("CHESS_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CHESS_RATE_LIMIT: %w", err)
		}
		c.Server.RateLimit = n
	}
	if v := env("CHESS_MATCH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CHESS_MATCH_INTERVAL: %w", err)
		}
		c.Game.MatchInterval = d
	}
	if v := env("CHESS_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CHESS_SESSION_TTL: %w", err)
		}
		c.Game.SessionTTL = d
	}
	if v := env("REDIS_URL"); v != "" {
		c.Redis.URL = v
	}
	if v := env("DATABASE_URL"); v != "" {
		c.Archive.DSN = v
		if strings.HasPrefix(v, "postgres://") || strings.HasPrefix(v, "postgresql://") {
			c.Archive.Driver = "postgres"
		}
	}
	if v := env("CHESS_ARCHIVE_DRIVER"); v != "" {
		c.Archive.Driver = v
	}
	if v := env("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := env("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := env("LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := env("LOG_TO_CONSOLE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Log.Console = b
		}
	}
	if v := env("LOG_CALLER"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Log.Caller = b
		}
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("invalid rate limit %d", c.Server.RateLimit)
	}
	if c.Game.MatchInterval <= 0 {
		return fmt.Errorf("match interval must be positive")
	}
	if c.Game.SessionTTL < 0 {
		return fmt.Errorf("session ttl must not be negative")
	}
	switch c.Archive.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("unsupported archive driver %q", c.Archive.Driver)
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("unsupported log format %q", c.Log.Format)
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
