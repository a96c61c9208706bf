package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	_ "github.com/joho/godotenv/autoload"
)

// Duration parses env values like "10s", "5m" or a bare number of seconds.
type Duration time.Duration

// SetValue implements cleanenv.Setter.
func (d *Duration) SetValue(s string) error {
	v, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	return d.SetValue(string(text))
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }

// ParseDuration accepts a time.ParseDuration string or a bare number of
// seconds, optionally wrapped in quotes.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && ((s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'')) {
		s = s[1 : len(s)-1]
	}
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("duration must be like 10s, 5m or a number of seconds: %w", err)
	}
	return d, nil
}

type Config struct {
	App   AppConfig
	HTTP  HTTPConfig
	DB    DBConfig
	Redis RedisConfig
}

type AppConfig struct {
	Env      string `env:"APP_ENV" env-default:"dev"`
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`
}

// IsProduction reports whether the app runs with production defaults
// (JSON logs, quiet SQL logging).
func (c AppConfig) IsProduction() bool {
	switch strings.ToLower(c.Env) {
	case "prod", "production":
		return true
	}
	return false
}

type HTTPConfig struct {
	Port            int      `env:"PORT" env-default:"8080"`
	ReadTimeout     Duration `env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout     Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout Duration `env:"SHUTDOWN_TIMEOUT" env-default:"5s"`
}

type DBConfig struct {
	// DSN overrides the individual connection fields when set.
	DSN      string `env:"DB_DSN" env-default:""`
	Host     string `env:"BLUEPRINT_DB_HOST" env-default:"localhost"`
	Port     string `env:"BLUEPRINT_DB_PORT" env-default:"5432"`
	Username string `env:"BLUEPRINT_DB_USERNAME" env-default:"postgres"`
	Password string `env:"BLUEPRINT_DB_PASSWORD" env-default:""`
	Database string `env:"BLUEPRINT_DB_DATABASE" env-default:"todolist"`
	Schema   string `env:"BLUEPRINT_DB_SCHEMA" env-default:""`

	MaxIdleConns    int      `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	MaxOpenConns    int      `env:"DB_MAX_OPEN_CONNS" env-default:"100"`
	ConnMaxLifetime Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"1h"`
}

// ConnString returns the DSN handed to the pgx driver.
func (c DBConfig) ConnString() string {
	if c.DSN != "" {
		return c.DSN
	}
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.Host, c.Username, c.Password, c.Database, c.Port)
	if c.Schema != "" {
		dsn += " search_path=" + c.Schema
	}
	return dsn
}

type RedisConfig struct {
	// URL overrides Addr/Password/DB when set, e.g. redis://default:pw@host:6379/0.
	URL      string   `env:"REDIS_URL" env-default:""`
	Addr     string   `env:"REDIS_ADDR" env-default:""`
	Password string   `env:"REDIS_PASSWORD" env-default:""`
	DB       int      `env:"REDIS_DB" env-default:"0"`
	TTL      Duration `env:"REDIS_TTL" env-default:"60"`
}

// Enabled reports whether a Redis endpoint was configured.
func (c RedisConfig) Enabled() bool {
	return c.URL != "" || c.Addr != ""
}

func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return Config{}, fmt.Errorf("PORT must be between 1 and 65535, got %d", cfg.HTTP.Port)
	}
	if cfg.Redis.TTL.Duration() <= 0 {
		return Config{}, fmt.Errorf("REDIS_TTL must be positive")
	}
	return cfg, nil
}
