package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/env"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Retry     RetryConfig     `koanf:"retry"`
	Logger    LoggerConfig    `koanf:"logger"`
	Worker    WorkerConfig    `koanf:"worker"`
}

type ServerConfig struct {
	Port         string        `koanf:"port" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" validate:"required"`
}

type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"required"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password" validate:"required"`
	Name            string        `koanf:"name" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"required"`
}

type EmbeddingConfig struct {
	BaseURL     string        `koanf:"base_url" validate:"required"`
	CallTimeout time.Duration `koanf:"call_timeout" validate:"required"`
}

type RetryConfig struct {
	BaseDelay  time.Duration `koanf:"base_delay"`
	MaxRetries int           `koanf:"max_retries"`
}

type LoggerConfig struct {
	Level string `koanf:"level"`
}

type WorkerConfig struct {
	Interval   time.Duration `koanf:"interval" validate:"required"`
	BatchSize  int           `koanf:"batch_size" validate:"required"`
	PendingTTL time.Duration `koanf:"pending_ttl" validate:"required"`
}

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 100 * time.Millisecond
)

func LoadConfig() (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	err := k.Load(env.Provider("NVSTECH_", ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "NVSTECH_")),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	if mainConfig.Retry.MaxRetries == 0 {
		mainConfig.Retry.MaxRetries = DefaultMaxRetries
	}
	if mainConfig.Retry.BaseDelay == 0 {
		mainConfig.Retry.BaseDelay = DefaultBaseDelay
	}

	validate := validator.New()

	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}

// NewLogger builds the process-wide logger from the configured level.
func (c LoggerConfig) NewLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}
