package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"strcheck/internal/report"
)

const envPrefix = "STRCHECK"

var ErrInvalidConfig = errors.New("invalid config")

type ServerConfig struct {
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LimiterConfig struct {
	Every           time.Duration `mapstructure:"every"`
	Burst           int           `mapstructure:"burst"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
}

type AppConfig struct {
	RulesFile string        `mapstructure:"rules_file"`
	Format    string        `mapstructure:"format"`
	LogLevel  string        `mapstructure:"log_level"`
	Server    ServerConfig  `mapstructure:"server"`
	Limiter   LimiterConfig `mapstructure:"limiter"`
}

// Init подставляет значения по умолчанию для незаданных полей.
func (cfg *AppConfig) Init() {
	if cfg.Format == "" {
		cfg.Format = report.FormatText
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Limiter.Every == 0 {
		cfg.Limiter.Every = 100 * time.Millisecond
	}
	if cfg.Limiter.Burst == 0 {
		cfg.Limiter.Burst = 5
	}
	if cfg.Limiter.CleanupInterval == 0 {
		cfg.Limiter.CleanupInterval = 2 * time.Minute
	}
	if cfg.Limiter.IdleTimeout == 0 {
		cfg.Limiter.IdleTimeout = 30 * time.Minute
	}
}

func (cfg *AppConfig) Validate() error {
	switch cfg.Format {
	case report.FormatText, report.FormatYAML, report.FormatJSON:
	default:
		return fmt.Errorf("%w: %q", report.ErrUnknownFormat, cfg.Format)
	}
	if cfg.Limiter.Burst < 0 {
		return fmt.Errorf("%w: limiter.burst must not be negative", ErrInvalidConfig)
	}
	durations := []struct {
		key   string
		value time.Duration
	}{
		{"server.read_timeout", cfg.Server.ReadTimeout},
		{"server.write_timeout", cfg.Server.WriteTimeout},
		{"server.shutdown_timeout", cfg.Server.ShutdownTimeout},
		{"limiter.every", cfg.Limiter.Every},
		{"limiter.cleanup_interval", cfg.Limiter.CleanupInterval},
		{"limiter.idle_timeout", cfg.Limiter.IdleTimeout},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidConfig, d.key, d.value)
		}
	}
	return nil
}

// loadConfig читает конфигурацию из файла (если указан) и переменных окружения STRCHECK_*.
// Переменные окружения имеют приоритет над файлом.
func loadConfig(configPath string) (*AppConfig, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("rules_file", "")
	v.SetDefault("format", report.FormatText)
	v.SetDefault("log_level", "info")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("limiter.every", "100ms")
	v.SetDefault("limiter.burst", 5)
	v.SetDefault("limiter.cleanup_interval", "2m")
	v.SetDefault("limiter.idle_timeout", "30m")

	if configPath != "" {
		v.SetConfigFile(configPath)
		ext := filepath.Ext(configPath)
		if ext == ".yaml" || ext == ".yml" {
			v.SetConfigType("yaml")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Init()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
