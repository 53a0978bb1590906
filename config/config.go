// Package config holds the command line tool's settings.
package config

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Cache   Cache  `mapstructure:"cache"`
	Logger  Logger `mapstructure:"log"`
	Layouts string `mapstructure:"layouts"`
}

// Cache sizes the optional page cache. Zero pages disables it.
type Cache struct {
	Pages int64 `mapstructure:"pages"`
}

// Logger configures logging. An empty FileLogName logs to stderr.
type Logger struct {
	LogLevel    string `mapstructure:"level"`
	FileLogName string `mapstructure:"file"`
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAge      int    `mapstructure:"max_age"`
	MaxSize     int    `mapstructure:"max_size_mb"`
	Compress    bool   `mapstructure:"compress"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("cache.pages", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.compress", false)
	v.SetDefault("layouts", "")
}

// Load decodes and checks the settings held by v.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "config: decode")
	}
	if cfg.Cache.Pages < 0 {
		return nil, errors.Errorf("config: cache.pages must not be negative, got %d", cfg.Cache.Pages)
	}
	if _, err := cfg.Logger.Level(); err != nil {
		return nil, err
	}
	if cfg.Logger.MaxSize <= 0 {
		return nil, errors.Errorf("config: log.max_size_mb must be positive, got %d", cfg.Logger.MaxSize)
	}
	return &cfg, nil
}

func (l Logger) Level() (zapcore.Level, error) {
	level, err := zapcore.ParseLevel(l.LogLevel)
	if err != nil {
		return level, errors.Wrap(err, "config: log.level")
	}
	return level, nil
}
