package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gotest.tools/v3/assert"
)

func loadYAML(t *testing.T, text string) (*Config, error) {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	assert.NilError(t, v.ReadConfig(strings.NewReader(text)))
	return Load(v)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New())
	assert.NilError(t, err)
	assert.Equal(t, int64(0), cfg.Cache.Pages)
	assert.Equal(t, "info", cfg.Logger.LogLevel)
	assert.Equal(t, "", cfg.Logger.FileLogName)
	assert.Equal(t, 10, cfg.Logger.MaxSize)
	assert.Equal(t, "", cfg.Layouts)
}

func TestLoadFromYAML(t *testing.T) {
	cfg, err := loadYAML(t, `
cache:
  pages: 64
log:
  level: debug
  file: /tmp/minidb.log
  max_size_mb: 5
layouts: /etc/minidb/layouts.properties
`)
	assert.NilError(t, err)
	assert.Equal(t, int64(64), cfg.Cache.Pages)
	assert.Equal(t, "/tmp/minidb.log", cfg.Logger.FileLogName)
	assert.Equal(t, 5, cfg.Logger.MaxSize)
	assert.Equal(t, "/etc/minidb/layouts.properties", cfg.Layouts)

	level, err := cfg.Logger.Level()
	assert.NilError(t, err)
	assert.Equal(t, zapcore.DebugLevel, level)
}

func TestLoadRejectsBadValues(t *testing.T) {
	_, err := loadYAML(t, "cache:\n  pages: -1\n")
	assert.ErrorContains(t, err, "cache.pages")

	_, err = loadYAML(t, "log:\n  level: loud\n")
	assert.ErrorContains(t, err, "log.level")

	_, err = loadYAML(t, "log:\n  max_size_mb: 0\n")
	assert.ErrorContains(t, err, "max_size_mb")
}

func TestNewLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minidb.log")
	l := Logger{LogLevel: "debug", FileLogName: path, MaxSize: 1}
	log, err := l.NewLogger()
	assert.NilError(t, err)
	log.Debug("page allocated")
	assert.NilError(t, log.Sync())

	data, err := os.ReadFile(path)
	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(string(data), "page allocated"))
}
