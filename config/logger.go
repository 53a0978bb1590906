package config

import (
	"os"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a zap logger from the settings: console output on stderr,
// or JSON lines into a rotated file.
func (l Logger) NewLogger() (*zap.Logger, error) {
	level, err := l.Level()
	if err != nil {
		return nil, err
	}
	if l.FileLogName == "" {
		enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level)
		return zap.New(core), nil
	}
	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   l.FileLogName,
		MaxSize:    l.MaxSize,
		MaxBackups: l.MaxBackups,
		MaxAge:     l.MaxAge,
		Compress:   l.Compress,
	})
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	return zap.New(zapcore.NewCore(enc, w, level)), nil
}
