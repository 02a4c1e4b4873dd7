// Package logging builds the zap loggers used by every command.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"ammScope/internal/config"
)

// Rotation limits for log files.
const (
	maxSizeMB  = 100
	maxBackups = 5
	maxAgeDays = 28
)

// New returns a JSON production logger writing to stderr, plus every entry to cfg.File
// and error entries to cfg.ErrorFile when those are set.
func New(cfg config.Logging) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
		}
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = level
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var extra []zapcore.Core
	encoder := zapcore.NewJSONEncoder(zcfg.EncoderConfig)
	if cfg.File != "" {
		extra = append(extra, zapcore.NewCore(encoder, rotating(cfg.File), level))
	}
	if cfg.ErrorFile != "" {
		errLevel := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
			return l >= zapcore.ErrorLevel && level.Enabled(l)
		})
		extra = append(extra, zapcore.NewCore(encoder.Clone(), rotating(cfg.ErrorFile), errLevel))
	}

	var opts []zap.Option
	if len(extra) > 0 {
		opts = append(opts, zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(append([]zapcore.Core{core}, extra...)...)
		}))
	}
	return zcfg.Build(opts...)
}

func rotating(path string) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	})
}
