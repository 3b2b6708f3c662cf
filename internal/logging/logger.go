package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log bundles the service logger with its runtime-adjustable level.
// Handlers and jobs take the Sugar form; Base stays available for the
// rare hot path that wants structured fields without sugaring.
type Log struct {
	Base   *zap.Logger
	Sugar  *zap.SugaredLogger
	Level  zap.AtomicLevel
	Closer func()
}

// Init builds the logger from LOG_LEVEL and ENV. Unknown levels fall
// back to info rather than failing startup.
func Init(level, env string) (*Log, error) {
	lvl := parseLevel(level)

	cfg := zap.NewDevelopmentConfig()
	if strings.EqualFold(env, "prod") {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = lvl
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	base, err := cfg.Build(zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		return nil, err
	}
	base = base.With(zap.String("service", "poin-api"))

	return &Log{
		Base:   base,
		Sugar:  base.Sugar(),
		Level:  lvl,
		Closer: func() { _ = base.Sync() },
	}, nil
}

func parseLevel(level string) zap.AtomicLevel {
	lvl := zap.NewAtomicLevel()
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return lvl
}
