package logger

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Rogue-Bear-Innovations/recipes-back/internal/config"
)

var Module = fx.Provide(NewLogger)

func NewLogger(lc fx.Lifecycle, cfg *config.Config) (*zap.SugaredLogger, error) {
	l, err := build(cfg)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			// stdout/stderr sinks return EINVAL on sync under some terminals
			_ = l.Sync()
			return nil
		},
	})

	return l.Sugar(), nil
}

// New builds a logger outside of an fx app; the caller syncs it.
func New(cfg *config.Config) (*zap.SugaredLogger, error) {
	l, err := build(cfg)
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

func build(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, errors.Wrap(err, "parse log level")
	}

	zc := zap.NewProductionConfig()
	if cfg.LogDevelopment {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	l, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build zap logger")
	}
	return l, nil
}
