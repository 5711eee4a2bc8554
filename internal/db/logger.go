package db

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm/logger"
)

type zapWriter struct {
	l     *zap.SugaredLogger
	trace bool
}

func (w zapWriter) Printf(format string, args ...interface{}) {
	if w.trace {
		w.l.Debugf(format, args...)
		return
	}
	w.l.Warnf(format, args...)
}

// NewGormLogger routes gorm's SQL trace through zap. SQL is only traced
// when the zap logger runs at debug level; slow queries and errors always
// are.
func NewGormLogger(l *zap.SugaredLogger) logger.Interface {
	trace := l.Desugar().Core().Enabled(zapcore.DebugLevel)
	level := logger.Warn
	if trace {
		level = logger.Info
	}

	return logger.New(zapWriter{l: l.Named("gorm"), trace: trace}, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		Colorful:                  false,
		IgnoreRecordNotFoundError: true,
	})
}
