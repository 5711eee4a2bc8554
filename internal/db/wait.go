package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Checker returns nil once the database accepts connections.
type Checker func(ctx context.Context) error

func PostgresChecker(dsn string) Checker {
	return func(ctx context.Context) error {
		conn, err := pgx.Connect(ctx, dsn)
		if err != nil {
			return errors.Wrap(err, "connect")
		}
		defer conn.Close(ctx)

		return errors.Wrap(conn.Ping(ctx), "ping")
	}
}

// WaitForDB runs check every tick until it passes or ctx is done. It
// returns the number of checks made.
func WaitForDB(ctx context.Context, check Checker, tick time.Duration, l *zap.SugaredLogger) (int, error) {
	l.Info("waiting for database")

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	attempts := 0
	for {
		attempts++
		err := check(ctx)
		if err == nil {
			l.Infow("database available", "attempts", attempts)
			return attempts, nil
		}
		l.Warnw("database unavailable", "attempt", attempts, "error", err, "retry_in", tick)

		select {
		case <-ctx.Done():
			return attempts, errors.Wrap(ctx.Err(), "database never became available")
		case <-ticker.C:
		}
	}
}
