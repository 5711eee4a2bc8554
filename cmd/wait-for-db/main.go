// Command wait-for-db blocks until the configured Postgres accepts
// connections or DB_WAIT_TIMEOUT passes.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Rogue-Bear-Innovations/recipes-back/internal/config"
	"github.com/Rogue-Bear-Innovations/recipes-back/internal/db"
	"github.com/Rogue-Bear-Innovations/recipes-back/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	l, err := logger.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	if cfg.DBDriver == config.DriverSQLite {
		l.Infow("nothing to wait for", "driver", cfg.DBDriver)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DBWait)
	defer cancel()

	_, err = db.WaitForDB(ctx, db.PostgresChecker(cfg.PostgresDSN()), cfg.DBWaitTick, l)
	return err
}
