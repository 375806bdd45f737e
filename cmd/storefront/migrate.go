package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/target/storefront-go/config"
	"github.com/target/storefront-go/internal/bootstrap"
)

const defaultMigrationTimeout = 2 * time.Minute

func runMigrate(cc *commandContext, args []string) error {
	fs := newFlagSet(cc, "migrate")
	timeout := fs.Duration("timeout", defaultMigrationTimeout, "maximum time for the migration run")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if cc.Config.Storage.Backend != config.StoragePostgres {
		return fmt.Errorf("migrate needs STORAGE_BACKEND=postgres, got %q", cc.Config.Storage.Backend)
	}

	ctx, cancel := context.WithTimeout(cc.Ctx, *timeout)
	defer cancel()

	db, err := bootstrap.OpenPostgres(ctx, cc.Config.Postgres, cc.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cc.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	applied, err := bootstrap.RunMigrations(ctx, db, cc.Logger)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("migrations timed out after %s: %w", *timeout, err)
		}
		return err
	}
	if len(applied) == 0 {
		return writeln(cc.Out, "Schema is up to date")
	}
	for _, v := range applied {
		if err := writef(cc.Out, "applied %s\n", v); err != nil {
			return err
		}
	}
	return nil
}
