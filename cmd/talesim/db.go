package main

import (
	"context"
	"strings"

	"talesim/internal/config"
	"talesim/internal/store"
	"talesim/internal/store/sqlite"
)

// openIndex opens the chronicle index at dsn, defaulting to the config's
// index. A relative database path resolves against the config directory.
func (a *app) openIndex(ctx context.Context, dsn string) (store.Store, error) {
	if dsn == "" {
		dsn = a.cfg.Chronicle.Index
	}
	if dsn == "" {
		dsn = config.DefaultIndex
	}
	if path, ok := strings.CutPrefix(dsn, "sqlite://"); ok && !strings.HasPrefix(path, ":memory:") {
		dsn = "sqlite://" + a.cfg.Resolve(path)
	}

	db, err := sqlite.New(ctx, dsn, a.logger)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close(ctx)
		return nil, err
	}
	return db, nil
}
