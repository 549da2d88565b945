package main

import (
	"context"

	"github.com/wardenlabs/realm-tracker/internal/config"
	"github.com/wardenlabs/realm-tracker/internal/store"
)

// openStore validates config and connects to Postgres. Callers own Close.
func openStore(ctx context.Context) (*store.PostgresStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return store.NewPostgres(ctx, cfg.Store)
}

// loadTunables reads the optional tunables file. A missing file yields
// empty tunables, not an error.
func loadTunables() (*config.Tunables, error) {
	return config.LoadTunables(cfg.Tracker.TunablesFile)
}
