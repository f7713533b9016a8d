package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/at-ishikawa/revise/internal/config"
	"github.com/at-ishikawa/revise/internal/database"
	"github.com/at-ishikawa/revise/internal/fsrs"
	"github.com/at-ishikawa/revise/internal/scheduling"
	"github.com/at-ishikawa/revise/internal/store"
)

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}
	return loader.Load()
}

// workspace is what a command needs to work on entities of one kind.
type workspace struct {
	db        *sqlx.DB
	store     store.Store
	algorithm scheduling.Algorithm
}

func (w *workspace) Close() {
	_ = w.db.Close()
}

func openDatabase(ctx context.Context) (*config.Config, *sqlx.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("database.Open() > %w", err)
	}
	if err := store.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("store.Migrate() > %w", err)
	}
	return cfg, db, nil
}

func openWorkspace(ctx context.Context, kind store.Kind) (*workspace, error) {
	cfg, db, err := openDatabase(ctx)
	if err != nil {
		return nil, err
	}

	model, err := fsrs.NewDefault(cfg.Scheduler.MaximumInterval)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("fsrs.NewDefault() > %w", err)
	}
	algorithm, err := scheduling.ForKind(kind, model, cfg.Scheduler.DesiredRetention)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("scheduling.ForKind() > %w", err)
	}

	return &workspace{
		db:        db,
		store:     store.NewDBStore(db, kind),
		algorithm: algorithm,
	}, nil
}

func parseID(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", value)
	}
	return id, nil
}
