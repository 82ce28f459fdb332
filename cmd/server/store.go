package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jakekang28/GenAIHCI-sub001/internal/config"
	"github.com/jakekang28/GenAIHCI-sub001/migrations"
	"github.com/jakekang28/GenAIHCI-sub001/room"
	"github.com/jakekang28/GenAIHCI-sub001/sessions"
	"github.com/jakekang28/GenAIHCI-sub001/storage"
)

// store is what both the room hub and the session API need from a backend.
type store interface {
	room.SessionStore
	sessions.Repo
	Close() error
}

func openStore(ctx context.Context, c config.StoreConfig) (store, error) {
	switch c.Driver {
	case "postgres":
		if c.AutoMigrate {
			if err := migrations.Migrate(c.PostgresURL); err != nil {
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		repo, err := storage.NewPostgresRepo(ctx, c.PostgresURL)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case "sqlite":
		log.Info().Str("path", c.SQLitePath).Msg("using sqlite store")
		repo, err := storage.NewSQLiteRepo(c.SQLitePath)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", c.Driver)
	}
}
