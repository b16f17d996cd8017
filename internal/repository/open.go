package repository

import (
	"context"
	"fmt"

	"photo-social-backend/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Open connects the document store selected by cfg.Driver
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := pgxpool.New(ctx, cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Ping(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		store := NewPostgresStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		log.Info().Str("driver", cfg.Driver).Str("host", cfg.Host).Msg("Document store connected")
		return store, nil

	case config.DriverMongo:
		store, err := NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		log.Info().Str("driver", cfg.Driver).Str("database", cfg.MongoDatabase).Msg("Document store connected")
		return store, nil

	case config.DriverFirestore:
		store, err := NewFirestoreStore(ctx, cfg.FirestoreProject)
		if err != nil {
			return nil, err
		}
		log.Info().Str("driver", cfg.Driver).Str("project", cfg.FirestoreProject).Msg("Document store connected")
		return store, nil

	case config.DriverMemory:
		log.Warn().Msg("Using in-memory document store; data is lost on restart")
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}
