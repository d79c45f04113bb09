package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/mcdev12/luckydraw/go/internal/dbconfig"
	"github.com/mcdev12/luckydraw/go/internal/draw/repository"
	"github.com/mcdev12/luckydraw/go/internal/draw/session"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// setupRepository opens the configured storage and returns it with its closer
func setupRepository(ctx context.Context, cfg dbconfig.Config) (session.Repository, func(), error) {
	if cfg.Driver == dbconfig.DriverMemory {
		log.Warn().Msg("using in-memory session storage; sessions are lost on restart")
		return repository.NewMemoryRepository(), func() {}, nil
	}

	db, dialect, err := setupDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	repo := repository.NewSQLRepository(db, dialect)
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	closer := func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}
	return repo, closer, nil
}

func setupDatabase(ctx context.Context, cfg dbconfig.Config) (*sql.DB, repository.Dialect, error) {
	dialect, err := repository.DialectFor(string(cfg.Driver))
	if err != nil {
		return nil, repository.Dialect{}, err
	}

	database, err := sql.Open(dialect.Name, cfg.DSN())
	if err != nil {
		return nil, repository.Dialect{}, fmt.Errorf("failed to create database connection: %w", err)
	}
	if cfg.Driver == dbconfig.DriverSQLite {
		// one writer at a time avoids SQLITE_BUSY
		database.SetMaxOpenConns(1)
	}

	if err := database.PingContext(ctx); err != nil {
		database.Close()
		return nil, repository.Dialect{}, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.Driver == dbconfig.DriverSQLite {
		log.Info().Str("path", cfg.SQLitePath).Msg("connected to sqlite database")
	} else {
		log.Info().
			Str("host", cfg.Host).
			Int("port", cfg.Port).
			Str("database", cfg.Database).
			Msg("connected to postgres database")
	}
	return database, dialect, nil
}
