package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/mcdev12/luckydraw/go/internal/dbconfig"
	"github.com/mcdev12/luckydraw/go/internal/draw/repository"
)

func main() {
	_ = godotenv.Load()

	cfg := dbconfig.NewConfigFromEnv()
	if cfg.Driver != dbconfig.DriverPostgres {
		fmt.Fprintf(os.Stderr, "migrate only targets postgres (DB_DRIVER=%s)\n", cfg.Driver)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, repository.Postgres.Schema); err != nil {
		fmt.Fprintf(os.Stderr, "apply schema: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Schema applied to %s@%s:%d/%s\n", cfg.User, cfg.Host, cfg.Port, cfg.Database)
}
