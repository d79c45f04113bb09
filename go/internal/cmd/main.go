package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mcdev12/luckydraw/go/internal/config"
	"github.com/mcdev12/luckydraw/go/internal/dbconfig"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogging(cfg)

	dbCfg := dbconfig.NewConfigFromEnv()
	if err := dbCfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid database config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := setupRepository(ctx, dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up storage")
	}
	defer closeRepo()

	services, err := setupServices(ctx, cfg, dbCfg, repo)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up services")
	}
	defer services.Close()

	server := setupServer(cfg, services)

	services.Start(ctx)

	go func() {
		log.Info().Str("addr", server.Addr).Str("storage", string(dbCfg.Driver)).Msg("lucky draw server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("lucky draw server stopped")
}
