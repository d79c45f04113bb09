package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mcdev12/luckydraw/go/internal/config"
	"github.com/mcdev12/luckydraw/go/internal/draw/gateway"
	"github.com/mcdev12/luckydraw/go/internal/draw/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	zerolog.SetGlobalLevel(cfg.Level())

	log.Info().
		Str("nats_url", cfg.NATS.URL).
		Str("draw_service", cfg.DrawServiceURL).
		Str("port", cfg.GatewayPort).
		Msg("starting draw gateway")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gatewayConfig := gateway.DefaultConfig()
	gatewayConfig.JetStreamConfig.Stream.URL = cfg.NATS.URL
	gatewayConfig.JetStreamConfig.Stream.StreamName = cfg.NATS.Stream
	gatewayConfig.JetStreamConfig.Stream.SubjectPrefix = cfg.NATS.SubjectPrefix

	// snapshots come from the draw service over Connect
	stateProvider := session.NewClient(&http.Client{Timeout: 5 * time.Second}, cfg.DrawServiceURL)

	gatewayService, err := gateway.NewConsumerService(ctx, gatewayConfig, stateProvider)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create gateway service")
	}

	mux := http.NewServeMux()
	gatewayService.RegisterRoutes(mux)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"service":     "draw-gateway",
			"connections": gatewayService.Stats().TotalConnections,
		})
	})

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.GatewayPort),
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		if err := gatewayService.Start(ctx); err != nil {
			log.Error().Err(err).Msg("gateway service failed")
		}
	}()

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
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

	log.Info().Msg("draw gateway shutdown complete")
}
