package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/luckydraw/go/internal/config"
	"github.com/mcdev12/luckydraw/go/internal/dbconfig"
	"github.com/mcdev12/luckydraw/go/internal/draw/engine"
	"github.com/mcdev12/luckydraw/go/internal/draw/frame"
	"github.com/mcdev12/luckydraw/go/internal/draw/gateway"
	"github.com/mcdev12/luckydraw/go/internal/draw/outbox"
	"github.com/mcdev12/luckydraw/go/internal/draw/publisher"
	"github.com/mcdev12/luckydraw/go/internal/draw/repository"
	"github.com/mcdev12/luckydraw/go/internal/draw/session"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Draw    *session.Service
	Frames  *frame.Handler
	Gateway *gateway.Service
	Sweeper *session.Sweeper

	// Outbox relays recorded events to NATS; Listener wakes it on postgres.
	Outbox   *outbox.Worker
	Listener *outbox.Listener

	jetStream *publisher.JetStreamPublisher
}

func setupServices(ctx context.Context, cfg *config.Config, dbCfg dbconfig.Config, repo session.Repository) (*Services, error) {
	// Repository → App → Service, with the gateway and the bus as event sinks.
	// With SQL storage the bus is fed from the outbox instead of live.

	gw := gateway.NewService(gateway.DefaultConnectionConfig(), repo)

	sinks := publisher.NewMultiPublisher(
		publisher.NewLogPublisher(log.Logger),
		gw,
	)

	clock := clockwork.NewRealClock()
	svc := &Services{Gateway: gw}

	var js *publisher.JetStreamPublisher
	if cfg.NATS.Enabled {
		jsCfg := publisher.DefaultJetStreamConfig()
		jsCfg.URL = cfg.NATS.URL
		jsCfg.StreamName = cfg.NATS.Stream
		jsCfg.SubjectPrefix = cfg.NATS.SubjectPrefix

		var err error
		js, err = publisher.NewJetStreamPublisher(ctx, jsCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create JetStream publisher: %w", err)
		}
		svc.jetStream = js
		log.Info().Str("url", jsCfg.URL).Str("stream", jsCfg.StreamName).Msg("publishing draw events to JetStream")

		if sqlRepo, ok := repo.(*repository.SQLRepository); ok {
			if err := setupOutbox(svc, cfg, dbCfg, sqlRepo, js, clock); err != nil {
				js.Close()
				return nil, err
			}
		} else {
			sinks.Add(js)
		}
	}

	opts := []session.Option{
		session.WithClock(clock),
		session.WithPublisher(sinks),
	}
	if svc.Outbox != nil {
		opts = append(opts, session.WithEventLog(repo.(session.EventLog)))
	}
	app := session.NewApp(repo, engine.New(), session.Config{TTL: cfg.Sessions.TTL}, opts...)

	if cfg.Sessions.TTL > 0 {
		svc.Sweeper = session.NewSweeper(app, clock, cfg.Sessions.SweepInterval)
	}

	svc.Draw = session.NewService(app)
	svc.Frames = frame.NewHandler(app)
	return svc, nil
}

func setupOutbox(svc *Services, cfg *config.Config, dbCfg dbconfig.Config, src outbox.Source, pub outbox.Publisher, clock clockwork.Clock) error {
	outboxCfg := outbox.DefaultConfig()
	outboxCfg.PollInterval = cfg.Outbox.PollInterval
	outboxCfg.BatchSize = cfg.Outbox.BatchSize
	outboxCfg.Retention = cfg.Outbox.Retention
	svc.Outbox = outbox.NewWorker(src, pub, clock, outboxCfg)

	if dbCfg.Driver != dbconfig.DriverPostgres {
		return nil
	}
	listener, err := outbox.NewListener(svc.Outbox, outbox.ListenerConfig{
		DatabaseURL:   dbCfg.DSN(),
		NotifyChannel: repository.OutboxChannel,
		PingInterval:  90 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to create outbox listener: %w", err)
	}
	svc.Listener = listener
	return nil
}

// Start runs the background workers until ctx is cancelled
func (s *Services) Start(ctx context.Context) {
	go func() {
		if err := s.Gateway.Start(ctx); err != nil {
			log.Error().Err(err).Msg("gateway failed")
		}
	}()
	if s.Sweeper != nil {
		go s.Sweeper.Run(ctx)
	}
	if s.Outbox != nil {
		go s.Outbox.Run(ctx)
	}
	if s.Listener != nil {
		go func() {
			if err := s.Listener.Run(ctx); err != nil {
				log.Error().Err(err).Msg("outbox listener failed")
			}
		}()
	}
}

// Close releases connections held by the services
func (s *Services) Close() {
	if s.jetStream != nil {
		if err := s.jetStream.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close JetStream publisher")
		}
	}
}
