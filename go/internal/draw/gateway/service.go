package gateway

import (
	"context"
	"net/http"

	"github.com/mcdev12/luckydraw/go/internal/draw/events"
	"github.com/rs/zerolog/log"
)

// Service ties the connection manager, the WebSocket routes and, for the
// standalone binary, the JetStream consumer together
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	eventConsumer     *EventConsumer
}

// Config holds configuration for the gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
	JetStreamConfig  JetStreamConsumerConfig
}

// DefaultConfig returns default configuration for the gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		JetStreamConfig:  DefaultJetStreamConsumerConfig(),
	}
}

// NewService creates an in-process gateway. Events arrive through Publish.
func NewService(config ConnectionConfig, stateProvider StateProvider) *Service {
	cm := NewConnectionManager(config)
	return &Service{
		connectionManager: cm,
		wsHandler:         NewWebSocketHandler(cm, stateProvider),
	}
}

// NewConsumerService creates a gateway fed from the JetStream stream
func NewConsumerService(ctx context.Context, config Config, stateProvider StateProvider) (*Service, error) {
	s := NewService(config.ConnectionConfig, stateProvider)
	consumer, err := NewEventConsumer(ctx, s.connectionManager, config.JetStreamConfig)
	if err != nil {
		return nil, err
	}
	s.eventConsumer = consumer
	return s, nil
}

// Start runs the gateway until ctx is cancelled
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting draw gateway service")

	go s.connectionManager.Start(ctx)

	if s.eventConsumer != nil {
		go func() {
			if err := s.eventConsumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("event consumer failed")
			}
		}()
	}

	<-ctx.Done()

	log.Info().Msg("draw gateway service shutting down")
	return s.Stop()
}

// Stop shuts down the event consumer, if any
func (s *Service) Stop() error {
	if s.eventConsumer != nil {
		if err := s.eventConsumer.Stop(); err != nil {
			log.Error().Err(err).Msg("failed to stop event consumer")
		}
	}
	log.Info().Msg("draw gateway service stopped")
	return nil
}

// Publish implements publisher.EventPublisher
func (s *Service) Publish(ctx context.Context, env *events.Envelope) error {
	return s.connectionManager.Publish(ctx, env)
}

// RegisterRoutes registers the WebSocket HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	log.Info().Msg("draw gateway routes registered")
}

// Stats returns statistics about open connections
func (s *Service) Stats() ConnectionStats {
	return s.connectionManager.GetConnectionStats()
}
