// Package consumers runs the event-driven side of the system: it keeps the
// Elasticsearch flight projection in sync and writes an audit trail for
// booking activity.
package consumers

import (
	"log/slog"

	"github.com/nats-io/stan.go"

	"skylark/internal/config"
	"skylark/internal/database"
	"skylark/internal/messaging"
	"skylark/internal/models"
	"skylark/internal/repository"
	"skylark/internal/search"
)

// queueGroup load-balances events across consumer instances.
const queueGroup = "consumers"

type Service struct {
	db      *database.DB
	nats    *messaging.NATSClient
	es      *search.ElasticsearchClient
	flights *repository.FlightRepository

	subs []stan.Subscription
}

func NewService(cfg *config.Config) (*Service, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		return nil, err
	}

	esClient, err := search.NewElasticsearchClient(cfg.Elasticsearch)
	if err != nil {
		return nil, err
	}

	return &Service{
		db:      db,
		nats:    natsClient,
		es:      esClient,
		flights: repository.NewFlightRepository(db),
	}, nil
}

// Start subscribes to every subject the consumers handle. Subscriptions are
// durable, so events published while the consumer was down are replayed.
func (s *Service) Start() error {
	subscriptions := []struct {
		subject string
		handler stan.MsgHandler
	}{
		{models.EventFlightCreated, s.handleFlightCreated},
		{models.EventFlightStatusChanged, s.handleFlightStatusChanged},
		{models.EventSeatLocked, s.auditHandler("seat locked")},
		{models.EventBookingConfirmed, s.auditHandler("booking confirmed")},
		{models.EventBookingCancelled, s.auditHandler("booking cancelled")},
		{models.EventGroupBookingConfirmed, s.auditHandler("group booking confirmed")},
	}

	for _, sub := range subscriptions {
		subscription, err := s.nats.SubscribeQueue(sub.subject, queueGroup, sub.handler)
		if err != nil {
			return err
		}
		s.subs = append(s.subs, subscription)
	}

	slog.Info("Consumers started", "subscriptions", len(s.subs))
	return nil
}

func (s *Service) Stop() {
	for _, sub := range s.subs {
		if err := sub.Close(); err != nil {
			slog.Error("Failed to close subscription", "error", err)
		}
	}
	if err := s.nats.Close(); err != nil {
		slog.Error("Failed to close NATS connection", "error", err)
	}
	if err := s.db.Close(); err != nil {
		slog.Error("Failed to close database connection", "error", err)
	}
	slog.Info("Consumers stopped")
}
