package consumers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/stan.go"

	"skylark/internal/models"
	"skylark/internal/search"
)

const handlerTimeout = 10 * time.Second

// handleFlightCreated loads the flight from the database and indexes it into
// Elasticsearch. The message stays unacked on failure so it redelivers.
func (s *Service) handleFlightCreated(msg *stan.Msg) {
	var event models.FlightCreatedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		slog.Error("Failed to decode flight created event", "error", err)
		ack(msg)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	flight, err := s.flights.GetByID(ctx, event.FlightID)
	if err != nil {
		slog.Error("Failed to load flight for indexing", "flightId", event.FlightID, "error", err)
		return
	}
	if flight == nil {
		slog.Warn("Flight created event for unknown flight", "flightId", event.FlightID)
		ack(msg)
		return
	}

	doc := search.FlightDocument{
		ID:          flight.ID,
		Origin:      flight.Origin,
		Destination: flight.Destination,
		Departure:   flight.Departure,
		Arrival:     flight.Arrival,
		Status:      flight.Status,
	}
	if err := s.es.IndexFlight(ctx, doc); err != nil {
		slog.Error("Failed to index flight", "flightId", flight.ID, "error", err)
		return
	}

	slog.Info("Indexed flight", "flightId", flight.ID)
	ack(msg)
}

func (s *Service) handleFlightStatusChanged(msg *stan.Msg) {
	var event models.FlightStatusChangedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		slog.Error("Failed to decode flight status event", "error", err)
		ack(msg)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if err := s.es.UpdateFlightStatus(ctx, event.FlightID, event.Status); err != nil {
		slog.Error("Failed to update flight status in index",
			"flightId", event.FlightID, "status", event.Status, "error", err)
		return
	}

	slog.Info("Updated flight status in index", "flightId", event.FlightID, "status", event.Status)
	ack(msg)
}

// auditHandler logs booking activity events as a lightweight audit trail.
func (s *Service) auditHandler(action string) stan.MsgHandler {
	return func(msg *stan.Msg) {
		slog.Info("Audit: "+action, "subject", msg.Subject, "payload", string(msg.Data))
		ack(msg)
	}
}

func ack(msg *stan.Msg) {
	if err := msg.Ack(); err != nil {
		slog.Error("Failed to ack message", "subject", msg.Subject, "error", err)
	}
}
