// Package service holds the business rules between the HTTP handlers and the
// repositories: seat locking, booking state transitions, group allocation and
// fare calculation.
package service

import (
	"context"
	"log/slog"

	"skylark/internal/cache"
	"skylark/internal/lock"
	"skylark/internal/models"
	"skylark/internal/repository"
	"skylark/internal/search"
)

// Narrow store interfaces for the booking engine. The repositories satisfy
// them in production; tests substitute in-memory fakes so the concurrency
// properties can be exercised without a database.

type SeatStore interface {
	GetByID(ctx context.Context, id string) (*models.Seat, error)
	AvailableByClass(ctx context.Context, flightID int64, class string) ([]models.Seat, error)
	CountByFlight(ctx context.Context, flightID int64) (total int, booked int, err error)
	OrphanedForUser(ctx context.Context, userID int64) ([]models.Seat, error)
}

type BookingStore interface {
	CreateWithSeat(ctx context.Context, booking *models.Booking) error
	CreateGroup(ctx context.Context, userID, flightID int64, seatIDs []string, farePerSeat int64) ([]models.Booking, error)
	GetByID(ctx context.Context, id int64) (*models.Booking, error)
	DeleteWithSeatRelease(ctx context.Context, id int64) (seatID string, userID int64, err error)
	ListByUser(ctx context.Context, userID int64) ([]models.Booking, error)
}

type FlightStore interface {
	GetByID(ctx context.Context, id int64) (*models.Flight, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type FareStore interface {
	GetByID(ctx context.Context, id int64) (*models.Fare, error)
}

// Publisher abstracts the NATS client for event emission.
type Publisher interface {
	Publish(subject string, data interface{}) error
}

type Services struct {
	Users    *UserService
	Flights  *FlightService
	Fares    *FareService
	Seats    *SeatService
	Bookings *BookingService
}

func NewServices(
	repos *repository.Repositories,
	locks *lock.Table,
	events Publisher,
	es *search.ElasticsearchClient,
	valkey *cache.ValkeyClient,
) *Services {
	return &Services{
		Users:    NewUserService(repos.Users, valkey),
		Flights:  NewFlightService(repos.Flights, repos.Seats, repos.Fares, es, events),
		Fares:    NewFareService(repos.Flights, repos.Fares),
		Seats:    NewSeatService(repos.Seats, repos.Flights),
		Bookings: NewBookingService(repos.Seats, repos.Bookings, repos.Flights, repos.Users, repos.Fares, locks, events),
	}
}

// publish sends an event without failing the calling operation; event
// delivery is best effort, the database remains the source of truth.
func publish(events Publisher, subject string, data interface{}) {
	if events == nil {
		return
	}
	if err := events.Publish(subject, data); err != nil {
		slog.Warn("Failed to publish event", "subject", subject, "error", err)
	}
}
