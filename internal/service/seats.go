package service

import (
	"context"

	apperrors "skylark/internal/errors"
	"skylark/internal/models"
	"skylark/internal/repository"
)

type SeatService struct {
	seats   *repository.SeatRepository
	flights *repository.FlightRepository
}

func NewSeatService(seats *repository.SeatRepository, flights *repository.FlightRepository) *SeatService {
	return &SeatService{seats: seats, flights: flights}
}

// ListByFlight returns the seat map for a flight with optional class and
// availability filters.
func (s *SeatService) ListByFlight(ctx context.Context, flightID int64, class *string, isBooked *bool, page, pageSize int) ([]models.ListSeatsResponseItem, error) {
	if class != nil && !models.ValidSeatClass(*class) {
		return nil, apperrors.InvalidInputf("unknown seat class %q", *class)
	}

	flight, err := s.flights.GetByID(ctx, flightID)
	if err != nil {
		return nil, err
	}
	if flight == nil {
		return nil, apperrors.NotFoundf("flight %d", flightID)
	}

	seats, err := s.seats.ListByFlight(ctx, flightID, class, isBooked, page, pageSize)
	if err != nil {
		return nil, err
	}

	items := make([]models.ListSeatsResponseItem, 0, len(seats))
	for _, seat := range seats {
		items = append(items, models.ListSeatsResponseItem{
			ID:       seat.ID,
			Label:    seat.Label(),
			Class:    seat.Class,
			IsBooked: seat.IsBooked,
		})
	}
	return items, nil
}
