package service

import (
	"context"

	apperrors "skylark/internal/errors"
	"skylark/internal/fare"
	"skylark/internal/metrics"
	"skylark/internal/models"
	"skylark/internal/repository"
)

type FareService struct {
	flights *repository.FlightRepository
	fares   *repository.FareRepository
}

func NewFareService(flights *repository.FlightRepository, fares *repository.FareRepository) *FareService {
	return &FareService{flights: flights, fares: fares}
}

// Create stores a fare table and attaches it to the flight in the request.
func (s *FareService) Create(ctx context.Context, req models.CreateFareRequest) (*models.Fare, error) {
	flight, err := s.flights.GetByID(ctx, req.FlightID)
	if err != nil {
		return nil, err
	}
	if flight == nil {
		return nil, apperrors.NotFoundf("flight %d", req.FlightID)
	}

	fareRow := &models.Fare{
		Economy:  req.Economy,
		Business: req.Business,
		First:    req.First,
	}
	if err := s.fares.Create(ctx, fareRow); err != nil {
		return nil, err
	}
	if err := s.fares.AttachToFlight(ctx, fareRow.ID, req.FlightID); err != nil {
		return nil, err
	}

	return fareRow, nil
}

// CalculateQuote prices a hypothetical booking: the base fare comes from the
// flight's fare table, occupancy and timing come from the request so clients
// can quote scenarios.
func (s *FareService) CalculateQuote(ctx context.Context, req models.CalculateFareRequest) (*fare.Result, error) {
	if !models.ValidSeatClass(req.SeatClass) {
		return nil, apperrors.InvalidInputf("unknown seat class %q", req.SeatClass)
	}

	flight, err := s.flights.GetByID(ctx, req.FlightID)
	if err != nil {
		return nil, err
	}
	if flight == nil {
		return nil, apperrors.NotFoundf("flight %d", req.FlightID)
	}
	if flight.FareID == nil {
		return nil, apperrors.NotFoundf("fare for flight %d", req.FlightID)
	}

	fareRow, err := s.fares.GetByID(ctx, *flight.FareID)
	if err != nil {
		return nil, err
	}
	if fareRow == nil {
		return nil, apperrors.NotFoundf("fare %d", *flight.FareID)
	}

	base, ok := fareRow.BaseFor(req.SeatClass)
	if !ok {
		return nil, apperrors.InvalidInputf("unknown seat class %q", req.SeatClass)
	}

	result, err := fare.Calculate(fare.Input{
		BaseFare:               float64(base),
		IsWindow:               req.IsWindow,
		PassengerAge:           req.PassengerAge,
		BookedSeats:            req.BookedSeats,
		TotalSeats:             req.TotalSeats,
		MinutesBeforeDeparture: req.MinutesBeforeDeparture,
	})
	if err != nil {
		return nil, err
	}

	metrics.FareQuotesTotal.Inc()
	return &result, nil
}
