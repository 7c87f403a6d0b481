package service

import (
	"context"
	"time"

	apperrors "skylark/internal/errors"
	"skylark/internal/models"
	"skylark/internal/repository"
	"skylark/internal/search"
)

const defaultSeatsPerRow = 6

// maxSeatsPerRow keeps seat labels within A..Z.
const maxSeatsPerRow = 26

type FlightService struct {
	flights *repository.FlightRepository
	seats   *repository.SeatRepository
	fares   *repository.FareRepository
	search  *search.ElasticsearchClient
	events  Publisher
}

func NewFlightService(
	flights *repository.FlightRepository,
	seats *repository.SeatRepository,
	fares *repository.FareRepository,
	es *search.ElasticsearchClient,
	events Publisher,
) *FlightService {
	return &FlightService{
		flights: flights,
		seats:   seats,
		fares:   fares,
		search:  es,
		events:  events,
	}
}

// Create registers a flight and bulk-creates its seat map from the cabin
// layout in the request.
func (s *FlightService) Create(ctx context.Context, req models.CreateFlightRequest) (*models.Flight, error) {
	if !req.Arrival.After(req.Departure) {
		return nil, apperrors.InvalidInputf("arrival must be after departure")
	}

	seatsPerRow := req.SeatsPerRow
	if seatsPerRow == 0 {
		seatsPerRow = defaultSeatsPerRow
	}
	if seatsPerRow < 1 || seatsPerRow > maxSeatsPerRow {
		return nil, apperrors.InvalidInputf("seatsPerRow must be between 1 and %d, got %d", maxSeatsPerRow, seatsPerRow)
	}
	if req.FirstRows < 0 || req.BusinessRows < 0 {
		return nil, apperrors.InvalidInputf("row counts must not be negative")
	}

	if req.FareID != nil {
		fareRow, err := s.fares.GetByID(ctx, *req.FareID)
		if err != nil {
			return nil, err
		}
		if fareRow == nil {
			return nil, apperrors.NotFoundf("fare %d", *req.FareID)
		}
	}

	flight := &models.Flight{
		Origin:      req.Origin,
		Destination: req.Destination,
		Departure:   req.Departure,
		Arrival:     req.Arrival,
		Status:      models.FlightOnTime,
		FareID:      req.FareID,
	}
	if err := s.flights.Create(ctx, flight); err != nil {
		return nil, err
	}

	layout := repository.CabinLayout{
		FirstRows:    req.FirstRows,
		BusinessRows: req.BusinessRows,
		EconomyRows:  req.EconomyRows,
		SeatsPerRow:  seatsPerRow,
	}
	if err := s.seats.CreateForFlight(ctx, flight.ID, layout); err != nil {
		return nil, err
	}
	flight.TotalSeats = (req.FirstRows + req.BusinessRows + req.EconomyRows) * seatsPerRow

	publish(s.events, models.EventFlightCreated, models.FlightCreatedEvent{
		FlightID:  flight.ID,
		Timestamp: time.Now(),
	})

	return flight, nil
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*models.Flight, error) {
	flight, err := s.flights.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if flight == nil {
		return nil, apperrors.NotFoundf("flight %d", id)
	}
	return flight, nil
}

func (s *FlightService) List(ctx context.Context, origin, destination string, page, pageSize int) ([]models.Flight, error) {
	flights, err := s.flights.List(ctx, origin, destination, page, pageSize)
	if err != nil {
		return nil, err
	}
	if flights == nil {
		flights = []models.Flight{}
	}
	return flights, nil
}

// Search queries the Elasticsearch projection kept in sync by the event
// consumers.
func (s *FlightService) Search(ctx context.Context, origin, destination, date string) ([]search.FlightDocument, error) {
	if s.search == nil {
		return nil, apperrors.Internalf("flight search is not available")
	}
	return s.search.SearchFlights(ctx, origin, destination, date)
}

func (s *FlightService) UpdateStatus(ctx context.Context, id int64, status string) error {
	if !models.ValidFlightStatus(status) {
		return apperrors.InvalidInputf("unknown flight status %q", status)
	}

	if err := s.flights.UpdateStatus(ctx, id, status); err != nil {
		return err
	}

	publish(s.events, models.EventFlightStatusChanged, models.FlightStatusChangedEvent{
		FlightID:  id,
		Status:    status,
		Timestamp: time.Now(),
	})
	return nil
}
