package service

import (
	"context"
	"time"

	apperrors "skylark/internal/errors"
	"skylark/internal/fare"
	"skylark/internal/lock"
	"skylark/internal/metrics"
	"skylark/internal/models"
)

type BookingService struct {
	seats    SeatStore
	bookings BookingStore
	flights  FlightStore
	users    UserStore
	fares    FareStore
	locks    *lock.Table
	events   Publisher
}

func NewBookingService(
	seats SeatStore,
	bookings BookingStore,
	flights FlightStore,
	users UserStore,
	fares FareStore,
	locks *lock.Table,
	events Publisher,
) *BookingService {
	return &BookingService{
		seats:    seats,
		bookings: bookings,
		flights:  flights,
		users:    users,
		fares:    fares,
		locks:    locks,
		events:   events,
	}
}

// LockSeat grants the user a TTL-bound hold on a seat while they check out.
// The hold lives in process memory only; confirmation against the database
// is what makes a booking durable.
func (s *BookingService) LockSeat(ctx context.Context, req models.LockSeatRequest) (*models.LockSeatResponse, error) {
	user, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NotFoundf("user %d", req.UserID)
	}

	seat, err := s.seats.GetByID(ctx, req.SeatID)
	if err != nil {
		return nil, err
	}
	if seat == nil {
		return nil, apperrors.NotFoundf("seat %s", req.SeatID)
	}
	if seat.IsBooked {
		return nil, apperrors.Conflictf("seat %s is already booked", req.SeatID)
	}

	flight, err := s.flights.GetByID(ctx, seat.FlightID)
	if err != nil {
		return nil, err
	}
	if flight == nil {
		return nil, apperrors.NotFoundf("flight %d", seat.FlightID)
	}
	if flight.Status == models.FlightCancelled {
		return nil, apperrors.Conflictf("flight %d is cancelled", flight.ID)
	}

	if !s.locks.Acquire(req.SeatID, req.UserID) {
		metrics.SeatLockConflicts.Inc()
		return nil, apperrors.Conflictf("seat %s is locked by another user", req.SeatID)
	}
	metrics.SeatLocksAcquired.Inc()

	publish(s.events, models.EventSeatLocked, models.SeatLockedEvent{
		SeatID:     req.SeatID,
		UserID:     req.UserID,
		FlightID:   flight.ID,
		TTLSeconds: s.locks.TTLSeconds(),
		Timestamp:  time.Now(),
	})

	return &models.LockSeatResponse{
		SeatID:              req.SeatID,
		UserID:              req.UserID,
		LockDurationSeconds: s.locks.TTLSeconds(),
		Flight: models.FlightSummary{
			ID:          flight.ID,
			Origin:      flight.Origin,
			Destination: flight.Destination,
			Departure:   flight.Departure,
			Arrival:     flight.Arrival,
			Status:      flight.Status,
		},
	}, nil
}

// ConfirmBooking turns a held seat into a durable booking. The conditional
// seat update inside the store is the authoritative race arbiter: of two
// concurrent confirms for the same seat exactly one commits, the other gets
// a Conflict error.
func (s *BookingService) ConfirmBooking(ctx context.Context, req models.ConfirmBookingRequest) (*models.ConfirmBookingResponse, error) {
	if req.FinalFare <= 0 {
		return nil, apperrors.InvalidInputf("finalFare must be positive, got %d", req.FinalFare)
	}

	user, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NotFoundf("user %d", req.UserID)
	}

	flight, err := s.flights.GetByID(ctx, req.FlightID)
	if err != nil {
		return nil, err
	}
	if flight == nil {
		return nil, apperrors.NotFoundf("flight %d", req.FlightID)
	}
	if flight.Status == models.FlightCancelled {
		return nil, apperrors.Conflictf("flight %d is cancelled", flight.ID)
	}

	seat, err := s.seats.GetByID(ctx, req.SeatID)
	if err != nil {
		return nil, err
	}
	if seat == nil {
		return nil, apperrors.NotFoundf("seat %s", req.SeatID)
	}
	if seat.FlightID != req.FlightID {
		return nil, apperrors.InvalidInputf("seat %s does not belong to flight %d", req.SeatID, req.FlightID)
	}
	if seat.IsBooked {
		return nil, apperrors.Conflictf("seat %s is already booked", req.SeatID)
	}
	if holder, held := s.locks.Holder(req.SeatID); held && holder != req.UserID {
		return nil, apperrors.Conflictf("seat %s is locked by another user", req.SeatID)
	}

	booking := &models.Booking{
		UserID:    req.UserID,
		FlightID:  req.FlightID,
		SeatID:    req.SeatID,
		FinalFare: req.FinalFare,
	}
	if err := s.bookings.CreateWithSeat(ctx, booking); err != nil {
		return nil, err
	}

	s.locks.Release(req.SeatID)
	metrics.BookingsConfirmed.Inc()

	publish(s.events, models.EventBookingConfirmed, models.BookingConfirmedEvent{
		BookingID: booking.ID,
		UserID:    booking.UserID,
		FlightID:  booking.FlightID,
		SeatID:    booking.SeatID,
		FinalFare: booking.FinalFare,
		Timestamp: time.Now(),
	})

	return &models.ConfirmBookingResponse{
		BookingID: booking.ID,
		Booking:   *booking,
	}, nil
}

// CancelBooking releases the seat and deletes the booking. Cancelling an
// unknown (or already cancelled) booking returns NotFound, so a repeated
// cancel is harmless.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID int64) (*models.CancelBookingResponse, error) {
	seatID, userID, err := s.bookings.DeleteWithSeatRelease(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	// No lock release here: a booked seat carries no live lock, and a lock
	// taken the instant the seat frees belongs to its new holder.
	metrics.BookingsCancelled.Inc()

	publish(s.events, models.EventBookingCancelled, models.BookingCancelledEvent{
		BookingID: bookingID,
		UserID:    userID,
		SeatID:    seatID,
		Timestamp: time.Now(),
	})

	return &models.CancelBookingResponse{
		SeatID: seatID,
		UserID: userID,
	}, nil
}

func (s *BookingService) GetBooking(ctx context.Context, bookingID int64) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, apperrors.NotFoundf("booking %d", bookingID)
	}
	return booking, nil
}

// GetUserBookings returns the user's bookings together with any seats that
// are marked booked but lost their booking reference. A user with no
// bookings gets empty lists, not an error.
func (s *BookingService) GetUserBookings(ctx context.Context, userID int64) (*models.UserBookingsResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NotFoundf("user %d", userID)
	}

	bookings, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	orphaned, err := s.seats.OrphanedForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if bookings == nil {
		bookings = []models.Booking{}
	}
	if orphaned == nil {
		orphaned = []models.Seat{}
	}

	return &models.UserBookingsResponse{
		ActiveBookings: bookings,
		OrphanedSeats:  orphaned,
	}, nil
}

// ConfirmGroupBooking books count adjacent-preference seats of one class in
// a single transaction: either every seat is booked or none are. Seats are
// taken in row order from the front of the cabin. Each seat is priced by the
// live fare calculation at current occupancy.
func (s *BookingService) ConfirmGroupBooking(ctx context.Context, req models.GroupBookingRequest) (*models.GroupBookingResponse, error) {
	if req.Count < 1 {
		return nil, apperrors.InvalidInputf("count must be at least 1, got %d", req.Count)
	}
	if !models.ValidSeatClass(req.SeatClass) {
		return nil, apperrors.InvalidInputf("unknown seat class %q", req.SeatClass)
	}

	user, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NotFoundf("user %d", req.UserID)
	}

	flight, err := s.flights.GetByID(ctx, req.FlightID)
	if err != nil {
		return nil, err
	}
	if flight == nil {
		return nil, apperrors.NotFoundf("flight %d", req.FlightID)
	}
	if flight.Status == models.FlightCancelled {
		return nil, apperrors.Conflictf("flight %d is cancelled", flight.ID)
	}
	if flight.FareID == nil {
		return nil, apperrors.NotFoundf("fare for flight %d", flight.ID)
	}

	flightFare, err := s.fares.GetByID(ctx, *flight.FareID)
	if err != nil {
		return nil, err
	}
	if flightFare == nil {
		return nil, apperrors.NotFoundf("fare %d", *flight.FareID)
	}

	base, ok := flightFare.BaseFor(req.SeatClass)
	if !ok {
		return nil, apperrors.InvalidInputf("unknown seat class %q", req.SeatClass)
	}

	total, booked, err := s.seats.CountByFlight(ctx, req.FlightID)
	if err != nil {
		return nil, err
	}

	quote, err := fare.Calculate(fare.Input{
		BaseFare:               float64(base),
		BookedSeats:            booked,
		TotalSeats:             total,
		MinutesBeforeDeparture: int(time.Until(flight.Departure).Minutes()),
	})
	if err != nil {
		return nil, err
	}

	available, err := s.seats.AvailableByClass(ctx, req.FlightID, req.SeatClass)
	if err != nil {
		return nil, err
	}

	// Seats locked by other users are off limits even though the database
	// still shows them as free.
	seatIDs := make([]string, 0, req.Count)
	for _, seat := range available {
		if holder, held := s.locks.Holder(seat.ID); held && holder != req.UserID {
			continue
		}
		seatIDs = append(seatIDs, seat.ID)
		if len(seatIDs) == req.Count {
			break
		}
	}
	if len(seatIDs) < req.Count {
		return nil, apperrors.Conflictf("only %d %s seats available, need %d",
			len(seatIDs), req.SeatClass, req.Count)
	}

	bookings, err := s.bookings.CreateGroup(ctx, req.UserID, req.FlightID, seatIDs, quote.FinalFare)
	if err != nil {
		return nil, err
	}

	for _, seatID := range seatIDs {
		s.locks.Release(seatID)
	}
	metrics.GroupBookingSize.Observe(float64(req.Count))

	bookingIDs := make([]int64, len(bookings))
	for i, b := range bookings {
		bookingIDs[i] = b.ID
	}
	publish(s.events, models.EventGroupBookingConfirmed, models.GroupBookingConfirmedEvent{
		UserID:     req.UserID,
		FlightID:   req.FlightID,
		SeatClass:  req.SeatClass,
		BookingIDs: bookingIDs,
		Timestamp:  time.Now(),
	})

	return &models.GroupBookingResponse{Bookings: bookings}, nil
}
