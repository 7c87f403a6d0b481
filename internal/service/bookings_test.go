package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "skylark/internal/errors"
	"skylark/internal/lock"
	"skylark/internal/models"
)

// memDB backs the fake stores. All mutations happen under one mutex so the
// fakes give the same atomicity guarantees as the real transactional
// repositories.
type memDB struct {
	mu            sync.Mutex
	seats         map[string]*models.Seat
	bookings      map[int64]*models.Booking
	flights       map[int64]*models.Flight
	users         map[int64]*models.User
	fares         map[int64]*models.Fare
	nextBookingID int64
}

type fakeSeatStore struct{ db *memDB }

func (f *fakeSeatStore) GetByID(_ context.Context, id string) (*models.Seat, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	seat, ok := f.db.seats[id]
	if !ok {
		return nil, nil
	}
	copied := *seat
	return &copied, nil
}

func (f *fakeSeatStore) AvailableByClass(_ context.Context, flightID int64, class string) ([]models.Seat, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var seats []models.Seat
	for _, seat := range f.db.seats {
		if seat.FlightID == flightID && seat.Class == class && !seat.IsBooked {
			seats = append(seats, *seat)
		}
	}
	sort.Slice(seats, func(i, j int) bool {
		if seats[i].Row != seats[j].Row {
			return seats[i].Row < seats[j].Row
		}
		return seats[i].Number < seats[j].Number
	})
	return seats, nil
}

func (f *fakeSeatStore) CountByFlight(_ context.Context, flightID int64) (int, int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	total, booked := 0, 0
	for _, seat := range f.db.seats {
		if seat.FlightID != flightID {
			continue
		}
		total++
		if seat.IsBooked {
			booked++
		}
	}
	return total, booked, nil
}

func (f *fakeSeatStore) OrphanedForUser(_ context.Context, userID int64) ([]models.Seat, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	userFlights := make(map[int64]bool)
	for _, b := range f.db.bookings {
		if b.UserID == userID {
			userFlights[b.FlightID] = true
		}
	}
	var seats []models.Seat
	for _, seat := range f.db.seats {
		if seat.IsBooked && seat.BookingID == nil && userFlights[seat.FlightID] {
			seats = append(seats, *seat)
		}
	}
	return seats, nil
}

type fakeBookingStore struct{ db *memDB }

func (f *fakeBookingStore) CreateWithSeat(_ context.Context, booking *models.Booking) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	seat, ok := f.db.seats[booking.SeatID]
	if !ok {
		return apperrors.NotFoundf("seat %s", booking.SeatID)
	}
	if seat.IsBooked {
		return apperrors.Conflictf("seat %s was booked concurrently", booking.SeatID)
	}

	f.db.nextBookingID++
	booking.ID = f.db.nextBookingID
	booking.CreatedAt = time.Now()

	seat.IsBooked = true
	seat.BookingID = &booking.ID

	stored := *booking
	f.db.bookings[booking.ID] = &stored
	return nil
}

func (f *fakeBookingStore) CreateGroup(_ context.Context, userID, flightID int64, seatIDs []string, farePerSeat int64) ([]models.Booking, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	for _, seatID := range seatIDs {
		seat, ok := f.db.seats[seatID]
		if !ok {
			return nil, apperrors.NotFoundf("seat %s", seatID)
		}
		if seat.IsBooked {
			return nil, apperrors.Conflictf("seat %s was booked concurrently, group rolled back", seatID)
		}
	}

	bookings := make([]models.Booking, 0, len(seatIDs))
	for _, seatID := range seatIDs {
		f.db.nextBookingID++
		booking := models.Booking{
			ID:        f.db.nextBookingID,
			UserID:    userID,
			FlightID:  flightID,
			SeatID:    seatID,
			FinalFare: farePerSeat,
			CreatedAt: time.Now(),
		}
		seat := f.db.seats[seatID]
		seat.IsBooked = true
		seat.BookingID = &booking.ID

		stored := booking
		f.db.bookings[booking.ID] = &stored
		bookings = append(bookings, booking)
	}
	return bookings, nil
}

func (f *fakeBookingStore) GetByID(_ context.Context, id int64) (*models.Booking, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	booking, ok := f.db.bookings[id]
	if !ok {
		return nil, nil
	}
	copied := *booking
	return &copied, nil
}

func (f *fakeBookingStore) DeleteWithSeatRelease(_ context.Context, id int64) (string, int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()

	booking, ok := f.db.bookings[id]
	if !ok {
		return "", 0, apperrors.NotFoundf("booking %d", id)
	}

	if seat, ok := f.db.seats[booking.SeatID]; ok {
		seat.IsBooked = false
		seat.BookingID = nil
	}
	delete(f.db.bookings, id)
	return booking.SeatID, booking.UserID, nil
}

func (f *fakeBookingStore) ListByUser(_ context.Context, userID int64) ([]models.Booking, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var bookings []models.Booking
	for _, b := range f.db.bookings {
		if b.UserID == userID {
			bookings = append(bookings, *b)
		}
	}
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].ID < bookings[j].ID })
	return bookings, nil
}

type fakeFlightStore struct{ db *memDB }

func (f *fakeFlightStore) GetByID(_ context.Context, id int64) (*models.Flight, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	flight, ok := f.db.flights[id]
	if !ok {
		return nil, nil
	}
	copied := *flight
	return &copied, nil
}

type fakeUserStore struct{ db *memDB }

func (f *fakeUserStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	user, ok := f.db.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

type fakeFareStore struct{ db *memDB }

func (f *fakeFareStore) GetByID(_ context.Context, id int64) (*models.Fare, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	fareRow, ok := f.db.fares[id]
	if !ok {
		return nil, nil
	}
	copied := *fareRow
	return &copied, nil
}

type capturePublisher struct {
	mu     sync.Mutex
	counts map[string]int
}

func (p *capturePublisher) Publish(subject string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counts[subject]++
	return nil
}

func (p *capturePublisher) count(subject string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[subject]
}

type fixture struct {
	db     *memDB
	locks  *lock.Table
	events *capturePublisher
	svc    *BookingService
}

// newFixture builds one flight with six economy seats (rows 1-2, three
// across), a fare table, and two users. Departure is three hours out so the
// last-minute multiplier stays at 1.0.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	fareID := int64(1)
	db := &memDB{
		seats:    make(map[string]*models.Seat),
		bookings: make(map[int64]*models.Booking),
		flights: map[int64]*models.Flight{
			1: {
				ID:          1,
				Origin:      "ALA",
				Destination: "NQZ",
				Departure:   time.Now().Add(3 * time.Hour),
				Arrival:     time.Now().Add(5 * time.Hour),
				Status:      models.FlightOnTime,
				FareID:      &fareID,
				TotalSeats:  6,
			},
		},
		users: map[int64]*models.User{
			1: {UserID: 1, Email: "a@example.com", Role: models.RoleCustomer, IsActive: true},
			2: {UserID: 2, Email: "b@example.com", Role: models.RoleCustomer, IsActive: true},
		},
		fares: map[int64]*models.Fare{
			1: {ID: 1, Economy: 3000, Business: 6000, First: 9000},
		},
	}
	for row := 1; row <= 2; row++ {
		for num := 1; num <= 3; num++ {
			id := fmt.Sprintf("seat-%d-%d", row, num)
			db.seats[id] = &models.Seat{
				ID:       id,
				FlightID: 1,
				Row:      row,
				Number:   num,
				Class:    models.ClassEconomy,
			}
		}
	}

	events := &capturePublisher{counts: make(map[string]int)}
	locks := lock.NewTable(180 * time.Second)
	svc := NewBookingService(
		&fakeSeatStore{db},
		&fakeBookingStore{db},
		&fakeFlightStore{db},
		&fakeUserStore{db},
		&fakeFareStore{db},
		locks,
		events,
	)

	return &fixture{db: db, locks: locks, events: events, svc: svc}
}

func TestLockSeatGrantsHold(t *testing.T) {
	fx := newFixture(t)

	resp, err := fx.svc.LockSeat(context.Background(), models.LockSeatRequest{
		SeatID: "seat-1-1", UserID: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, "seat-1-1", resp.SeatID)
	assert.Equal(t, int64(1), resp.UserID)
	assert.Equal(t, 180, resp.LockDurationSeconds)
	assert.Equal(t, "ALA", resp.Flight.Origin)
	assert.True(t, fx.locks.IsLocked("seat-1-1"))
	assert.Equal(t, 1, fx.events.count(models.EventSeatLocked))
}

func TestLockSeatRejectsCompetingUser(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.svc.LockSeat(ctx, models.LockSeatRequest{SeatID: "seat-1-1", UserID: 1})
	require.NoError(t, err)

	_, err = fx.svc.LockSeat(ctx, models.LockSeatRequest{SeatID: "seat-1-1", UserID: 2})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestLockSeatUnknownTargets(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.svc.LockSeat(ctx, models.LockSeatRequest{SeatID: "no-such-seat", UserID: 1})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = fx.svc.LockSeat(ctx, models.LockSeatRequest{SeatID: "seat-1-1", UserID: 99})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLockSeatRejectsBookedSeat(t *testing.T) {
	fx := newFixture(t)
	fx.db.seats["seat-1-1"].IsBooked = true

	_, err := fx.svc.LockSeat(context.Background(), models.LockSeatRequest{SeatID: "seat-1-1", UserID: 1})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestConfirmBookingReleasesLock(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.svc.LockSeat(ctx, models.LockSeatRequest{SeatID: "seat-1-1", UserID: 1})
	require.NoError(t, err)

	resp, err := fx.svc.ConfirmBooking(ctx, models.ConfirmBookingRequest{
		UserID: 1, FlightID: 1, SeatID: "seat-1-1", FinalFare: 3000,
	})
	require.NoError(t, err)

	assert.NotZero(t, resp.BookingID)
	assert.Equal(t, int64(3000), resp.Booking.FinalFare)
	assert.False(t, fx.locks.IsLocked("seat-1-1"))
	assert.True(t, fx.db.seats["seat-1-1"].IsBooked)
	assert.Equal(t, 1, fx.events.count(models.EventBookingConfirmed))
}

func TestConfirmBookingRejectsForeignLock(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.svc.LockSeat(ctx, models.LockSeatRequest{SeatID: "seat-1-1", UserID: 1})
	require.NoError(t, err)

	_, err = fx.svc.ConfirmBooking(ctx, models.ConfirmBookingRequest{
		UserID: 2, FlightID: 1, SeatID: "seat-1-1", FinalFare: 3000,
	})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.False(t, fx.db.seats["seat-1-1"].IsBooked)
}

func TestConfirmBookingValidation(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.svc.ConfirmBooking(ctx, models.ConfirmBookingRequest{
		UserID: 1, FlightID: 1, SeatID: "seat-1-1", FinalFare: 0,
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = fx.svc.ConfirmBooking(ctx, models.ConfirmBookingRequest{
		UserID: 1, FlightID: 42, SeatID: "seat-1-1", FinalFare: 3000,
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = fx.svc.ConfirmBooking(ctx, models.ConfirmBookingRequest{
		UserID: 1, FlightID: 1, SeatID: "no-such-seat", FinalFare: 3000,
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestConcurrentConfirmExactlyOneWins(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = fx.svc.ConfirmBooking(ctx, models.ConfirmBookingRequest{
				UserID: 1, FlightID: 1, SeatID: "seat-1-1", FinalFare: 3000,
			})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, apperrors.ErrConflict)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Len(t, fx.db.bookings, 1)
	assert.True(t, fx.db.seats["seat-1-1"].IsBooked)
}

func TestCancelBookingFreesSeatOnce(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	resp, err := fx.svc.ConfirmBooking(ctx, models.ConfirmBookingRequest{
		UserID: 1, FlightID: 1, SeatID: "seat-1-1", FinalFare: 3000,
	})
	require.NoError(t, err)

	cancelled, err := fx.svc.CancelBooking(ctx, resp.BookingID)
	require.NoError(t, err)
	assert.Equal(t, "seat-1-1", cancelled.SeatID)
	assert.Equal(t, int64(1), cancelled.UserID)
	assert.False(t, fx.db.seats["seat-1-1"].IsBooked)
	assert.Nil(t, fx.db.seats["seat-1-1"].BookingID)

	// Second cancel finds nothing to undo.
	_, err = fx.svc.CancelBooking(ctx, resp.BookingID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, 1, fx.events.count(models.EventBookingCancelled))
}

func TestCancelKeepsLockTakenAfterSeatFreed(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	resp, err := fx.svc.ConfirmBooking(ctx, models.ConfirmBookingRequest{
		UserID: 1, FlightID: 1, SeatID: "seat-1-1", FinalFare: 3000,
	})
	require.NoError(t, err)

	// Another user grabs the hold the moment the seat frees; cancel must not
	// wipe it out.
	require.True(t, fx.locks.Acquire("seat-1-1", 2))

	_, err = fx.svc.CancelBooking(ctx, resp.BookingID)
	require.NoError(t, err)

	holder, held := fx.locks.Holder("seat-1-1")
	assert.True(t, held)
	assert.Equal(t, int64(2), holder)
}

func TestGetUserBookings(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.svc.GetUserBookings(ctx, 99)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	resp, err := fx.svc.GetUserBookings(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, resp.ActiveBookings)
	assert.Empty(t, resp.OrphanedSeats)

	confirmed, err := fx.svc.ConfirmBooking(ctx, models.ConfirmBookingRequest{
		UserID: 1, FlightID: 1, SeatID: "seat-1-1", FinalFare: 3000,
	})
	require.NoError(t, err)

	// Simulate drift: a seat marked booked that lost its booking reference.
	fx.db.seats["seat-1-2"].IsBooked = true

	resp, err = fx.svc.GetUserBookings(ctx, 1)
	require.NoError(t, err)
	require.Len(t, resp.ActiveBookings, 1)
	assert.Equal(t, confirmed.BookingID, resp.ActiveBookings[0].ID)
	require.Len(t, resp.OrphanedSeats, 1)
	assert.Equal(t, "seat-1-2", resp.OrphanedSeats[0].ID)
}

func TestGroupBookingTakesFrontRows(t *testing.T) {
	fx := newFixture(t)

	resp, err := fx.svc.ConfirmGroupBooking(context.Background(), models.GroupBookingRequest{
		UserID: 1, FlightID: 1, SeatClass: models.ClassEconomy, Count: 2,
	})
	require.NoError(t, err)
	require.Len(t, resp.Bookings, 2)

	assert.Equal(t, "seat-1-1", resp.Bookings[0].SeatID)
	assert.Equal(t, "seat-1-2", resp.Bookings[1].SeatID)
	// Empty flight, three hours to departure: base fare with no surcharges.
	assert.Equal(t, int64(3000), resp.Bookings[0].FinalFare)
	assert.Equal(t, 1, fx.events.count(models.EventGroupBookingConfirmed))
}

func TestGroupBookingPricesWithOccupancy(t *testing.T) {
	fx := newFixture(t)

	// Three of six seats taken: demand multiplier 1.5.
	fx.db.seats["seat-2-1"].IsBooked = true
	fx.db.seats["seat-2-2"].IsBooked = true
	fx.db.seats["seat-2-3"].IsBooked = true

	resp, err := fx.svc.ConfirmGroupBooking(context.Background(), models.GroupBookingRequest{
		UserID: 1, FlightID: 1, SeatClass: models.ClassEconomy, Count: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4500), resp.Bookings[0].FinalFare)
}

func TestGroupBookingAllOrNothing(t *testing.T) {
	fx := newFixture(t)

	// Only two economy seats left.
	fx.db.seats["seat-1-1"].IsBooked = true
	fx.db.seats["seat-1-2"].IsBooked = true
	fx.db.seats["seat-1-3"].IsBooked = true
	fx.db.seats["seat-2-1"].IsBooked = true

	_, err := fx.svc.ConfirmGroupBooking(context.Background(), models.GroupBookingRequest{
		UserID: 1, FlightID: 1, SeatClass: models.ClassEconomy, Count: 3,
	})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	assert.False(t, fx.db.seats["seat-2-2"].IsBooked)
	assert.False(t, fx.db.seats["seat-2-3"].IsBooked)
	assert.Empty(t, fx.db.bookings)
}

func TestGroupBookingSkipsSeatsLockedByOthers(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.svc.LockSeat(ctx, models.LockSeatRequest{SeatID: "seat-1-1", UserID: 2})
	require.NoError(t, err)

	resp, err := fx.svc.ConfirmGroupBooking(ctx, models.GroupBookingRequest{
		UserID: 1, FlightID: 1, SeatClass: models.ClassEconomy, Count: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, "seat-1-2", resp.Bookings[0].SeatID)
	assert.Equal(t, "seat-1-3", resp.Bookings[1].SeatID)
	assert.False(t, fx.db.seats["seat-1-1"].IsBooked)
}

func TestGroupBookingValidation(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.svc.ConfirmGroupBooking(ctx, models.GroupBookingRequest{
		UserID: 1, FlightID: 1, SeatClass: models.ClassEconomy, Count: 0,
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = fx.svc.ConfirmGroupBooking(ctx, models.GroupBookingRequest{
		UserID: 1, FlightID: 1, SeatClass: "PREMIUM", Count: 2,
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	fx.db.flights[1].Status = models.FlightCancelled
	_, err = fx.svc.ConfirmGroupBooking(ctx, models.GroupBookingRequest{
		UserID: 1, FlightID: 1, SeatClass: models.ClassEconomy, Count: 2,
	})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}
