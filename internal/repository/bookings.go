package repository

import (
	"context"
	"database/sql"
	"errors"

	"skylark/internal/database"
	apperrors "skylark/internal/errors"
	"skylark/internal/models"

	"github.com/lib/pq"
)

type BookingRepository struct {
	db *database.DB
}

func NewBookingRepository(db *database.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// markSeatBooked is the optimistic-concurrency gate shared by single and
// group confirmation: the update only succeeds while the seat is still
// unbooked, so a concurrent confirm that already won leaves zero rows.
const markSeatBooked = `
	UPDATE seats
	SET is_booked = TRUE, booking_id = $1, updated_at = NOW()
	WHERE id = $2 AND is_booked = FALSE`

// CreateWithSeat inserts the booking and marks its seat booked as one
// transaction. Returns a Conflict error when the seat was booked by a
// concurrent confirm; nothing is persisted in that case.
func (r *BookingRepository) CreateWithSeat(ctx context.Context, booking *models.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insert := `
		INSERT INTO bookings (user_id, flight_id, seat_id, final_fare)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err = tx.QueryRowContext(ctx, insert,
		booking.UserID,
		booking.FlightID,
		booking.SeatID,
		booking.FinalFare,
	).Scan(&booking.ID, &booking.CreatedAt)
	if err != nil {
		// bookings.seat_id is UNIQUE; hitting it means the seat is taken.
		if isUniqueViolation(err) {
			return apperrors.Conflictf("seat %s already has a booking", booking.SeatID)
		}
		return err
	}

	result, err := tx.ExecContext(ctx, markSeatBooked, booking.ID, booking.SeatID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.Conflictf("seat %s was booked concurrently", booking.SeatID)
	}

	return tx.Commit()
}

// CreateGroup books every seat in seatIDs for the user in one transaction.
// If any seat was stolen by a concurrent confirm the whole batch rolls back
// and a Conflict error is returned, leaving all seats unbooked.
func (r *BookingRepository) CreateGroup(ctx context.Context, userID, flightID int64, seatIDs []string, farePerSeat int64) ([]models.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	insert := `
		INSERT INTO bookings (user_id, flight_id, seat_id, final_fare)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	bookings := make([]models.Booking, 0, len(seatIDs))
	for _, seatID := range seatIDs {
		booking := models.Booking{
			UserID:    userID,
			FlightID:  flightID,
			SeatID:    seatID,
			FinalFare: farePerSeat,
		}

		err = tx.QueryRowContext(ctx, insert, userID, flightID, seatID, farePerSeat).
			Scan(&booking.ID, &booking.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, apperrors.Conflictf("seat %s already has a booking, group rolled back", seatID)
			}
			return nil, err
		}

		result, err := tx.ExecContext(ctx, markSeatBooked, booking.ID, seatID)
		if err != nil {
			return nil, err
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			return nil, apperrors.Conflictf("seat %s was booked concurrently, group rolled back", seatID)
		}

		bookings = append(bookings, booking)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return bookings, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	booking := &models.Booking{}
	query := `
		SELECT id, user_id, flight_id, seat_id, final_fare, created_at
		FROM bookings
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&booking.ID,
		&booking.UserID,
		&booking.FlightID,
		&booking.SeatID,
		&booking.FinalFare,
		&booking.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return booking, err
}

// DeleteWithSeatRelease frees the seat and removes the booking atomically.
// The released seat and owning user ids are returned for the API response.
func (r *BookingRepository) DeleteWithSeatRelease(ctx context.Context, id int64) (seatID string, userID int64, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, err
	}
	defer tx.Rollback()

	query := `SELECT seat_id, user_id FROM bookings WHERE id = $1 FOR UPDATE`
	err = tx.QueryRowContext(ctx, query, id).Scan(&seatID, &userID)
	if err == sql.ErrNoRows {
		return "", 0, apperrors.NotFoundf("booking %d", id)
	}
	if err != nil {
		return "", 0, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE seats SET is_booked = FALSE, booking_id = NULL, updated_at = NOW() WHERE id = $1`,
		seatID)
	if err != nil {
		return "", 0, err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id); err != nil {
		return "", 0, err
	}

	return seatID, userID, tx.Commit()
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID int64) ([]models.Booking, error) {
	var bookings []models.Booking
	query := `
		SELECT id, user_id, flight_id, seat_id, final_fare, created_at
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var booking models.Booking
		err := rows.Scan(
			&booking.ID,
			&booking.UserID,
			&booking.FlightID,
			&booking.SeatID,
			&booking.FinalFare,
			&booking.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}
