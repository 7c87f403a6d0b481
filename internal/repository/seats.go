package repository

import (
	"context"
	"database/sql"
	"fmt"

	"skylark/internal/database"
	"skylark/internal/models"

	sq "github.com/Masterminds/squirrel"
)

type SeatRepository struct {
	db *database.DB
	sb sq.StatementBuilderType
}

func NewSeatRepository(db *database.DB) *SeatRepository {
	return &SeatRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// CabinLayout describes how many rows of each class a flight carries.
// Rows are numbered front to back: first, then business, then economy.
type CabinLayout struct {
	FirstRows    int
	BusinessRows int
	EconomyRows  int
	SeatsPerRow  int
}

func (l CabinLayout) totalSeats() int {
	return (l.FirstRows + l.BusinessRows + l.EconomyRows) * l.SeatsPerRow
}

// CreateForFlight bulk-creates the seat map for a new flight and records the
// total on the flight row, in one transaction.
func (r *SeatRepository) CreateForFlight(ctx context.Context, flightID int64, layout CabinLayout) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	row := 1
	sections := []struct {
		class string
		rows  int
	}{
		{models.ClassFirst, layout.FirstRows},
		{models.ClassBusiness, layout.BusinessRows},
		{models.ClassEconomy, layout.EconomyRows},
	}

	const insertSeat = `
		INSERT INTO seats (flight_id, row_number, seat_number, class)
		VALUES ($1, $2, $3, $4)`

	for _, section := range sections {
		for i := 0; i < section.rows; i++ {
			for seat := 1; seat <= layout.SeatsPerRow; seat++ {
				if _, err := tx.ExecContext(ctx, insertSeat, flightID, row, seat, section.class); err != nil {
					return err
				}
			}
			row++
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE flights SET total_seats = $1, updated_at = NOW() WHERE id = $2`,
		layout.totalSeats(), flightID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *SeatRepository) GetByID(ctx context.Context, id string) (*models.Seat, error) {
	seat := &models.Seat{}
	query := `
		SELECT id, flight_id, row_number, seat_number, class, is_booked, booking_id, created_at, updated_at
		FROM seats
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&seat.ID,
		&seat.FlightID,
		&seat.Row,
		&seat.Number,
		&seat.Class,
		&seat.IsBooked,
		&seat.BookingID,
		&seat.CreatedAt,
		&seat.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return seat, err
}

// ListByFlight returns the seat map with optional class and availability
// filters, ordered deterministically by row and seat number.
func (r *SeatRepository) ListByFlight(ctx context.Context, flightID int64, class *string, isBooked *bool, page, pageSize int) ([]models.Seat, error) {
	builder := r.sb.
		Select("id", "flight_id", "row_number", "seat_number", "class", "is_booked", "booking_id", "created_at", "updated_at").
		From("seats").
		Where(sq.Eq{"flight_id": flightID}).
		OrderBy("row_number", "seat_number")

	if class != nil {
		builder = builder.Where(sq.Eq{"class": *class})
	}
	if isBooked != nil {
		builder = builder.Where(sq.Eq{"is_booked": *isBooked})
	}
	if page > 0 && pageSize > 0 {
		builder = builder.Limit(uint64(pageSize)).Offset(uint64((page - 1) * pageSize))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	return r.querySeats(ctx, query, args...)
}

// AvailableByClass returns all unbooked seats of a class on a flight in
// row/seat order. Group allocation relies on this ordering being stable.
func (r *SeatRepository) AvailableByClass(ctx context.Context, flightID int64, class string) ([]models.Seat, error) {
	query := `
		SELECT id, flight_id, row_number, seat_number, class, is_booked, booking_id, created_at, updated_at
		FROM seats
		WHERE flight_id = $1 AND class = $2 AND is_booked = FALSE
		ORDER BY row_number, seat_number`

	return r.querySeats(ctx, query, flightID, class)
}

// CountByFlight reports total and booked seat counts for occupancy pricing.
func (r *SeatRepository) CountByFlight(ctx context.Context, flightID int64) (total int, booked int, err error) {
	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_booked)
		FROM seats
		WHERE flight_id = $1`

	err = r.db.QueryRowContext(ctx, query, flightID).Scan(&total, &booked)
	if err != nil {
		return 0, 0, fmt.Errorf("count seats for flight %d: %w", flightID, err)
	}
	return total, booked, nil
}

// OrphanedForUser finds seats marked booked without a booking back-reference
// on flights where the user holds bookings. Diagnostic view for data drift.
func (r *SeatRepository) OrphanedForUser(ctx context.Context, userID int64) ([]models.Seat, error) {
	query := `
		SELECT id, flight_id, row_number, seat_number, class, is_booked, booking_id, created_at, updated_at
		FROM seats
		WHERE is_booked = TRUE
		  AND booking_id IS NULL
		  AND flight_id IN (SELECT flight_id FROM bookings WHERE user_id = $1)
		ORDER BY flight_id, row_number, seat_number`

	return r.querySeats(ctx, query, userID)
}

func (r *SeatRepository) querySeats(ctx context.Context, query string, args ...interface{}) ([]models.Seat, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []models.Seat
	for rows.Next() {
		var seat models.Seat
		err := rows.Scan(
			&seat.ID,
			&seat.FlightID,
			&seat.Row,
			&seat.Number,
			&seat.Class,
			&seat.IsBooked,
			&seat.BookingID,
			&seat.CreatedAt,
			&seat.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}

	return seats, rows.Err()
}
