package repository

import (
	"context"
	"database/sql"

	"skylark/internal/database"
	apperrors "skylark/internal/errors"
	"skylark/internal/models"

	sq "github.com/Masterminds/squirrel"
)

type FlightRepository struct {
	db *database.DB
	sb sq.StatementBuilderType
}

func NewFlightRepository(db *database.DB) *FlightRepository {
	return &FlightRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *FlightRepository) Create(ctx context.Context, flight *models.Flight) error {
	query := `
		INSERT INTO flights (origin, destination, departure, arrival, status, fare_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		flight.Origin,
		flight.Destination,
		flight.Departure,
		flight.Arrival,
		flight.Status,
		flight.FareID,
	).Scan(&flight.ID, &flight.CreatedAt, &flight.UpdatedAt)
}

func (r *FlightRepository) GetByID(ctx context.Context, id int64) (*models.Flight, error) {
	flight := &models.Flight{}
	query := `
		SELECT id, origin, destination, departure, arrival, status, fare_id, total_seats, created_at, updated_at
		FROM flights
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&flight.ID,
		&flight.Origin,
		&flight.Destination,
		&flight.Departure,
		&flight.Arrival,
		&flight.Status,
		&flight.FareID,
		&flight.TotalSeats,
		&flight.CreatedAt,
		&flight.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return flight, err
}

// List returns flights with optional origin/destination filters, newest
// departures first.
func (r *FlightRepository) List(ctx context.Context, origin, destination string, page, pageSize int) ([]models.Flight, error) {
	builder := r.sb.
		Select("id", "origin", "destination", "departure", "arrival", "status", "fare_id", "total_seats", "created_at", "updated_at").
		From("flights").
		OrderBy("departure DESC")

	if origin != "" {
		builder = builder.Where("LOWER(origin) = LOWER(?)", origin)
	}
	if destination != "" {
		builder = builder.Where("LOWER(destination) = LOWER(?)", destination)
	}
	if page > 0 && pageSize > 0 {
		builder = builder.Limit(uint64(pageSize)).Offset(uint64((page - 1) * pageSize))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flights []models.Flight
	for rows.Next() {
		var flight models.Flight
		err := rows.Scan(
			&flight.ID,
			&flight.Origin,
			&flight.Destination,
			&flight.Departure,
			&flight.Arrival,
			&flight.Status,
			&flight.FareID,
			&flight.TotalSeats,
			&flight.CreatedAt,
			&flight.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		flights = append(flights, flight)
	}

	return flights, rows.Err()
}

func (r *FlightRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE flights SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.NotFoundf("flight %d", id)
	}
	return nil
}
