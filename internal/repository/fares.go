package repository

import (
	"context"
	"database/sql"

	"skylark/internal/database"
	apperrors "skylark/internal/errors"
	"skylark/internal/models"
)

type FareRepository struct {
	db *database.DB
}

func NewFareRepository(db *database.DB) *FareRepository {
	return &FareRepository{db: db}
}

func (r *FareRepository) Create(ctx context.Context, fare *models.Fare) error {
	query := `
		INSERT INTO fares (economy, business, first)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		fare.Economy,
		fare.Business,
		fare.First,
	).Scan(&fare.ID, &fare.CreatedAt)
}

func (r *FareRepository) GetByID(ctx context.Context, id int64) (*models.Fare, error) {
	fare := &models.Fare{}
	query := `SELECT id, economy, business, first, created_at FROM fares WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&fare.ID,
		&fare.Economy,
		&fare.Business,
		&fare.First,
		&fare.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return fare, err
}

// AttachToFlight points a flight at a fare table.
func (r *FareRepository) AttachToFlight(ctx context.Context, fareID, flightID int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE flights SET fare_id = $1, updated_at = NOW() WHERE id = $2`,
		fareID, flightID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.NotFoundf("flight %d", flightID)
	}
	return nil
}
