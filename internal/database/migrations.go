package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createUsersTable,
		createFaresTable,
		createFlightsTable,
		createSeatsTable,
		createBookingsTable,
		addSeatBookingBackref,
		createSeatAvailabilityIndex,
		createFlightsDepartureIndex,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    user_id SERIAL PRIMARY KEY,
    email VARCHAR(255) UNIQUE NOT NULL,
    password_hash VARCHAR(64) NOT NULL,
    first_name VARCHAR(100) NOT NULL,
    surname VARCHAR(100) NOT NULL,
    age INTEGER,
    role VARCHAR(20) NOT NULL DEFAULT 'CUSTOMER',
    registered_at TIMESTAMP NOT NULL DEFAULT NOW(),
    is_active BOOLEAN NOT NULL DEFAULT TRUE,

    CHECK (role IN ('ADMIN', 'CUSTOMER'))
);`

const createFaresTable = `
CREATE TABLE IF NOT EXISTS fares (
    id SERIAL PRIMARY KEY,
    economy BIGINT NOT NULL,
    business BIGINT NOT NULL,
    first BIGINT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (economy > 0 AND business > 0 AND first > 0)
);`

const createFlightsTable = `
CREATE TABLE IF NOT EXISTS flights (
    id SERIAL PRIMARY KEY,
    origin VARCHAR(100) NOT NULL,
    destination VARCHAR(100) NOT NULL,
    departure TIMESTAMP NOT NULL,
    arrival TIMESTAMP NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'ON_TIME',
    fare_id INTEGER REFERENCES fares(id),
    total_seats INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (status IN ('ON_TIME', 'DELAYED', 'CANCELLED'))
);`

const createSeatsTable = `
CREATE EXTENSION IF NOT EXISTS "uuid-ossp";
CREATE TABLE IF NOT EXISTS seats (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    flight_id INTEGER NOT NULL REFERENCES flights(id) ON DELETE CASCADE,
    row_number INTEGER NOT NULL,
    seat_number INTEGER NOT NULL,
    class VARCHAR(20) NOT NULL,
    is_booked BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    UNIQUE(flight_id, row_number, seat_number),
    CHECK (class IN ('ECONOMY', 'BUSINESS', 'FIRST'))
);`

const createBookingsTable = `
CREATE TABLE IF NOT EXISTS bookings (
    id SERIAL PRIMARY KEY,
    user_id INTEGER NOT NULL REFERENCES users(user_id),
    flight_id INTEGER NOT NULL REFERENCES flights(id) ON DELETE CASCADE,
    seat_id UUID NOT NULL UNIQUE REFERENCES seats(id),
    final_fare BIGINT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT NOW()
);`

// bookings.seat_id UNIQUE plus this back-reference make double-booking
// impossible at the storage layer even if application checks are bypassed.
const addSeatBookingBackref = `
DO $$
BEGIN
    IF NOT EXISTS (
        SELECT 1 FROM information_schema.columns
        WHERE table_name = 'seats' AND column_name = 'booking_id'
    ) THEN
        ALTER TABLE seats ADD COLUMN booking_id INTEGER UNIQUE REFERENCES bookings(id) ON DELETE SET NULL;
    END IF;
END $$;`

const createSeatAvailabilityIndex = `
CREATE INDEX IF NOT EXISTS seats_flight_class_free_idx
ON seats (flight_id, class, row_number, seat_number)
WHERE is_booked = FALSE;`

const createFlightsDepartureIndex = `
CREATE INDEX IF NOT EXISTS flights_departure_date_idx
ON flights (DATE(departure));`
