package repository

import (
	"skylark/internal/database"
)

type Repositories struct {
	Users    *UserRepository
	Flights  *FlightRepository
	Fares    *FareRepository
	Seats    *SeatRepository
	Bookings *BookingRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Users:    NewUserRepository(db),
		Flights:  NewFlightRepository(db),
		Fares:    NewFareRepository(db),
		Seats:    NewSeatRepository(db),
		Bookings: NewBookingRepository(db),
	}
}
