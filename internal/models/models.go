package models

import "time"

// Users

type CreateUserRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"firstName" binding:"required"`
	Surname   string `json:"surname" binding:"required"`
	Age       *int   `json:"age"`
	Role      string `json:"role"`
}

type UpdateUserRequest struct {
	Password  *string `json:"password"`
	FirstName *string `json:"firstName"`
	Surname   *string `json:"surname"`
	Age       *int    `json:"age"`
}

// Flights

type CreateFlightRequest struct {
	Origin      string    `json:"origin" binding:"required"`
	Destination string    `json:"destination" binding:"required"`
	Departure   time.Time `json:"departure" binding:"required"`
	Arrival     time.Time `json:"arrival" binding:"required"`
	FareID      *int64    `json:"fareId"`

	// Cabin layout; seats are bulk-created with the flight.
	FirstRows    int `json:"firstRows"`
	BusinessRows int `json:"businessRows"`
	EconomyRows  int `json:"economyRows" binding:"required,min=1"`
	SeatsPerRow  int `json:"seatsPerRow"`
}

type UpdateFlightStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type FlightSummary struct {
	ID          int64     `json:"id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Departure   time.Time `json:"departure"`
	Arrival     time.Time `json:"arrival"`
	Status      string    `json:"status"`
}

// Fares

type CreateFareRequest struct {
	FlightID int64 `json:"flightId" binding:"required"`
	Economy  int64 `json:"economy" binding:"required,min=1"`
	Business int64 `json:"business" binding:"required,min=1"`
	First    int64 `json:"first" binding:"required,min=1"`
}

type CalculateFareRequest struct {
	FlightID               int64  `json:"flightId" binding:"required"`
	SeatClass              string `json:"seatClass" binding:"required"`
	IsWindow               bool   `json:"isWindow"`
	PassengerAge           int    `json:"passengerAge" binding:"min=0"`
	BookedSeats            int    `json:"bookedSeats" binding:"min=0"`
	TotalSeats             int    `json:"totalSeats" binding:"required"`
	MinutesBeforeDeparture int    `json:"minutesBeforeDeparture"`
}

// Bookings

type LockSeatRequest struct {
	SeatID string `json:"seatId" binding:"required"`
	UserID int64  `json:"userId" binding:"required"`
}

type LockSeatResponse struct {
	SeatID              string        `json:"seatId"`
	UserID              int64         `json:"userId"`
	LockDurationSeconds int           `json:"lockDurationSeconds"`
	Flight              FlightSummary `json:"flight"`
}

type ConfirmBookingRequest struct {
	UserID    int64  `json:"userId" binding:"required"`
	FlightID  int64  `json:"flightId" binding:"required"`
	SeatID    string `json:"seatId" binding:"required"`
	FinalFare int64  `json:"finalFare" binding:"required"`
}

type ConfirmBookingResponse struct {
	BookingID int64   `json:"bookingId"`
	Booking   Booking `json:"booking"`
}

type CancelBookingResponse struct {
	SeatID string `json:"seatId"`
	UserID int64  `json:"userId"`
}

type UserBookingsResponse struct {
	ActiveBookings []Booking `json:"activeBookings"`
	OrphanedSeats  []Seat    `json:"orphanedSeats"`
}

type GroupBookingRequest struct {
	UserID    int64  `json:"userId" binding:"required"`
	FlightID  int64  `json:"flightId" binding:"required"`
	SeatClass string `json:"seatClass" binding:"required"`
	Count     int    `json:"count" binding:"required"`
}

type GroupBookingResponse struct {
	Bookings []Booking `json:"bookings"`
}

// Seats

type ListSeatsResponseItem struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Class    string `json:"class"`
	IsBooked bool   `json:"isBooked"`
}
