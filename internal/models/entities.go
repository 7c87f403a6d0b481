package models

import (
	"fmt"
	"time"
)

// Seat classes
const (
	ClassEconomy  = "ECONOMY"
	ClassBusiness = "BUSINESS"
	ClassFirst    = "FIRST"
)

// Flight statuses
const (
	FlightOnTime    = "ON_TIME"
	FlightDelayed   = "DELAYED"
	FlightCancelled = "CANCELLED"
)

// User roles
const (
	RoleAdmin    = "ADMIN"
	RoleCustomer = "CUSTOMER"
)

// ValidSeatClass reports whether s is one of the known cabin classes.
func ValidSeatClass(s string) bool {
	switch s {
	case ClassEconomy, ClassBusiness, ClassFirst:
		return true
	}
	return false
}

// ValidFlightStatus reports whether s is a known flight status.
func ValidFlightStatus(s string) bool {
	switch s {
	case FlightOnTime, FlightDelayed, FlightCancelled:
		return true
	}
	return false
}

type User struct {
	UserID       int64     `json:"user_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	Surname      string    `json:"surname"`
	Age          *int      `json:"age,omitempty"`
	Role         string    `json:"role"`
	RegisteredAt time.Time `json:"registered_at"`
	IsActive     bool      `json:"is_active"`
}

type Fare struct {
	ID        int64     `json:"id"`
	Economy   int64     `json:"economy"`
	Business  int64     `json:"business"`
	First     int64     `json:"first"`
	CreatedAt time.Time `json:"created_at"`
}

// BaseFor returns the base price for a cabin class.
func (f *Fare) BaseFor(class string) (int64, bool) {
	switch class {
	case ClassEconomy:
		return f.Economy, true
	case ClassBusiness:
		return f.Business, true
	case ClassFirst:
		return f.First, true
	}
	return 0, false
}

type Flight struct {
	ID          int64     `json:"id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Departure   time.Time `json:"departure"`
	Arrival     time.Time `json:"arrival"`
	Status      string    `json:"status"`
	FareID      *int64    `json:"fare_id,omitempty"`
	TotalSeats  int       `json:"total_seats"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Seat struct {
	ID        string    `json:"id"`
	FlightID  int64     `json:"flight_id"`
	Row       int       `json:"row"`
	Number    int       `json:"number"`
	Class     string    `json:"class"`
	IsBooked  bool      `json:"is_booked"`
	BookingID *int64    `json:"booking_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Label renders the human-readable seat number, e.g. row 12 seat 3 -> "12C".
func (s *Seat) Label() string {
	return fmt.Sprintf("%d%c", s.Row, 'A'+rune(s.Number-1))
}

type Booking struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	FlightID  int64     `json:"flight_id"`
	SeatID    string    `json:"seat_id"`
	FinalFare int64     `json:"final_fare"`
	CreatedAt time.Time `json:"created_at"`
}
