package models

import "time"

// NATS event subjects
const (
	EventSeatLocked            = "seat.locked"
	EventBookingConfirmed      = "booking.confirmed"
	EventBookingCancelled      = "booking.cancelled"
	EventGroupBookingConfirmed = "booking.group.confirmed"
	EventFlightCreated         = "flight.created"
	EventFlightStatusChanged   = "flight.status.changed"
)

// SeatLockedEvent is published when a checkout lock is acquired
type SeatLockedEvent struct {
	SeatID     string    `json:"seat_id"`
	UserID     int64     `json:"user_id"`
	FlightID   int64     `json:"flight_id"`
	TTLSeconds int       `json:"ttl_seconds"`
	Timestamp  time.Time `json:"timestamp"`
}

// BookingConfirmedEvent is published after a booking commit succeeds
type BookingConfirmedEvent struct {
	BookingID int64     `json:"booking_id"`
	UserID    int64     `json:"user_id"`
	FlightID  int64     `json:"flight_id"`
	SeatID    string    `json:"seat_id"`
	FinalFare int64     `json:"final_fare"`
	Timestamp time.Time `json:"timestamp"`
}

// BookingCancelledEvent is published after a booking is cancelled
type BookingCancelledEvent struct {
	BookingID int64     `json:"booking_id"`
	UserID    int64     `json:"user_id"`
	SeatID    string    `json:"seat_id"`
	Timestamp time.Time `json:"timestamp"`
}

// GroupBookingConfirmedEvent is published after a batch booking commits
type GroupBookingConfirmedEvent struct {
	UserID     int64     `json:"user_id"`
	FlightID   int64     `json:"flight_id"`
	SeatClass  string    `json:"seat_class"`
	BookingIDs []int64   `json:"booking_ids"`
	Timestamp  time.Time `json:"timestamp"`
}

// FlightCreatedEvent triggers search-index sync in the consumer worker
type FlightCreatedEvent struct {
	FlightID  int64     `json:"flight_id"`
	Timestamp time.Time `json:"timestamp"`
}

// FlightStatusChangedEvent triggers a partial search-index update
type FlightStatusChangedEvent struct {
	FlightID  int64     `json:"flight_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
