// Package fare computes final ticket prices. Calculate is a pure function:
// all context (occupancy, time to departure) is passed in by the caller.
package fare

import (
	"math"

	apperrors "skylark/internal/errors"
)

// Pricing policy constants. Surcharges and discounts are flat amounts in
// currency units; multipliers apply after them.
const (
	WindowSurcharge = 200
	SeniorDiscount  = 150
	SeniorAge       = 60

	SurgeCap             = 0.5
	LastMinuteThreshold  = 120 // minutes before departure
	LastMinuteMultiplier = 1.05
)

// Input carries everything the pricing policy depends on.
type Input struct {
	BaseFare               float64
	IsWindow               bool
	PassengerAge           int
	BookedSeats            int
	TotalSeats             int
	MinutesBeforeDeparture int
}

// Step is one applied adjustment. Additive steps set Amount; multiplicative
// steps set Multiplier (recorded even when 1.0 so pricing can be audited).
// Subtotal is the running fare after the step.
type Step struct {
	Factor     string  `json:"factor"`
	Amount     float64 `json:"amount,omitempty"`
	Multiplier float64 `json:"multiplier,omitempty"`
	Subtotal   float64 `json:"subtotal"`
}

// Result is the rounded final fare plus the ordered breakdown.
type Result struct {
	FinalFare int64  `json:"finalFare"`
	Breakdown []Step `json:"breakdown"`
}

// Calculate applies the pricing policy in a fixed order: base fare, window
// surcharge, senior discount, occupancy surge, last-minute multiplier,
// round to nearest.
func Calculate(in Input) (Result, error) {
	if in.BaseFare <= 0 {
		return Result{}, apperrors.InvalidInputf("base fare must be positive, got %.2f", in.BaseFare)
	}
	if in.TotalSeats <= 0 {
		return Result{}, apperrors.InvalidInputf("total seats must be positive, got %d", in.TotalSeats)
	}
	if in.BookedSeats < 0 {
		return Result{}, apperrors.InvalidInputf("booked seats must not be negative, got %d", in.BookedSeats)
	}
	if in.PassengerAge < 0 {
		return Result{}, apperrors.InvalidInputf("passenger age must not be negative, got %d", in.PassengerAge)
	}

	fare := in.BaseFare
	breakdown := []Step{{Factor: "base", Amount: in.BaseFare, Subtotal: fare}}

	if in.IsWindow {
		fare += WindowSurcharge
		breakdown = append(breakdown, Step{Factor: "windowSurcharge", Amount: WindowSurcharge, Subtotal: fare})
	}

	if in.PassengerAge >= SeniorAge {
		fare -= SeniorDiscount
		breakdown = append(breakdown, Step{Factor: "seniorDiscount", Amount: -SeniorDiscount, Subtotal: fare})
	}

	occupancy := float64(in.BookedSeats) / float64(in.TotalSeats)
	surge := 1 + math.Min(SurgeCap, occupancy)
	fare *= surge
	breakdown = append(breakdown, Step{Factor: "surgeMultiplier", Multiplier: surge, Subtotal: fare})

	lastMinute := 1.0
	if in.MinutesBeforeDeparture < LastMinuteThreshold {
		lastMinute = LastMinuteMultiplier
	}
	fare *= lastMinute
	breakdown = append(breakdown, Step{Factor: "lastMinuteMultiplier", Multiplier: lastMinute, Subtotal: fare})

	return Result{
		FinalFare: int64(math.Round(fare)),
		Breakdown: breakdown,
	}, nil
}
