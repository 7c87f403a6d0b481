package fare

import (
	"testing"

	apperrors "skylark/internal/errors"

	"github.com/stretchr/testify/assert"
)

func TestCalculateCanonicalExample(t *testing.T) {
	// base=3000, window, age 65, 80/100 booked, 90 minutes out:
	// (3000+200-150) * 1.5 * 1.05 = 4803.75 -> 4804
	result, err := Calculate(Input{
		BaseFare:               3000,
		IsWindow:               true,
		PassengerAge:           65,
		BookedSeats:            80,
		TotalSeats:             100,
		MinutesBeforeDeparture: 90,
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(4804), result.FinalFare)

	factors := make([]string, len(result.Breakdown))
	for i, step := range result.Breakdown {
		factors[i] = step.Factor
	}
	assert.Equal(t, []string{"base", "windowSurcharge", "seniorDiscount", "surgeMultiplier", "lastMinuteMultiplier"}, factors)

	assert.Equal(t, 1.5, result.Breakdown[3].Multiplier, "surge capped at 1.5 since 0.8 > 0.5")
	assert.Equal(t, 1.05, result.Breakdown[4].Multiplier, "90 < 120 minutes is last-minute")
}

func TestCalculateTable(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want int64
	}{
		{
			name: "plain fare, empty flight, far from departure",
			in:   Input{BaseFare: 1000, PassengerAge: 30, BookedSeats: 0, TotalSeats: 100, MinutesBeforeDeparture: 600},
			want: 1000,
		},
		{
			name: "window surcharge only",
			in:   Input{BaseFare: 1000, IsWindow: true, PassengerAge: 30, TotalSeats: 100, MinutesBeforeDeparture: 600},
			want: 1200,
		},
		{
			name: "senior discount only",
			in:   Input{BaseFare: 1000, PassengerAge: 60, TotalSeats: 100, MinutesBeforeDeparture: 600},
			want: 850,
		},
		{
			name: "surge below cap",
			in:   Input{BaseFare: 1000, PassengerAge: 30, BookedSeats: 30, TotalSeats: 100, MinutesBeforeDeparture: 600},
			want: 1300,
		},
		{
			name: "surge exactly at cap",
			in:   Input{BaseFare: 1000, PassengerAge: 30, BookedSeats: 50, TotalSeats: 100, MinutesBeforeDeparture: 600},
			want: 1500,
		},
		{
			name: "last minute boundary is exclusive at 120",
			in:   Input{BaseFare: 1000, PassengerAge: 30, TotalSeats: 100, MinutesBeforeDeparture: 120},
			want: 1000,
		},
		{
			name: "just inside last minute window",
			in:   Input{BaseFare: 1000, PassengerAge: 30, TotalSeats: 100, MinutesBeforeDeparture: 119},
			want: 1050,
		},
		{
			name: "already departed counts as last minute",
			in:   Input{BaseFare: 1000, PassengerAge: 30, TotalSeats: 100, MinutesBeforeDeparture: -10},
			want: 1050,
		},
		{
			name: "rounds to nearest",
			in:   Input{BaseFare: 999, PassengerAge: 30, BookedSeats: 1, TotalSeats: 3, MinutesBeforeDeparture: 600},
			want: 1332, // 999 * (1+1/3) = 1331.999...
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Calculate(tt.in)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, result.FinalFare)
		})
	}
}

func TestCalculateRecordsNoOpMultipliers(t *testing.T) {
	result, err := Calculate(Input{BaseFare: 500, PassengerAge: 30, TotalSeats: 200, MinutesBeforeDeparture: 300})
	assert.NoError(t, err)

	// Even with nothing to adjust, surge and last-minute factors must appear
	// so callers can audit pricing.
	assert.Len(t, result.Breakdown, 3)
	assert.Equal(t, "surgeMultiplier", result.Breakdown[1].Factor)
	assert.Equal(t, 1.0, result.Breakdown[1].Multiplier)
	assert.Equal(t, "lastMinuteMultiplier", result.Breakdown[2].Factor)
	assert.Equal(t, 1.0, result.Breakdown[2].Multiplier)
}

func TestCalculateInvalidInput(t *testing.T) {
	cases := map[string]Input{
		"zero total seats":   {BaseFare: 1000, TotalSeats: 0},
		"negative base fare": {BaseFare: -5, TotalSeats: 100},
		"zero base fare":     {BaseFare: 0, TotalSeats: 100},
		"negative booked":    {BaseFare: 1000, TotalSeats: 100, BookedSeats: -1},
		"negative age":       {BaseFare: 1000, TotalSeats: 100, PassengerAge: -1},
	}

	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Calculate(in)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}
