// Package zone classifies a balance and daily spend rate into a survival zone.
package zone

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Zone is the coarse risk classification derived from days remaining.
type Zone string

const (
	Green Zone = "green"
	Red   Zone = "red"
	Black Zone = "black"
)

const (
	// NoDaysLeft is displayed instead of a number when the runway is zero or negative.
	NoDaysLeft = "Tidak Ada Sisa"

	// NoSpendDays is the runway reported when nothing is being spent.
	NoSpendDays = 9999

	// RedThreshold is the first day count that is considered safe.
	RedThreshold = 20
)

const (
	blackMessage = "💀 BLACK ZONE!!! HATI-HATI SEGERA KELUAR DARI ZONA INI!!"
	redMessage   = "⚠️ RED ZONE!! Hemat lagi ya, jangan boros-boros!"
	greenMessage = "✅ Green Zone. Aman."
)

// ErrInvalidInput is returned for negative spend rates and non-finite numbers.
var ErrInvalidInput = errors.New("invalid balance or daily spend")

// Result is the outcome of a classification.
type Result struct {
	Days        int    `json:"days"`
	Zone        Zone   `json:"zone"`
	DaysDisplay string `json:"days_remaining"`
	Message     string `json:"message"`
}

// Classify computes floor(balance/dailySpend) and maps it onto a zone.
// A daily spend of exactly zero means the money never runs out.
func Classify(balance, dailySpend float64) (Result, error) {
	if !finite(balance) || !finite(dailySpend) {
		return Result{}, fmt.Errorf("%w: values must be finite numbers", ErrInvalidInput)
	}
	if dailySpend < 0 {
		return Result{}, fmt.Errorf("%w: daily spend %v is negative", ErrInvalidInput, dailySpend)
	}

	days := NoSpendDays
	if dailySpend > 0 {
		days = floorDays(balance / dailySpend)
	}
	return FromDays(days), nil
}

// FromDays maps a day count onto its zone, display string and message.
func FromDays(days int) Result {
	switch {
	case days <= 0:
		return Result{Days: days, Zone: Black, DaysDisplay: NoDaysLeft, Message: blackMessage}
	case days < RedThreshold:
		return Result{Days: days, Zone: Red, DaysDisplay: strconv.Itoa(days), Message: redMessage}
	default:
		return Result{Days: days, Zone: Green, DaysDisplay: strconv.Itoa(days), Message: greenMessage}
	}
}

func floorDays(ratio float64) int {
	f := math.Floor(ratio)
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	if f < math.MinInt32 {
		return math.MinInt32
	}
	return int(f)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
