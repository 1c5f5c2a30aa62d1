package calculator

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

const (
	betaPlaces  = 2
	alphaPlaces = 3

	// Every finite float64 has an exact decimal expansion of at most this
	// many fractional digits.
	exactFloatDigits = 1074
)

// RoundBeta rounds half-to-even to 2 decimal places.
func RoundBeta(v float64) float64 { return roundBank(v, betaPlaces) }

// RoundAlpha rounds half-to-even to 3 decimal places.
func RoundAlpha(v float64) float64 { return roundBank(v, alphaPlaces) }

// roundBank rounds the exact binary value of v rather than its shortest
// decimal form: 0.125 becomes 0.12, while 0.615, stored just below the tie,
// becomes 0.61.
func roundBank(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	d, err := decimal.NewFromString(strconv.FormatFloat(v, 'f', exactFloatDigits, 64))
	if err != nil {
		d = decimal.NewFromFloat(v)
	}
	return d.RoundBank(places).InexactFloat64()
}
