package calculator

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"BetaScope/internal/model"
)

var (
	// ErrInsufficientData means fewer than two return observations survive alignment.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvalidPrice means a price is non-positive or not finite.
	ErrInvalidPrice = errors.New("invalid price")
)

// Aligned holds the closes of two series on the dates they share.
type Aligned struct {
	Dates  []time.Time
	Target []float64
	Index  []float64
}

// Len returns the number of shared dates.
func (a Aligned) Len() int { return len(a.Dates) }

// Align inner-joins target and index on date, ascending.
func Align(target, index model.PriceSeries) Aligned {
	indexByDate := make(map[time.Time]float64, len(index.Points))
	for _, p := range index.Points {
		indexByDate[model.DateOf(p.Date)] = p.Price
	}

	type row struct {
		date          time.Time
		target, index float64
	}
	rows := make([]row, 0, len(target.Points))
	seen := make(map[time.Time]bool, len(target.Points))
	for _, p := range target.Points {
		d := model.DateOf(p.Date)
		ip, ok := indexByDate[d]
		if !ok || seen[d] {
			continue
		}
		seen[d] = true
		rows = append(rows, row{date: d, target: p.Price, index: ip})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].date.Before(rows[j].date) })

	a := Aligned{
		Dates:  make([]time.Time, len(rows)),
		Target: make([]float64, len(rows)),
		Index:  make([]float64, len(rows)),
	}
	for i, r := range rows {
		a.Dates[i] = r.date
		a.Target[i] = r.target
		a.Index[i] = r.index
	}
	return a
}

// LogReturns returns ln(p[i]/p[i-1]) for i >= 1. Prices must be positive.
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		out[i-1] = math.Log(prices[i] / prices[i-1])
	}
	return out
}

// Estimate regresses the daily log returns of target on those of index
// over their shared dates and returns beta and alpha rounded half-to-even
// to 2 and 3 decimal places.
func Estimate(target, index model.PriceSeries) (model.RegressionResult, error) {
	if err := validatePrices(target); err != nil {
		return model.RegressionResult{}, err
	}
	if err := validatePrices(index); err != nil {
		return model.RegressionResult{}, err
	}

	aligned := Align(target, index)
	if aligned.Len() < 2 {
		return model.RegressionResult{}, fmt.Errorf("%w: %d common dates for %s and %s",
			ErrInsufficientData, aligned.Len(), target.ID, index.ID)
	}

	x := LogReturns(aligned.Index)
	y := LogReturns(aligned.Target)
	beta, alpha, err := Fit(x, y)
	if err != nil {
		return model.RegressionResult{}, fmt.Errorf("%s on %s: %w", target.ID, index.ID, err)
	}

	return model.RegressionResult{
		Beta:         RoundBeta(beta),
		Alpha:        RoundAlpha(alpha),
		Observations: len(x),
	}, nil
}

func validatePrices(s model.PriceSeries) error {
	for _, p := range s.Points {
		if p.Price <= 0 || math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
			return fmt.Errorf("%w: %s on %s: %v", ErrInvalidPrice, s.ID, p.Date.Format("2006-01-02"), p.Price)
		}
	}
	return nil
}
