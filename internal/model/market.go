package model

import (
	"sort"
	"time"
)

// PricePoint is a single daily close.
type PricePoint struct {
	Date  time.Time // UTC midnight
	Price float64
}

// PriceSeries holds daily closes of one instrument, ascending by date with
// unique dates. Treat it as read-only once built.
type PriceSeries struct {
	ID     string
	Points []PricePoint
}

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewPriceSeries normalizes dates, sorts ascending and drops duplicate
// dates. For a duplicated date the point that came last in the input wins.
func NewPriceSeries(id string, points []PricePoint) PriceSeries {
	byDate := make(map[time.Time]float64, len(points))
	for _, p := range points {
		byDate[DateOf(p.Date)] = p.Price
	}
	out := make([]PricePoint, 0, len(byDate))
	for d, price := range byDate {
		out = append(out, PricePoint{Date: d, Price: price})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return PriceSeries{ID: id, Points: out}
}

// Len returns the number of points.
func (s PriceSeries) Len() int { return len(s.Points) }

// Span returns the first and last date, or zero times for an empty series.
func (s PriceSeries) Span() (first, last time.Time) {
	if len(s.Points) == 0 {
		return time.Time{}, time.Time{}
	}
	return s.Points[0].Date, s.Points[len(s.Points)-1].Date
}
