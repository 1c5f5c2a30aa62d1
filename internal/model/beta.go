package model

import "time"

// Security is one target instrument from the config.
type Security struct {
	Label      string  `yaml:"label"`
	FIGI       string  `yaml:"figi"`
	BrokerBeta float64 `yaml:"broker_beta"`
}

// RegressionResult is the rounded outcome of a beta estimation.
// Beta carries 2 decimal places, Alpha 3.
type RegressionResult struct {
	Beta         float64
	Alpha        float64
	Observations int
}

// BetaRow is one line of a report: either Result or Err is set.
type BetaRow struct {
	Security Security
	Result   *RegressionResult
	Err      error
}

// Window is the inclusive date range a run covers.
type Window struct {
	From time.Time
	To   time.Time
}

// TrailingWindow returns the window of the given number of months that ends
// lagDays before now.
func TrailingWindow(now time.Time, months, lagDays int) Window {
	end := now.AddDate(0, 0, -lagDays)
	return Window{From: AddMonths(end, -months), To: end}
}

// AddMonths shifts t by whole months, clamping the day to the end of the
// target month: Feb 29 minus 12 months is Feb 28, Mar 31 minus 1 is Feb 28/29.
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
