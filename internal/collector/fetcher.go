package collector

import (
	"context"
	"errors"
	"time"

	"BetaScope/internal/model"
)

// ErrDataUnavailable means the source has no closes for the identifier in the
// requested range, or does not know the identifier at all.
var ErrDataUnavailable = errors.New("data unavailable")

// ErrFetchFailed marks any error raised while fetching a target series.
var ErrFetchFailed = errors.New("fetch")

// Fetcher defines the interface for fetching daily closes.
type Fetcher interface {
	// FetchDailyCloses returns closes between from and to inclusive,
	// ascending and unique by date.
	FetchDailyCloses(ctx context.Context, id string, from, to time.Time) (model.PriceSeries, error)
	Name() string
}
