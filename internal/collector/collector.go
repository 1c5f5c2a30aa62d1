package collector

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"BetaScope/internal/calculator"
	"BetaScope/internal/model"
)

// MockFetcher serves fixed series for development and testing.
type MockFetcher struct {
	Series map[string]model.PriceSeries
	Errs   map[string]error

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockFetcher) Name() string { return "mock" }

// FetchDailyCloses returns the stored series clipped to [from, to].
func (m *MockFetcher) FetchDailyCloses(ctx context.Context, id string, from, to time.Time) (model.PriceSeries, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[id]++
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return model.PriceSeries{}, err
	}
	if err, ok := m.Errs[id]; ok {
		return model.PriceSeries{}, err
	}
	s, ok := m.Series[id]
	if !ok {
		return model.PriceSeries{}, fmt.Errorf("%w: %s", ErrDataUnavailable, id)
	}
	lo, hi := model.DateOf(from), model.DateOf(to)
	var pts []model.PricePoint
	for _, p := range s.Points {
		d := model.DateOf(p.Date)
		if !d.Before(lo) && !d.After(hi) {
			pts = append(pts, p)
		}
	}
	if len(pts) == 0 {
		return model.PriceSeries{}, fmt.Errorf("%w: %s: nothing in range", ErrDataUnavailable, id)
	}
	return model.NewPriceSeries(id, pts), nil
}

// Calls reports how many times id was requested.
func (m *MockFetcher) Calls(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[id]
}

// Collector orchestrates fetching and beta estimation for a batch.
type Collector struct {
	Fetcher     Fetcher
	Timeout     time.Duration
	Concurrency int
}

// NewCollector creates a new Collector. Each fetch is bounded by timeout and
// at most concurrency target fetches run at once.
func NewCollector(fetcher Fetcher, timeout time.Duration, concurrency int) *Collector {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Collector{Fetcher: fetcher, Timeout: timeout, Concurrency: concurrency}
}

// Collect fetches the index once and then every target, estimating beta per
// target. A target failure is reported in its row and does not stop the
// batch; an index failure aborts the batch. Rows follow the order of targets.
func (c *Collector) Collect(ctx context.Context, indexID string, targets []model.Security, w model.Window) ([]model.BetaRow, error) {
	index, err := c.fetch(ctx, indexID, w)
	if err != nil {
		return nil, fmt.Errorf("fetch index %s: %w", indexID, err)
	}
	log.Printf("[INFO] index %s: %d closes", indexID, index.Len())

	rows := make([]model.BetaRow, len(targets))
	sem := make(chan struct{}, c.Concurrency)
	var wg sync.WaitGroup
	for i, sec := range targets {
		wg.Add(1)
		go func(i int, sec model.Security) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			rows[i] = c.estimate(ctx, sec, index, w)
		}(i, sec)
	}
	wg.Wait()
	return rows, nil
}

func (c *Collector) estimate(ctx context.Context, sec model.Security, index model.PriceSeries, w model.Window) model.BetaRow {
	row := model.BetaRow{Security: sec}
	target, err := c.fetch(ctx, sec.FIGI, w)
	if err != nil {
		log.Printf("[WARN] %s (%s): %v", sec.Label, sec.FIGI, err)
		row.Err = fmt.Errorf("%w %s: %w", ErrFetchFailed, sec.FIGI, err)
		return row
	}
	res, err := calculator.Estimate(target, index)
	if err != nil {
		log.Printf("[WARN] %s: estimate: %v", sec.Label, err)
		row.Err = err
		return row
	}
	row.Result = &res
	return row
}

func (c *Collector) fetch(ctx context.Context, id string, w model.Window) (model.PriceSeries, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	return c.Fetcher.FetchDailyCloses(ctx, id, w.From, w.To)
}
