package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"BetaScope/internal/model"
)

const (
	// DefaultTInvestURL is the production REST gateway.
	DefaultTInvestURL = "https://invest-public-api.tinkoff.ru/rest"

	getCandlesPath = "/tinkoff.public.invest.api.contract.v1.MarketDataService/GetCandles"
	dailyInterval  = "CANDLE_INTERVAL_DAY"
)

// gRPC status codes the gateway reports in error bodies.
const (
	codeInvalidArgument = 3
	codeNotFound        = 5
)

// TInvestFetcher implements Fetcher using the T-Invest REST gateway.
type TInvestFetcher struct {
	BaseURL string
	Token   string
	Client  *http.Client
	Limiter *rate.Limiter
	Breaker *gobreaker.CircuitBreaker
}

// NewTInvestFetcher creates a fetcher with optional proxy support. The limiter
// is shared by every request the fetcher makes; nil means unlimited.
func NewTInvestFetcher(baseURL, token, proxyURL string, timeout time.Duration, limiter *rate.Limiter) *TInvestFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if baseURL == "" {
		baseURL = DefaultTInvestURL
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &TInvestFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		Limiter: limiter,
		Breaker: newBreaker("t-invest"),
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		// An unknown instrument is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrDataUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("[WARN] circuit breaker %s: %s -> %s", name, from, to)
		},
	})
}

func (f *TInvestFetcher) Name() string { return "t-invest" }

type candlesRequest struct {
	InstrumentID     string    `json:"instrumentId"`
	From             time.Time `json:"from"`
	To               time.Time `json:"to"`
	Interval         string    `json:"interval"`
	CandleSourceType string    `json:"candleSourceType"`
}

type tCandle struct {
	Close      Quotation `json:"close"`
	Time       time.Time `json:"time"`
	IsComplete bool      `json:"isComplete"`
}

type candlesResponse struct {
	Candles []tCandle `json:"candles"`
}

type apiError struct {
	Code        int    `json:"code"`
	Message     string `json:"message"`
	Description string `json:"description"`
}

// FetchDailyCloses pulls daily candles chunk by chunk and keeps the closes.
func (f *TInvestFetcher) FetchDailyCloses(ctx context.Context, figi string, from, to time.Time) (model.PriceSeries, error) {
	var points []model.PricePoint
	for _, w := range SplitWindow(from, to) {
		candles, err := f.getCandles(ctx, figi, w.From, w.To)
		if err != nil {
			return model.PriceSeries{}, err
		}
		for _, c := range candles {
			points = append(points, model.PricePoint{Date: model.DateOf(c.Time), Price: c.Close.Float64()})
		}
	}
	if len(points) == 0 {
		return model.PriceSeries{}, fmt.Errorf("%w: %s: no candles from %s to %s",
			ErrDataUnavailable, figi, from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
	return model.NewPriceSeries(figi, points), nil
}

// SplitWindow cuts [from, to] into consecutive pieces no longer than one
// year, the widest range the gateway serves for daily candles.
func SplitWindow(from, to time.Time) []model.Window {
	var out []model.Window
	for start := from; start.Before(to); {
		end := start.AddDate(1, 0, 0)
		if end.After(to) {
			end = to
		}
		out = append(out, model.Window{From: start, To: end})
		start = end
	}
	return out
}

func (f *TInvestFetcher) getCandles(ctx context.Context, figi string, from, to time.Time) ([]tCandle, error) {
	if err := f.Limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("t-invest rate limit: %w", err)
	}
	out, err := f.Breaker.Execute(func() (interface{}, error) {
		return f.doGetCandles(ctx, figi, from, to)
	})
	if err != nil {
		return nil, err
	}
	return out.([]tCandle), nil
}

func (f *TInvestFetcher) doGetCandles(ctx context.Context, figi string, from, to time.Time) ([]tCandle, error) {
	body, err := json.Marshal(candlesRequest{
		InstrumentID:     figi,
		From:             from.UTC(),
		To:               to.UTC(),
		Interval:         dailyInterval,
		CandleSourceType: "CANDLE_SOURCE_UNSPECIFIED",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal candles request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.BaseURL+getCandlesPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if f.Token != "" {
		req.Header.Set("Authorization", "Bearer "+f.Token)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("t-invest fetch %s: %w", figi, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("t-invest read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(figi, resp.StatusCode, respBody)
	}

	var cr candlesResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return nil, fmt.Errorf("t-invest decode: %w", err)
	}
	return cr.Candles, nil
}

func decodeAPIError(figi string, status int, body []byte) error {
	var ae apiError
	_ = json.Unmarshal(body, &ae)
	msg := ae.Message
	if ae.Description != "" {
		msg = ae.Description
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if status == http.StatusNotFound || status == http.StatusBadRequest ||
		ae.Code == codeNotFound || ae.Code == codeInvalidArgument {
		return fmt.Errorf("%w: %s: %s", ErrDataUnavailable, figi, msg)
	}
	return fmt.Errorf("t-invest: status %d, body: %s", status, msg)
}
