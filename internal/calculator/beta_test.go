package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BetaScope/internal/model"
)

func day(n int) time.Time {
	return time.Date(2024, time.March, n, 0, 0, 0, 0, time.UTC)
}

// series builds a series with consecutive dates starting at day(start).
func series(id string, start int, prices ...float64) model.PriceSeries {
	points := make([]model.PricePoint, len(prices))
	for i, p := range prices {
		points[i] = model.PricePoint{Date: day(start + i), Price: p}
	}
	return model.NewPriceSeries(id, points)
}

func TestEstimate_KnownValues(t *testing.T) {
	index := series("IMOEX", 1, 100, 101, 102, 103)
	target := series("TGT", 1, 50, 51.02, 52.06, 53.12)

	res, err := Estimate(target, index)
	require.NoError(t, err)
	// Target returns are ~2% per day while index returns drift down from
	// ~1%, so the slope over three observations is small and the
	// intercept absorbs the level.
	assert.Equal(t, 0.2, res.Beta)
	assert.Equal(t, 0.018, res.Alpha)
	assert.Equal(t, 3, res.Observations)
}

func TestEstimate_ProportionalSeries(t *testing.T) {
	index := series("IMOEX", 1, 100, 102, 101, 105, 104, 108)
	target := series("TGT", 1, 50, 51, 50.5, 52.5, 52, 54)

	res, err := Estimate(target, index)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Beta)
	assert.Equal(t, 0.0, res.Alpha)
	assert.Equal(t, 5, res.Observations)
}

func TestEstimate_PartialOverlap(t *testing.T) {
	index := series("IMOEX", 1, 100, 102, 101, 105, 104) // D1..D5
	target := series("TGT", 3, 50, 52, 51.5, 53, 55)    // D3..D7

	res, err := Estimate(target, index)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Observations)
	assert.Equal(t, 1.01, res.Beta)
	assert.Equal(t, 0.0, res.Alpha)

	trimmed, err := Estimate(series("TGT", 3, 50, 52, 51.5), series("IMOEX", 3, 101, 105, 104))
	require.NoError(t, err)
	assert.Equal(t, trimmed, res)
}

func TestEstimate_IgnoresDatesInOneSeriesOnly(t *testing.T) {
	index := model.NewPriceSeries("IMOEX", []model.PricePoint{
		{Date: day(1), Price: 100},
		{Date: day(2), Price: 103},
		{Date: day(4), Price: 99},
		{Date: day(5), Price: 104},
		{Date: day(8), Price: 102},
		{Date: day(9), Price: 107},
	})
	target := model.NewPriceSeries("TGT", []model.PricePoint{
		{Date: day(2), Price: 20},
		{Date: day(3), Price: 7}, // index has no D3
		{Date: day(5), Price: 21},
		{Date: day(8), Price: 20.5},
		{Date: day(9), Price: 22},
		{Date: day(10), Price: 1}, // index has no D10
	})
	intersection := func(s model.PriceSeries, keep ...int) model.PriceSeries {
		var pts []model.PricePoint
		for _, p := range s.Points {
			for _, k := range keep {
				if p.Date.Equal(day(k)) {
					pts = append(pts, p)
				}
			}
		}
		return model.NewPriceSeries(s.ID, pts)
	}

	got, err := Estimate(target, index)
	require.NoError(t, err)
	want, err := Estimate(intersection(target, 2, 5, 8, 9), intersection(index, 2, 5, 8, 9))
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 3, got.Observations)
}

func TestEstimate_Deterministic(t *testing.T) {
	index := series("IMOEX", 1, 3100, 3125.5, 3090.25, 3150, 3149.75, 3170.1, 3120)
	target := series("TGT", 1, 270.1, 272.3, 268.9, 275.4, 276, 279.8, 271.2)

	first, err := Estimate(target, index)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Estimate(target, index)
		require.NoError(t, err)
		assert.Equal(t, math.Float64bits(first.Beta), math.Float64bits(again.Beta))
		assert.Equal(t, math.Float64bits(first.Alpha), math.Float64bits(again.Alpha))
	}
}

func TestEstimate_RoundingLaw(t *testing.T) {
	cases := []struct {
		index, target []float64
	}{
		{[]float64{100, 101.3, 99.8, 102.7, 103.1}, []float64{10, 10.4, 9.7, 10.9, 11.3}},
		{[]float64{3000, 3010, 2990, 3050, 3040, 3100}, []float64{250, 249, 251, 248, 255, 252}},
		{[]float64{1, 1.01, 1.03, 1.02}, []float64{7.77, 7.91, 8.2, 8.01}},
	}
	for _, tc := range cases {
		res, err := Estimate(series("T", 1, tc.target...), series("I", 1, tc.index...))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, decimal.NewFromFloat(res.Beta).Exponent(), int32(-2), "beta %v", res.Beta)
		assert.GreaterOrEqual(t, decimal.NewFromFloat(res.Alpha).Exponent(), int32(-3), "alpha %v", res.Alpha)
	}
}

func TestEstimate_InsufficientData(t *testing.T) {
	tests := []struct {
		name          string
		target, index model.PriceSeries
	}{
		{"empty", model.PriceSeries{ID: "T"}, model.PriceSeries{ID: "I"}},
		{"disjoint", series("T", 1, 10, 11, 12), series("I", 10, 10, 11, 12)},
		{"one common date", series("T", 1, 10, 11, 12), series("I", 3, 10, 11, 12)},
		{"two common dates", series("T", 1, 10, 11, 12), series("I", 2, 10, 11, 12)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Estimate(tt.target, tt.index)
			require.ErrorIs(t, err, ErrInsufficientData)
		})
	}
}

func TestEstimate_InvalidPrice(t *testing.T) {
	good := series("I", 1, 100, 101, 102, 103)
	tests := []struct {
		name          string
		target, index model.PriceSeries
	}{
		{"zero target", series("T", 1, 10, 0, 12, 13), good},
		{"negative index", good, series("I", 1, 100, -1, 102, 103)},
		{"nan", series("T", 1, 10, math.NaN(), 12, 13), good},
		{"inf", series("T", 1, 10, math.Inf(1), 12, 13), good},
		{"outside overlap", series("T", 1, 10, 11, 12, 13, -5), good},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Estimate(tt.target, tt.index)
			require.ErrorIs(t, err, ErrInvalidPrice)
		})
	}
}

func TestEstimate_FlatIndexUsesMinimumNorm(t *testing.T) {
	index := series("I", 1, 100, 100, 100, 100)
	target := series("T", 1, 50, 51, 50.5, 52)

	res, err := Estimate(target, index)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Beta)
	assert.Equal(t, 0.013, res.Alpha)
}

func TestAlign(t *testing.T) {
	index := series("I", 1, 1, 2, 3, 4, 5)
	target := series("T", 3, 30, 40, 50, 60)

	a := Align(target, index)
	require.Equal(t, 3, a.Len())
	assert.Equal(t, []time.Time{day(3), day(4), day(5)}, a.Dates)
	assert.Equal(t, []float64{30, 40, 50}, a.Target)
	assert.Equal(t, []float64{3, 4, 5}, a.Index)
}

func TestLogReturns(t *testing.T) {
	assert.Nil(t, LogReturns([]float64{100}))
	got := LogReturns([]float64{100, 110, 99})
	require.Len(t, got, 2)
	assert.InDelta(t, math.Log(1.1), got[0], 1e-15)
	assert.InDelta(t, math.Log(0.9), got[1], 1e-15)
}
