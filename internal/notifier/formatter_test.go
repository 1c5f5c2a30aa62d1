package notifier

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"BetaScope/internal/calculator"
	"BetaScope/internal/collector"
	"BetaScope/internal/model"
)

func TestFormatRow(t *testing.T) {
	tests := []struct {
		name string
		row  model.BetaRow
		want string
	}{
		{
			name: "below broker",
			row: model.BetaRow{
				Security: model.Security{Label: "LKOH", BrokerBeta: 0.62},
				Result:   &model.RegressionResult{Beta: 0.58, Alpha: 0.001},
			},
			want: "LKOH -6.45% - 0.58, 0.62",
		},
		{
			name: "above broker",
			row: model.BetaRow{
				Security: model.Security{Label: "VSMO", BrokerBeta: 1.02},
				Result:   &model.RegressionResult{Beta: 1.1},
			},
			want: "VSMO +7.84% - 1.1, 1.02",
		},
		{
			name: "equal",
			row: model.BetaRow{
				Security: model.Security{Label: "SBER", BrokerBeta: 0.5},
				Result:   &model.RegressionResult{Beta: 0.5},
			},
			want: "SBER +0.00% - 0.5, 0.5",
		},
		{
			name: "data unavailable",
			row: model.BetaRow{
				Security: model.Security{Label: "OZON", FIGI: "TCS80A10CW95", BrokerBeta: 0.44},
				Err:      fmt.Errorf("%w TCS80A10CW95: %w: not found", collector.ErrFetchFailed, collector.ErrDataUnavailable),
			},
			want: "OZON error: DataUnavailable: fetch TCS80A10CW95: data unavailable: not found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatRow(tt.row))
		})
	}
}

func TestFailureKind(t *testing.T) {
	assert.Equal(t, KindDataUnavailable, FailureKind(fmt.Errorf("x: %w", collector.ErrDataUnavailable)))
	assert.Equal(t, KindInsufficientData, FailureKind(fmt.Errorf("x: %w", calculator.ErrInsufficientData)))
	assert.Equal(t, KindInvalidPrice, FailureKind(calculator.ErrInvalidPrice))
	assert.Equal(t, KindFetchFailed, FailureKind(fmt.Errorf("%w X: %w", collector.ErrFetchFailed, errors.New("reset"))))
	assert.Equal(t, KindUnknown, FailureKind(errors.New("boom")))
}

func TestFormatReport(t *testing.T) {
	rows := []model.BetaRow{
		{Security: model.Security{Label: "A", BrokerBeta: 0.5}, Result: &model.RegressionResult{Beta: 0.55}},
		{Security: model.Security{Label: "B", BrokerBeta: 0.5}, Err: calculator.ErrInsufficientData},
		{Security: model.Security{Label: "C", BrokerBeta: 0.5}},
	}
	want := ReportHeader + "\n" +
		"A +10.00% - 0.55, 0.5\n" +
		"B error: InsufficientData: insufficient data\n" +
		"C error: Unknown: no result\n"
	assert.Equal(t, want, FormatReport(rows))
}

func TestFormatTelegramReport(t *testing.T) {
	w := model.Window{
		From: time.Date(2023, 10, 18, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 10, 18, 0, 0, 0, 0, time.UTC),
	}
	rows := []model.BetaRow{{Security: model.Security{Label: "<X>", BrokerBeta: 1}, Result: &model.RegressionResult{Beta: 1}}}
	got := FormatTelegramReport(rows, w)
	assert.Contains(t, got, "2023-10-18 .. 2024-10-18")
	assert.Contains(t, got, "&lt;X&gt; +0.00% - 1, 1")
	assert.Contains(t, got, "<pre>")
}
