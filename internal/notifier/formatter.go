package notifier

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"BetaScope/internal/calculator"
	"BetaScope/internal/collector"
	"BetaScope/internal/model"
)

// ReportHeader is the first line of every report.
const ReportHeader = "Label (diff. %) - BetaScope, broker"

// Failure kinds shown on error lines.
const (
	KindDataUnavailable  = "DataUnavailable"
	KindInsufficientData = "InsufficientData"
	KindInvalidPrice     = "InvalidPrice"
	KindFetchFailed      = "FetchFailed"
	KindUnknown          = "Unknown"
)

// FailureKind classifies a row error.
func FailureKind(err error) string {
	switch {
	case errors.Is(err, collector.ErrDataUnavailable):
		return KindDataUnavailable
	case errors.Is(err, calculator.ErrInsufficientData):
		return KindInsufficientData
	case errors.Is(err, calculator.ErrInvalidPrice):
		return KindInvalidPrice
	case errors.Is(err, collector.ErrFetchFailed):
		return KindFetchFailed
	default:
		return KindUnknown
	}
}

// BetaDiff returns how far beta is from brokerBeta, in percent of brokerBeta.
func BetaDiff(beta, brokerBeta float64) float64 {
	return (beta - brokerBeta) / brokerBeta * 100
}

// FormatRow renders one report line.
func FormatRow(row model.BetaRow) string {
	sec := row.Security
	if row.Err != nil || row.Result == nil {
		err := row.Err
		if err == nil {
			err = errors.New("no result")
		}
		return fmt.Sprintf("%s error: %s: %v", sec.Label, FailureKind(err), err)
	}
	beta := row.Result.Beta
	return fmt.Sprintf("%s %+.2f%% - %s, %s",
		sec.Label, BetaDiff(beta, sec.BrokerBeta), formatBeta(beta), formatBeta(sec.BrokerBeta))
}

// formatBeta prints the shortest form that reads back as v.
func formatBeta(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatReport renders the header and one line per row.
func FormatReport(rows []model.BetaRow) string {
	var b strings.Builder
	b.WriteString(ReportHeader)
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString(FormatRow(row))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatTelegramReport wraps the report in HTML for the Bot API.
func FormatTelegramReport(rows []model.BetaRow, w model.Window) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>Beta report</b> | %s .. %s\n\n", w.From.Format("2006-01-02"), w.To.Format("2006-01-02"))
	b.WriteString("<pre>")
	b.WriteString(html.EscapeString(FormatReport(rows)))
	b.WriteString("</pre>")
	return b.String()
}
