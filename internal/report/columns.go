package report

import (
	"github.com/wonny/hqm/backend/internal/contracts"
)

// Format is the display format of a report column
type Format int

const (
	FormatText Format = iota
	FormatCurrency
	FormatInteger
	FormatPercent
)

// NumFmt is the spreadsheet number format for f
func (f Format) NumFmt() string {
	switch f {
	case FormatCurrency:
		return "$0.00"
	case FormatInteger:
		return "0"
	case FormatPercent:
		return "0.0%"
	default:
		return "@"
	}
}

// Column is one report column: header, format and how to read the row.
// Value returns ok=false for an absent value (rendered as an empty cell).
type Column struct {
	Header string
	Format Format
	Value  func(row contracts.ReportRow) (interface{}, bool)
}

// Columns returns the column layout for a report
// ⭐ SSOT: 리포트 컬럼 순서는 여기서만
//
//	hqm:          Ticker, Price, Number of Shares to Buy, (<Period> Price Return, <Period> Return Percentile)*, HQM Score
//	price_return: Ticker, Price, One-Year Price Return, Number of Shares to Buy
func Columns(r *contracts.Report) []Column {
	if r.Strategy == contracts.StrategyPriceReturn {
		return []Column{
			tickerColumn(),
			priceColumn(),
			returnColumn(contracts.Period1Y),
			sharesColumn(),
		}
	}

	cols := []Column{tickerColumn(), priceColumn(), sharesColumn()}
	for _, p := range r.Periods {
		cols = append(cols, returnColumn(p), percentileColumn(p))
	}
	return append(cols, Column{
		Header: "HQM Score",
		Format: FormatPercent,
		Value: func(row contracts.ReportRow) (interface{}, bool) {
			if row.HQMScore == nil {
				return nil, false
			}
			return *row.HQMScore, true
		},
	})
}

// Headers returns just the header line
func Headers(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Header
	}
	return out
}

func tickerColumn() Column {
	return Column{
		Header: "Ticker",
		Format: FormatText,
		Value: func(row contracts.ReportRow) (interface{}, bool) {
			return row.Ticker, true
		},
	}
}

func priceColumn() Column {
	return Column{
		Header: "Price",
		Format: FormatCurrency,
		Value: func(row contracts.ReportRow) (interface{}, bool) {
			return row.Price, true
		},
	}
}

func sharesColumn() Column {
	return Column{
		Header: "Number of Shares to Buy",
		Format: FormatInteger,
		Value: func(row contracts.ReportRow) (interface{}, bool) {
			return row.Shares, true
		},
	}
}

func returnColumn(p contracts.PeriodLabel) Column {
	return Column{
		Header: p.DisplayName() + " Price Return",
		Format: FormatPercent,
		Value: func(row contracts.ReportRow) (interface{}, bool) {
			v, ok := row.Returns[p]
			return v, ok
		},
	}
}

func percentileColumn(p contracts.PeriodLabel) Column {
	return Column{
		Header: p.DisplayName() + " Return Percentile",
		Format: FormatPercent,
		Value: func(row contracts.ReportRow) (interface{}, bool) {
			v, ok := row.Percentiles[p]
			return v, ok
		},
	}
}
