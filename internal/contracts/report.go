package contracts

import (
	"time"
)

// Report is everything a ReportWriter renders for one strategy pass
type Report struct {
	RunID    string        `json:"run_id"`
	Strategy Strategy      `json:"strategy"`
	Periods  []PeriodLabel `json:"periods"`
	AsOf     time.Time     `json:"as_of"`
	Rows     []ReportRow   `json:"rows"`
	Trades   *TradeList    `json:"trades,omitempty"`
	Missing  []string      `json:"missing,omitempty"`
}

// ReportRow joins a ranked row with its share count
type ReportRow struct {
	RankedSymbol
	Shares int64 `json:"shares"`
}

// NewReport joins the selection with the trade list in selection order
func NewReport(runID string, strategy Strategy, periods []PeriodLabel, asOf time.Time, selected []RankedSymbol, trades *TradeList) *Report {
	var shares map[string]int64
	if trades != nil {
		shares = trades.SharesByTicker()
	}

	rows := make([]ReportRow, 0, len(selected))
	for _, s := range selected {
		rows = append(rows, ReportRow{RankedSymbol: s.Clone(), Shares: shares[s.Ticker]})
	}

	return &Report{
		RunID:    runID,
		Strategy: strategy,
		Periods:  periods,
		AsOf:     asOf,
		Rows:     rows,
		Trades:   trades,
	}
}
