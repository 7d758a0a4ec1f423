package contracts

import (
	"encoding/json"
	"fmt"
	"maps"
)

// PeriodLabel identifies a return lookback window
// ⭐ SSOT: 기간 라벨과 공급자 필드명 매핑은 여기서만
type PeriodLabel string

const (
	Period1Y PeriodLabel = "year1"
	Period6M PeriodLabel = "month6"
	Period3M PeriodLabel = "month3"
	Period1M PeriodLabel = "month1"
)

// AllPeriods returns every period in report display order
func AllPeriods() []PeriodLabel {
	return []PeriodLabel{Period1Y, Period6M, Period3M, Period1M}
}

// ParsePeriod validates a period label from configuration or a request
func ParsePeriod(s string) (PeriodLabel, error) {
	p := PeriodLabel(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: unknown period %q", ErrInvalidArgument, s)
	}
	return p, nil
}

// Valid reports whether p is a known period
func (p PeriodLabel) Valid() bool {
	switch p {
	case Period1Y, Period6M, Period3M, Period1M:
		return true
	}
	return false
}

// ProviderField is the stats field carrying this period's return
func (p PeriodLabel) ProviderField() string {
	return string(p) + "ChangePercent"
}

// DisplayName is the report column prefix (e.g. "One-Year")
func (p PeriodLabel) DisplayName() string {
	switch p {
	case Period1Y:
		return "One-Year"
	case Period6M:
		return "Six-Month"
	case Period3M:
		return "Three-Month"
	case Period1M:
		return "One-Month"
	default:
		return string(p)
	}
}

// QuoteFields is one ticker's raw provider payload.
// Price 0 means the provider had no price. Missing Returns keys are absent values.
type QuoteFields struct {
	Price   float64                 `json:"price"`
	Returns map[PeriodLabel]float64 `json:"returns"`
}

// SymbolRecord is the validated per-ticker row inside a Snapshot.
// It is immutable: accessors return copies.
type SymbolRecord struct {
	ticker  string
	price   float64
	returns map[PeriodLabel]float64
}

// NewSymbolRecord copies returns so later mutation by the caller has no effect
func NewSymbolRecord(ticker string, price float64, returns map[PeriodLabel]float64) SymbolRecord {
	return SymbolRecord{
		ticker:  ticker,
		price:   price,
		returns: maps.Clone(returns),
	}
}

// Ticker returns the symbol
func (r SymbolRecord) Ticker() string { return r.ticker }

// Price returns the last price
func (r SymbolRecord) Price() float64 { return r.price }

// Return returns the period return and whether the provider supplied it
func (r SymbolRecord) Return(p PeriodLabel) (float64, bool) {
	v, ok := r.returns[p]
	return v, ok
}

// Returns returns a copy of all supplied period returns
func (r SymbolRecord) Returns() map[PeriodLabel]float64 {
	out := maps.Clone(r.returns)
	if out == nil {
		out = map[PeriodLabel]float64{}
	}
	return out
}

// MarshalJSON renders the record for logs and API payloads
func (r SymbolRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Ticker  string                  `json:"ticker"`
		Price   float64                 `json:"price"`
		Returns map[PeriodLabel]float64 `json:"returns"`
	}{r.ticker, r.price, r.Returns()})
}
