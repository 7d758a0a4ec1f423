package contracts

import (
	"fmt"
	"maps"
	"strings"
)

// Strategy selects how a run ranks the snapshot
type Strategy string

const (
	// StrategyPriceReturn ranks by one-year price return only
	StrategyPriceReturn Strategy = "price_return"
	// StrategyHQM ranks by the composite high-quality momentum score
	StrategyHQM Strategy = "hqm"
)

// ParseStrategy validates a strategy name
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyPriceReturn, StrategyHQM:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("%w: unknown strategy %q", ErrInvalidArgument, s)
}

// ScoreKey names the value a Selector orders rows by
type ScoreKey string

// ScoreHQM orders by composite HQM score
const ScoreHQM ScoreKey = "hqm_score"

// ReturnKey orders by a raw period return
func ReturnKey(p PeriodLabel) ScoreKey {
	return ScoreKey("return:" + string(p))
}

// PercentileKey orders by a single period percentile
func PercentileKey(p PeriodLabel) ScoreKey {
	return ScoreKey("percentile:" + string(p))
}

// RankedSymbol is one report row, passed from S2 to S3/S4
// ⭐ SSOT: S2 → S3 → S4 랭킹 결과 전달
type RankedSymbol struct {
	Rank        int                     `json:"rank"` // 1-based, 0 before selection
	Ticker      string                  `json:"ticker"`
	Price       float64                 `json:"price"`
	Returns     map[PeriodLabel]float64 `json:"returns"`
	Percentiles map[PeriodLabel]float64 `json:"percentiles,omitempty"`
	HQMScore    *float64                `json:"hqm_score,omitempty"`
}

// NewRankedSymbol builds an unranked row from a snapshot record
func NewRankedSymbol(rec SymbolRecord) RankedSymbol {
	return RankedSymbol{
		Ticker:  rec.Ticker(),
		Price:   rec.Price(),
		Returns: rec.Returns(),
	}
}

// Score resolves key against the row. ok is false when the value is absent.
func (r RankedSymbol) Score(key ScoreKey) (float64, bool) {
	switch {
	case key == ScoreHQM:
		if r.HQMScore == nil {
			return 0, false
		}
		return *r.HQMScore, true
	case strings.HasPrefix(string(key), "return:"):
		v, ok := r.Returns[PeriodLabel(strings.TrimPrefix(string(key), "return:"))]
		return v, ok
	case strings.HasPrefix(string(key), "percentile:"):
		v, ok := r.Percentiles[PeriodLabel(strings.TrimPrefix(string(key), "percentile:"))]
		return v, ok
	}
	return 0, false
}

// Clone returns a deep copy so later stages never alias earlier output
func (r RankedSymbol) Clone() RankedSymbol {
	out := r
	out.Returns = maps.Clone(r.Returns)
	out.Percentiles = maps.Clone(r.Percentiles)
	if r.HQMScore != nil {
		v := *r.HQMScore
		out.HQMScore = &v
	}
	return out
}

// IsTopRanked checks if the row is in top N ranks
func (r *RankedSymbol) IsTopRanked(n int) bool {
	return r.Rank <= n && r.Rank > 0
}

// PercentileTable maps ticker → period → percentile rank in [0,1]
type PercentileTable map[string]map[PeriodLabel]float64

// Set stores one percentile, creating the ticker row on demand
func (t PercentileTable) Set(ticker string, p PeriodLabel, v float64) {
	row, ok := t[ticker]
	if !ok {
		row = make(map[PeriodLabel]float64)
		t[ticker] = row
	}
	row[p] = v
}
