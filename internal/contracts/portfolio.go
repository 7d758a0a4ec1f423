package contracts

import (
	"github.com/shopspring/decimal"
)

// Weighting selects how capital is split across the selection
type Weighting string

const (
	WeightingEqual      Weighting = "equal"
	WeightingScoreBased Weighting = "score_based"
)

// Allocation is one line of the trade list
// ⭐ 계약: Shares = floor(PositionSize / Price), Cost = Shares × Price
type Allocation struct {
	Ticker       string          `json:"ticker"`
	Price        float64         `json:"price"`
	Weight       float64         `json:"weight"` // 0.0 ~ 1.0
	PositionSize decimal.Decimal `json:"position_size"`
	Shares       int64           `json:"shares"`
	Cost         decimal.Decimal `json:"cost"`
}

// TradeList is the S4 output: integer share counts within a fixed budget
// ⭐ SSOT: S4 → S5 매수 목록 전달
// 불변식: Invested ≤ Capital
type TradeList struct {
	Weighting   Weighting       `json:"weighting"`
	Capital     decimal.Decimal `json:"capital"`
	Invested    decimal.Decimal `json:"invested"`
	Cash        decimal.Decimal `json:"cash"`
	Allocations []Allocation    `json:"allocations"`
}

// Count returns the number of allocation lines
func (t *TradeList) Count() int {
	return len(t.Allocations)
}

// Get finds the allocation for a ticker
func (t *TradeList) Get(ticker string) (*Allocation, bool) {
	for i := range t.Allocations {
		if t.Allocations[i].Ticker == ticker {
			return &t.Allocations[i], true
		}
	}
	return nil, false
}

// SharesByTicker indexes share counts for report rendering
func (t *TradeList) SharesByTicker() map[string]int64 {
	out := make(map[string]int64, len(t.Allocations))
	for _, a := range t.Allocations {
		out[a.Ticker] = a.Shares
	}
	return out
}

// WithinBudget checks the budget invariant
func (t *TradeList) WithinBudget() bool {
	return t.Invested.LessThanOrEqual(t.Capital)
}
