package s2_signals

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/hqm/backend/internal/contracts"
	"github.com/wonny/hqm/backend/pkg/logger"
)

// PercentileRanker converts one period's returns into cross-sectional ranks
// ⭐ SSOT: 백분위 정의는 여기서만
//
// percentile(t) = |{u : v(u) ≤ v(t)}| / |defined values|
// Ties share the inclusive rank, so the largest value always maps to 1.0.
type PercentileRanker struct {
	logger *logger.Logger
}

// NewPercentileRanker creates a new percentile ranker
func NewPercentileRanker(log *logger.Logger) *PercentileRanker {
	return &PercentileRanker{logger: log.WithComponent("percentile")}
}

// Rank returns ticker → percentile for every defined value. NaN and
// infinite values are excluded from both the denominator and the output.
func (r *PercentileRanker) Rank(values map[string]float64, period contracts.PeriodLabel) map[string]float64 {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if isDefined(v) {
			sorted = append(sorted, v)
		}
	}

	out := make(map[string]float64, len(sorted))
	if len(sorted) == 0 {
		return out
	}
	slices.Sort(sorted)

	for ticker, v := range values {
		if !isDefined(v) {
			continue
		}
		// empirical CDF on sorted data is exactly the inclusive ≤ fraction
		out[ticker] = stat.CDF(v, stat.Empirical, sorted, nil)
	}

	r.logger.WithFields(map[string]interface{}{
		"period":   string(period),
		"defined":  len(sorted),
		"excluded": len(values) - len(sorted),
	}).Debug("Ranked period returns")

	return out
}

// RankSnapshot ranks every requested period of a sealed snapshot
func (r *PercentileRanker) RankSnapshot(snap *contracts.Snapshot, periods []contracts.PeriodLabel) (contracts.PercentileTable, error) {
	if err := snap.EnsureSealed(); err != nil {
		return nil, err
	}

	table := make(contracts.PercentileTable, snap.Len())
	for _, p := range periods {
		for ticker, pct := range r.Rank(snap.Values(p), p) {
			table.Set(ticker, p, pct)
		}
	}
	return table, nil
}

func isDefined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
