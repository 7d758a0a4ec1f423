package s2_signals

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/hqm/backend/internal/contracts"
)

// CompositePolicy decides how tickers with missing periods are scored
type CompositePolicy string

const (
	// PolicyFullCoverage excludes any ticker missing a configured period
	PolicyFullCoverage CompositePolicy = "full_coverage"
	// PolicyPresentOnly averages over the periods a ticker has
	PolicyPresentOnly CompositePolicy = "present_only"
)

// ParseCompositePolicy validates a policy name
func ParseCompositePolicy(s string) (CompositePolicy, error) {
	switch CompositePolicy(s) {
	case PolicyFullCoverage, PolicyPresentOnly:
		return CompositePolicy(s), nil
	}
	return "", fmt.Errorf("%w: unknown composite policy %q", contracts.ErrInvalidArgument, s)
}

// CompositeScorer averages per-period percentiles into the HQM score
// ⭐ SSOT: HQM 점수 = 기간별 백분위의 산술평균
type CompositeScorer struct {
	periods []contracts.PeriodLabel
	policy  CompositePolicy
}

// NewCompositeScorer creates a scorer over the given periods
func NewCompositeScorer(periods []contracts.PeriodLabel, policy CompositePolicy) (*CompositeScorer, error) {
	if len(periods) == 0 {
		return nil, fmt.Errorf("%w: composite needs at least one period", contracts.ErrInvalidArgument)
	}
	if _, err := ParseCompositePolicy(string(policy)); err != nil {
		return nil, err
	}
	return &CompositeScorer{periods: periods, policy: policy}, nil
}

// Policy returns the configured missing-period policy
func (s *CompositeScorer) Policy() CompositePolicy {
	return s.policy
}

// Score returns ticker → mean percentile. Tickers with no usable period, or
// missing one under PolicyFullCoverage, are absent from the result.
func (s *CompositeScorer) Score(percentiles contracts.PercentileTable) map[string]float64 {
	out := make(map[string]float64, len(percentiles))
	values := make([]float64, 0, len(s.periods))

	for ticker, row := range percentiles {
		values = values[:0]
		complete := true
		for _, p := range s.periods {
			v, ok := row[p]
			if !ok {
				complete = false
				continue
			}
			values = append(values, v)
		}

		if len(values) == 0 || (!complete && s.policy == PolicyFullCoverage) {
			continue
		}
		out[ticker] = stat.Mean(values, nil)
	}

	return out
}
