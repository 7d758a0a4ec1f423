package s2_signals

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/hqm/backend/internal/contracts"
)

func TestCompositeScorer_Score(t *testing.T) {
	table := contracts.PercentileTable{
		"FULL": {
			contracts.Period1Y: 0.5,
			contracts.Period6M: 0.75,
			contracts.Period3M: 1.0,
			contracts.Period1M: 0.25,
		},
		"PART": {
			contracts.Period1Y: 1.0,
			contracts.Period1M: 0.5,
		},
		"NONE": {},
	}

	tests := []struct {
		name   string
		policy CompositePolicy
		want   map[string]float64
	}{
		{
			name:   "full coverage drops partial rows",
			policy: PolicyFullCoverage,
			want:   map[string]float64{"FULL": 0.625},
		},
		{
			name:   "present only averages what exists",
			policy: PolicyPresentOnly,
			want:   map[string]float64{"FULL": 0.625, "PART": 0.75},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewCompositeScorer(contracts.AllPeriods(), tt.policy)
			require.NoError(t, err)

			got := s.Score(table)
			require.Len(t, got, len(tt.want))
			for k, v := range tt.want {
				assert.InDelta(t, v, got[k], 1e-12, "ticker %s", k)
			}
		})
	}
}

func TestCompositeScorer_SubsetOfPeriods(t *testing.T) {
	s, err := NewCompositeScorer([]contracts.PeriodLabel{contracts.Period1Y, contracts.Period1M}, PolicyFullCoverage)
	require.NoError(t, err)

	got := s.Score(contracts.PercentileTable{
		"PART": {contracts.Period1Y: 1.0, contracts.Period1M: 0.5},
	})
	assert.InDelta(t, 0.75, got["PART"], 1e-12)
}

func TestNewCompositeScorer_Invalid(t *testing.T) {
	_, err := NewCompositeScorer(nil, PolicyFullCoverage)
	assert.True(t, errors.Is(err, contracts.ErrInvalidArgument))

	_, err = NewCompositeScorer(contracts.AllPeriods(), CompositePolicy("median"))
	assert.True(t, errors.Is(err, contracts.ErrInvalidArgument))
}
