package s2_signals

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/hqm/backend/internal/contracts"
	"github.com/wonny/hqm/backend/pkg/logger"
)

func TestPercentileRanker_Rank(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]float64
		want   map[string]float64
	}{
		{
			name:   "inclusive ties",
			values: map[string]float64{"A": 0.10, "B": 0.20, "C": 0.20, "D": 0.30},
			want:   map[string]float64{"A": 0.25, "B": 0.75, "C": 0.75, "D": 1.0},
		},
		{
			name:   "negative returns",
			values: map[string]float64{"A": -0.5, "B": 0.0, "C": 0.5, "D": -0.1},
			want:   map[string]float64{"A": 0.25, "D": 0.5, "B": 0.75, "C": 1.0},
		},
		{
			name:   "single value",
			values: map[string]float64{"A": 0.42},
			want:   map[string]float64{"A": 1.0},
		},
		{
			name:   "all equal",
			values: map[string]float64{"A": 1, "B": 1, "C": 1},
			want:   map[string]float64{"A": 1, "B": 1, "C": 1},
		},
		{
			name:   "NaN excluded from denominator",
			values: map[string]float64{"A": 0.1, "B": math.NaN(), "C": 0.3},
			want:   map[string]float64{"A": 0.5, "C": 1.0},
		},
		{
			name:   "empty",
			values: map[string]float64{},
			want:   map[string]float64{},
		},
	}

	r := NewPercentileRanker(logger.NewNop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Rank(tt.values, contracts.Period1Y)
			require.Len(t, got, len(tt.want))
			for k, v := range tt.want {
				assert.InDelta(t, v, got[k], 1e-12, "ticker %s", k)
			}
		})
	}
}

func TestPercentileRanker_Bounds(t *testing.T) {
	values := map[string]float64{}
	for i := 0; i < 50; i++ {
		values[string(rune('A'+i%26))+string(rune('a'+i/26))] = math.Sin(float64(i))
	}

	got := NewPercentileRanker(logger.NewNop()).Rank(values, contracts.Period3M)

	maxSeen := 0.0
	for _, v := range got {
		assert.Greater(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
		maxSeen = math.Max(maxSeen, v)
	}
	assert.Equal(t, 1.0, maxSeen)
}

func TestPercentileRanker_RankSnapshot(t *testing.T) {
	r := NewPercentileRanker(logger.NewNop())

	_, err := r.RankSnapshot(&contracts.Snapshot{}, contracts.AllPeriods())
	assert.True(t, errors.Is(err, contracts.ErrConsistency), "unsealed snapshot is rejected")

	b := contracts.NewSnapshotBuilder([]string{"A", "B"})
	b.Add("A", contracts.QuoteFields{Price: 1, Returns: map[contracts.PeriodLabel]float64{contracts.Period1Y: 0.1, contracts.Period1M: 0.5}})
	b.Add("B", contracts.QuoteFields{Price: 1, Returns: map[contracts.PeriodLabel]float64{contracts.Period1Y: 0.2}})
	snap, err := b.Seal(time.Now())
	require.NoError(t, err)

	table, err := r.RankSnapshot(snap, contracts.AllPeriods())
	require.NoError(t, err)

	assert.Equal(t, 0.5, table["A"][contracts.Period1Y])
	assert.Equal(t, 1.0, table["B"][contracts.Period1Y])
	assert.Equal(t, 1.0, table["A"][contracts.Period1M])
	_, ok := table["B"][contracts.Period1M]
	assert.False(t, ok, "missing return has no percentile")
}
