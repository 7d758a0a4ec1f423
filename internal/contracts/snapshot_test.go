package contracts

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotBuilder_Seal(t *testing.T) {
	b := NewSnapshotBuilder([]string{"AAPL", "MSFT", "ZZZZ", "BAD"})

	assert.True(t, b.Add("MSFT", QuoteFields{Price: 410, Returns: map[PeriodLabel]float64{Period1Y: 0.2}}))
	assert.True(t, b.Add("AAPL", QuoteFields{Price: 187, Returns: map[PeriodLabel]float64{Period1Y: 0.1, Period6M: 0.05}}))
	assert.True(t, b.Add("BAD", QuoteFields{Price: 0}))
	assert.False(t, b.Add("TSLA", QuoteFields{Price: 250}), "ticker outside the universe is ignored")

	snap, err := b.Seal(time.Unix(0, 0))
	require.NoError(t, err)

	assert.True(t, snap.Sealed())
	assert.Equal(t, 4, snap.Requested())
	assert.Equal(t, 2, snap.Len())
	assert.Equal(t, []string{"ZZZZ", "BAD"}, snap.Missing())

	recs := snap.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "AAPL", recs[0].Ticker(), "records keep universe order")
	assert.Equal(t, "MSFT", recs[1].Ticker())

	assert.Equal(t, map[string]float64{"AAPL": 0.1, "MSFT": 0.2}, snap.Values(Period1Y))
	assert.Equal(t, map[string]float64{"AAPL": 0.05}, snap.Values(Period6M))
}

func TestSnapshotBuilder_DedupesUniverse(t *testing.T) {
	b := NewSnapshotBuilder([]string{"AAPL", "MSFT", "AAPL", "ZZZZ", "MSFT"})
	assert.Equal(t, []string{"AAPL", "MSFT", "ZZZZ"}, b.Universe(), "first occurrence wins")

	b.Add("AAPL", QuoteFields{Price: 187, Returns: map[PeriodLabel]float64{Period1Y: 0.1}})
	b.Add("MSFT", QuoteFields{Price: 410, Returns: map[PeriodLabel]float64{Period1Y: 0.2}})

	snap, err := b.Seal(time.Unix(0, 0))
	require.NoError(t, err)

	assert.Equal(t, 3, snap.Requested())
	require.Len(t, snap.Records(), 2)
	assert.Equal(t, "AAPL", snap.Records()[0].Ticker())
	assert.Equal(t, "MSFT", snap.Records()[1].Ticker())
	assert.Equal(t, []string{"ZZZZ"}, snap.Missing())
}

func TestSnapshotBuilder_SealTwice(t *testing.T) {
	b := NewSnapshotBuilder([]string{"AAPL"})
	_, err := b.Seal(time.Now())
	require.NoError(t, err)

	_, err = b.Seal(time.Now())
	assert.True(t, errors.Is(err, ErrConsistency))
}

func TestSnapshotBuilder_DropsNonFiniteReturns(t *testing.T) {
	b := NewSnapshotBuilder([]string{"AAPL"})
	b.Add("AAPL", QuoteFields{Price: 1, Returns: map[PeriodLabel]float64{
		Period1Y: math.NaN(),
		Period6M: math.Inf(1),
		Period3M: 0.3,
	}})

	snap, err := b.Seal(time.Now())
	require.NoError(t, err)

	rec, ok := snap.Record("AAPL")
	require.True(t, ok)
	_, has1Y := rec.Return(Period1Y)
	_, has6M := rec.Return(Period6M)
	assert.False(t, has1Y)
	assert.False(t, has6M)
	assert.Equal(t, map[PeriodLabel]float64{Period3M: 0.3}, rec.Returns())
}

func TestSnapshot_EnsureSealed(t *testing.T) {
	var nilSnap *Snapshot
	assert.True(t, errors.Is(nilSnap.EnsureSealed(), ErrConsistency))
	assert.True(t, errors.Is((&Snapshot{}).EnsureSealed(), ErrConsistency))
}

func TestSymbolRecord_Immutable(t *testing.T) {
	src := map[PeriodLabel]float64{Period1Y: 0.1}
	rec := NewSymbolRecord("AAPL", 187, src)

	src[Period1Y] = 99
	got := rec.Returns()
	got[Period6M] = 1

	v, _ := rec.Return(Period1Y)
	assert.Equal(t, 0.1, v)
	_, ok := rec.Return(Period6M)
	assert.False(t, ok)
}

func TestPeriodLabel(t *testing.T) {
	tests := []struct {
		period  PeriodLabel
		field   string
		display string
	}{
		{Period1Y, "year1ChangePercent", "One-Year"},
		{Period6M, "month6ChangePercent", "Six-Month"},
		{Period3M, "month3ChangePercent", "Three-Month"},
		{Period1M, "month1ChangePercent", "One-Month"},
	}

	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			assert.True(t, tt.period.Valid())
			assert.Equal(t, tt.field, tt.period.ProviderField())
			assert.Equal(t, tt.display, tt.period.DisplayName())
		})
	}

	_, err := ParsePeriod("week1")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}
