package handlers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/hqm/backend/internal/contracts"
	"github.com/wonny/hqm/backend/pkg/logger"
)

// gatedPipeline blocks every ranking until release is closed
type gatedPipeline struct {
	started chan struct{}
	release chan struct{}

	mu      sync.Mutex
	calls   int
	ctxErrs []error
}

func newGatedPipeline() *gatedPipeline {
	return &gatedPipeline{
		started: make(chan struct{}, 8),
		release: make(chan struct{}),
	}
}

func (p *gatedPipeline) Ranking(ctx context.Context, strategy contracts.Strategy, topN int) (*contracts.Report, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	p.started <- struct{}{}

	<-p.release

	p.mu.Lock()
	p.ctxErrs = append(p.ctxErrs, ctx.Err())
	p.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &contracts.Report{RunID: "run-1", Strategy: strategy}, nil
}

func (p *gatedPipeline) Allocate(r *contracts.Report, capital float64) (*contracts.Report, error) {
	return r, nil
}

func TestRankingSurvivesFirstCallerDisconnect(t *testing.T) {
	p := newGatedPipeline()
	h := NewMomentumHandler(p, nil, 10, logger.NewNop())

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := h.ranking(firstCtx, contracts.StrategyHQM, 10, false)
		firstErr <- err
	}()

	select {
	case <-p.started:
	case <-time.After(2 * time.Second):
		t.Fatal("ranking never started")
	}

	// first client goes away while the run is in flight
	cancelFirst()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller did not return")
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(p.release)
	}()

	got, err := h.ranking(context.Background(), contracts.StrategyHQM, 10, false)
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ctxErr := range p.ctxErrs {
		assert.NoError(t, ctxErr, "shared run must not inherit a caller's cancellation")
	}
}

func TestRankingWaiterHonoursOwnContext(t *testing.T) {
	p := newGatedPipeline()
	defer close(p.release)
	h := NewMomentumHandler(p, nil, 10, logger.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := h.ranking(ctx, contracts.StrategyPriceReturn, 5, true)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
