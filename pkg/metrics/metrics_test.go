package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IndependentRegistries(t *testing.T) {
	// a second registry must not panic on duplicate registration
	a := New()
	b := New()

	a.RecordRun("hqm", nil)

	assert.Equal(t, float64(1), testutil.ToFloat64(a.Runs.WithLabelValues("hqm", "ok")))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.Runs.WithLabelValues("hqm", "ok")))
}

func TestRecorders(t *testing.T) {
	r := New()

	r.ObserveBatch(10*time.Millisecond, nil)
	r.ObserveBatch(20*time.Millisecond, errors.New("boom"))
	r.RecordCache("quote", true)
	r.RecordCache("quote", false)
	r.RecordCache("quote", false)
	r.RecordRun("price_return", errors.New("boom"))
	r.SetMissing(3)

	assert.Equal(t, float64(1), testutil.ToFloat64(r.BatchFetches.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.BatchFetches.WithLabelValues("error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.CacheHits.WithLabelValues("quote")))
	assert.Equal(t, float64(2), testutil.ToFloat64(r.CacheMisses.WithLabelValues("quote")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.Runs.WithLabelValues("price_return", "error")))
	assert.Equal(t, float64(3), testutil.ToFloat64(r.MissingQuotes))
}

func TestStageTimer(t *testing.T) {
	r := New()

	d := r.StartStage("signals").Stop("ok")
	assert.GreaterOrEqual(t, d, time.Duration(0))
	assert.Equal(t, 1, testutil.CollectAndCount(r.StageDuration))
}

func TestNilRegistry(t *testing.T) {
	var r *Registry

	assert.NotPanics(t, func() {
		r.ObserveBatch(time.Millisecond, nil)
		r.RecordCache("quote", true)
		r.RecordRun("hqm", nil)
		r.SetMissing(1)
		r.StartStage("selection").Stop("ok")
	})
}

func TestHandler(t *testing.T) {
	r := New()
	r.RecordRun("hqm", nil)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "hqm_runs_total"))
}
