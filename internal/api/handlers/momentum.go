package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wonny/hqm/backend/internal/brain"
	"github.com/wonny/hqm/backend/internal/contracts"
	"github.com/wonny/hqm/backend/internal/report"
	"github.com/wonny/hqm/backend/pkg/logger"
)

const (
	maxTopN        = 500
	rankingTimeout = 2 * time.Minute
	xlsxContent    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Pipeline is the part of the orchestrator the API drives
type Pipeline interface {
	Ranking(ctx context.Context, strategy contracts.Strategy, topN int) (*contracts.Report, error)
	Allocate(r *contracts.Report, capital float64) (*contracts.Report, error)
}

// MomentumHandler serves rankings and share allocations
// ⭐ SSOT: 모멘텀 API 핸들러는 이 구조체에서만
type MomentumHandler struct {
	pipeline    Pipeline
	cache       *brain.RankingCache
	defaultTopN int
	group       singleflight.Group
	logger      *logger.Logger
}

// NewMomentumHandler creates a new momentum handler. cache may be nil.
func NewMomentumHandler(pipeline Pipeline, cache *brain.RankingCache, defaultTopN int, log *logger.Logger) *MomentumHandler {
	return &MomentumHandler{
		pipeline:    pipeline,
		cache:       cache,
		defaultTopN: defaultTopN,
		logger:      log,
	}
}

// GetRanking returns the latest ranking
// GET /api/momentum/ranking?strategy=hqm&top=50&refresh=false&format=json
func (h *MomentumHandler) GetRanking(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	strategy, err := parseStrategy(q.Get("strategy"))
	if err != nil {
		respondPipelineError(w, err)
		return
	}
	topN, err := h.parseTopN(q.Get("top"))
	if err != nil {
		respondPipelineError(w, err)
		return
	}
	refresh, _ := strconv.ParseBool(q.Get("refresh"))

	ranking, err := h.ranking(r.Context(), strategy, topN, refresh)
	if err != nil {
		h.logger.WithError(err).WithField("strategy", strategy).Warn("Ranking request failed")
		respondPipelineError(w, err)
		return
	}

	h.render(w, q.Get("format"), ranking)
}

// AllocateRequest is the body of an allocation request
type AllocateRequest struct {
	Strategy string  `json:"strategy"`
	TopN     int     `json:"top_n"`
	Capital  float64 `json:"capital"`
}

// Allocate sizes positions for the latest ranking
// POST /api/momentum/allocate?format=json
func (h *MomentumHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	var req AllocateRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	strategy, err := parseStrategy(req.Strategy)
	if err != nil {
		respondPipelineError(w, err)
		return
	}
	topN := req.TopN
	if topN == 0 {
		topN = h.defaultTopN
	}
	if topN < 1 || topN > maxTopN {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("top_n must be between 1 and %d", maxTopN))
		return
	}

	ranking, err := h.ranking(r.Context(), strategy, topN, false)
	if err != nil {
		respondPipelineError(w, err)
		return
	}

	allocated, err := h.pipeline.Allocate(ranking, req.Capital)
	if err != nil {
		respondPipelineError(w, err)
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"run_id":   allocated.RunID,
		"strategy": strategy,
		"capital":  req.Capital,
		"invested": allocated.Trades.Invested.String(),
	}).Info("Allocation served")

	h.render(w, r.URL.Query().Get("format"), allocated)
}

// ranking serves from cache when possible. Concurrent misses for the same
// key share one pipeline run.
func (h *MomentumHandler) ranking(ctx context.Context, strategy contracts.Strategy, topN int, refresh bool) (*contracts.Report, error) {
	if !refresh {
		cached, ok, err := h.cache.Get(ctx, strategy, topN)
		if err != nil {
			h.logger.WithError(err).Warn("Ranking cache read failed")
		}
		if ok {
			return cached, nil
		}
	}

	// the shared run outlives any single caller; each caller waits on its own ctx
	key := fmt.Sprintf("%s:%d", strategy, topN)
	ch := h.group.DoChan(key, func() (interface{}, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rankingTimeout)
		defer cancel()

		computed, err := h.pipeline.Ranking(runCtx, strategy, topN)
		if err != nil {
			return nil, err
		}
		if err := h.cache.Put(runCtx, computed, topN); err != nil {
			h.logger.WithError(err).Warn("Ranking cache write failed")
		}
		return computed, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*contracts.Report), nil
	}
}

func (h *MomentumHandler) render(w http.ResponseWriter, format string, r *contracts.Report) {
	var buf bytes.Buffer

	switch format {
	case "", "json":
		respondJSON(w, http.StatusOK, r)
		return
	case "xlsx":
		if err := report.WriteXLSX(&buf, r); err != nil {
			h.logger.WithError(err).Error("Failed to render spreadsheet")
			respondError(w, http.StatusInternalServerError, "Failed to render report")
			return
		}
		w.Header().Set("Content-Type", xlsxContent)
	case "csv":
		if err := report.WriteCSV(&buf, r); err != nil {
			h.logger.WithError(err).Error("Failed to render csv")
			respondError(w, http.StatusInternalServerError, "Failed to render report")
			return
		}
		w.Header().Set("Content-Type", "text/csv")
	default:
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="momentum strategy (%s).%s"`, r.Strategy, format))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *MomentumHandler) parseTopN(raw string) (int, error) {
	if raw == "" {
		return h.defaultTopN, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxTopN {
		return 0, fmt.Errorf("%w: top must be between 1 and %d", contracts.ErrInvalidArgument, maxTopN)
	}
	return n, nil
}

func parseStrategy(raw string) (contracts.Strategy, error) {
	if raw == "" {
		return contracts.StrategyHQM, nil
	}
	return contracts.ParseStrategy(raw)
}
