package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/wonny/hqm/backend/internal/contracts"
	"github.com/wonny/hqm/backend/internal/selection"
	"github.com/wonny/hqm/backend/pkg/logger"
)

const (
	defaultRunLimit = 20
	maxRunLimit     = 200
)

// RunHistory reads recorded runs (implemented by selection.Repository)
type RunHistory interface {
	ListRuns(ctx context.Context, limit int) ([]selection.RunSummary, error)
	LatestRun(ctx context.Context, strategy contracts.Strategy) (*selection.RunSummary, error)
	GetPositions(ctx context.Context, runID string) ([]contracts.ReportRow, error)
}

// HistoryHandler serves recorded runs
type HistoryHandler struct {
	history RunHistory
	logger  *logger.Logger
}

// NewHistoryHandler creates a history handler. A nil history answers 503.
func NewHistoryHandler(history RunHistory, log *logger.Logger) *HistoryHandler {
	return &HistoryHandler{history: history, logger: log}
}

// ListRuns returns recent runs, newest first
// GET /api/momentum/runs?limit=20
func (h *HistoryHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	limit := defaultRunLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRunLimit {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 200")
			return
		}
		limit = n
	}

	runs, err := h.history.ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve runs")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// LatestRun returns the newest run of a strategy
// GET /api/momentum/runs/latest?strategy=hqm
func (h *HistoryHandler) LatestRun(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	strategy, err := parseStrategy(r.URL.Query().Get("strategy"))
	if err != nil {
		respondPipelineError(w, err)
		return
	}

	run, err := h.history.LatestRun(r.Context(), strategy)
	if err != nil {
		respondPipelineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, run)
}

// GetPositions returns the ranked rows of one run
// GET /api/momentum/runs/{id}/positions
func (h *HistoryHandler) GetPositions(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	runID := mux.Vars(r)["id"]
	if _, err := uuid.Parse(runID); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid run id")
		return
	}

	positions, err := h.history.GetPositions(r.Context(), runID)
	if err != nil {
		h.logger.WithError(err).WithField("run_id", runID).Error("Failed to get positions")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve positions")
		return
	}
	if len(positions) == 0 {
		respondError(w, http.StatusNotFound, "Run not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":    runID,
		"positions": positions,
	})
}

func (h *HistoryHandler) available(w http.ResponseWriter) bool {
	if h.history == nil {
		respondError(w, http.StatusServiceUnavailable, "Run history is not configured")
		return false
	}
	return true
}
