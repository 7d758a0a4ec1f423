package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger is a dependency the health check probes (database, redis)
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports service and dependency health
type HealthHandler struct {
	service string
	deps    map[string]Pinger
}

// NewHealthHandler creates a health handler. Nil pingers are skipped.
func NewHealthHandler(service string, deps map[string]Pinger) *HealthHandler {
	active := make(map[string]Pinger, len(deps))
	for name, p := range deps {
		if p != nil {
			active[name] = p
		}
	}
	return &HealthHandler{service: service, deps: active}
}

// Check returns 200 when every dependency answers, 503 otherwise
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(h.deps))
	for name, p := range h.deps {
		if err := p.Ping(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}

	respondJSON(w, status, map[string]interface{}{
		"status":  state,
		"service": h.service,
		"checks":  checks,
	})
}
