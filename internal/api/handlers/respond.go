package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/hqm/backend/internal/contracts"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// statusFor maps the pipeline error kinds to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, contracts.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, contracts.ErrMissingData):
		return http.StatusNotFound
	case errors.Is(err, contracts.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, contracts.ErrDataSource):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondPipelineError writes err with its mapped status. Internal errors
// are not echoed to the client.
func respondPipelineError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		respondError(w, status, "Internal server error")
		return
	}
	respondError(w, status, err.Error())
}
