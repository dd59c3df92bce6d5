package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/heatmap/internal/contracts"
)

// ErrorResponse is the error body; the frontend shows Detail
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// WriteJSON writes data as a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// WriteError writes an ErrorResponse
func WriteError(w http.ResponseWriter, status int, message, detail string) {
	if detail == "" {
		detail = message
	}
	WriteJSON(w, status, ErrorResponse{Error: message, Detail: detail})
}

// StatusFor maps domain errors to HTTP status codes
// ⭐ SSOT: 도메인 에러 → HTTP 상태 코드
func StatusFor(err error) int {
	switch {
	case errors.Is(err, contracts.ErrMissingIndex):
		return http.StatusNotFound
	case errors.Is(err, contracts.ErrInvalidConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, contracts.ErrMalformedSeries):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondDomainError writes err with its mapped status; 500s hide the cause
func respondDomainError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		WriteError(w, status, "Internal server error", "")
		return
	}
	WriteError(w, status, http.StatusText(status), err.Error())
}
