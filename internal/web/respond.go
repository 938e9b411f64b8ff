package web

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, logger zerolog.Logger, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error().Err(err).Int("status", statusCode).Msg("Failed to encode JSON response")
	}
}

// WriteError writes a standardized error response
func WriteError(w http.ResponseWriter, logger zerolog.Logger, statusCode int, message string) {
	WriteJSON(w, logger, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Code:    statusCode,
		Message: message,
	})
}

func WriteBadRequest(w http.ResponseWriter, logger zerolog.Logger, message string) {
	WriteError(w, logger, http.StatusBadRequest, message)
}

func WriteNotFound(w http.ResponseWriter, logger zerolog.Logger, message string) {
	WriteError(w, logger, http.StatusNotFound, message)
}

func WriteInternalError(w http.ResponseWriter, logger zerolog.Logger, message string) {
	WriteError(w, logger, http.StatusInternalServerError, message)
}
