package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/emiliopalmerini/timecode/internal/domain"
	"github.com/emiliopalmerini/timecode/internal/ingest"
)

type ingestRequest struct {
	Events *[]domain.EventInput `json:"events"`
}

func (s *Server) handleIngestEvents(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &maxErr):
			WriteError(w, s.logger, http.StatusRequestEntityTooLarge, "request body too large")
		case errors.As(err, &typeErr):
			WriteBadRequest(w, s.logger, fmt.Sprintf("invalid /events payload: %s must be %s", typeErr.Field, jsonKind(typeErr.Type.Kind().String())))
		default:
			WriteBadRequest(w, s.logger, "invalid JSON body")
		}
		return
	}
	if req.Events == nil {
		WriteBadRequest(w, s.logger, "invalid /events payload: events must be an array")
		return
	}

	result, err := s.ingest.Ingest(r.Context(), *req.Events)
	if err != nil {
		var tooLarge *ingest.BatchTooLargeError
		var invalid *domain.ValidationError
		switch {
		case errors.As(err, &tooLarge):
			WriteError(w, s.logger, http.StatusRequestEntityTooLarge, fmt.Sprintf("too many events, max %d per request", tooLarge.Max))
		case errors.As(err, &invalid):
			WriteBadRequest(w, s.logger, "invalid /events payload: "+invalid.Error())
		default:
			s.logger.Error().
				Err(err).
				Str("request_id", middleware.GetReqID(r.Context())).
				Int("events", len(*req.Events)).
				Msg("Failed to ingest events")
			WriteInternalError(w, s.logger, "failed to ingest events")
		}
		return
	}

	WriteJSON(w, s.logger, http.StatusOK, result)
}

func jsonKind(goKind string) string {
	switch goKind {
	case "string":
		return "a string"
	case "int64", "int":
		return "an integer"
	case "bool":
		return "a boolean"
	case "slice":
		return "an array"
	default:
		return "a valid value"
	}
}
