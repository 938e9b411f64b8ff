package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/emiliopalmerini/timecode/internal/domain"
	"github.com/emiliopalmerini/timecode/internal/migrate"
)

type healthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	SchemaVersion int    `json:"schemaVersion"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	version, dirty, err := migrate.GetCurrentVersion(r.Context(), s.db)
	if err != nil || dirty {
		if err != nil {
			s.logger.Error().Err(err).Msg("Health check failed to read schema version")
		}
		WriteError(w, s.logger, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	WriteJSON(w, s.logger, http.StatusOK, healthResponse{
		Status:        "ok",
		Version:       Version,
		SchemaVersion: version,
	})
}

type rangeResponse[T any] struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Items []T    `json:"items"`
}

// rangeHandler resolves ?from&to and renders query's items for that range.
func rangeHandler[T any](s *Server, query func(context.Context, domain.DateRange) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		rng, err := s.stats.Range(q.Get("from"), q.Get("to"))
		if err != nil {
			var invalid *domain.ValidationError
			if errors.As(err, &invalid) {
				WriteBadRequest(w, s.logger, invalid.Error())
				return
			}
			WriteInternalError(w, s.logger, "failed to resolve range")
			return
		}

		items, err := query(r.Context(), rng)
		if err != nil {
			s.logger.Error().Err(err).Str("path", r.URL.Path).Str("from", rng.From).Str("to", rng.To).Msg("Stats query failed")
			WriteInternalError(w, s.logger, "failed to query stats")
			return
		}
		if items == nil {
			items = []T{}
		}

		WriteJSON(w, s.logger, http.StatusOK, rangeResponse[T]{From: rng.From, To: rng.To, Items: items})
	}
}
