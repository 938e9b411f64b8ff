// Package ingest accepts event batches into the ledger and daily aggregates.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/emiliopalmerini/timecode/internal/domain"
	"github.com/emiliopalmerini/timecode/internal/ports"
)

// DefaultMaxBatch is the largest batch accepted in one request.
const DefaultMaxBatch = 500

// BatchTooLargeError is returned when a batch exceeds the configured maximum.
type BatchTooLargeError struct {
	Size int
	Max  int
}

func (e *BatchTooLargeError) Error() string {
	return fmt.Sprintf("batch of %d events exceeds the maximum of %d", e.Size, e.Max)
}

// Service validates whole batches and persists them event by event.
type Service struct {
	events   ports.EventRepository
	metrics  ports.MetricsExporter
	maxBatch int
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(events ports.EventRepository, metrics ports.MetricsExporter, maxBatch int, logger zerolog.Logger) *Service {
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatch
	}
	return &Service{
		events:   events,
		metrics:  metrics,
		maxBatch: maxBatch,
		logger:   logger,
		now:      time.Now,
	}
}

// MaxBatch returns the configured batch limit.
func (s *Service) MaxBatch() int {
	return s.maxBatch
}

// Validate converts every input or returns the first ValidationError.
// No event is persisted unless the whole batch is valid.
func (s *Service) Validate(inputs []domain.EventInput) ([]domain.Event, error) {
	if len(inputs) > s.maxBatch {
		return nil, &BatchTooLargeError{Size: len(inputs), Max: s.maxBatch}
	}

	events := make([]domain.Event, 0, len(inputs))
	for i, in := range inputs {
		e, err := in.ToEvent(i)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

// Ingest validates the batch and stores each event in its own transaction.
// A storage failure aborts the request; events already committed stay
// committed and are reported as duplicates when the client resubmits.
func (s *Service) Ingest(ctx context.Context, inputs []domain.EventInput) (domain.IngestResult, error) {
	var result domain.IngestResult

	events, err := s.Validate(inputs)
	if err != nil {
		return result, err
	}

	start := s.now()
	var acceptedSeconds int64
	for _, e := range events {
		inserted, err := s.events.Insert(ctx, e)
		if err != nil {
			s.export(ctx, result, acceptedSeconds, start, true)
			return result, fmt.Errorf("failed to store event %s: %w", e.ID, err)
		}
		if inserted {
			result.Accepted++
			acceptedSeconds += e.DurationSeconds
		} else {
			result.Duplicates++
		}
	}

	s.export(ctx, result, acceptedSeconds, start, false)
	s.logger.Debug().
		Int("accepted", result.Accepted).
		Int("duplicates", result.Duplicates).
		Int64("seconds", acceptedSeconds).
		Msg("Batch ingested")

	return result, nil
}

func (s *Service) export(ctx context.Context, result domain.IngestResult, seconds int64, start time.Time, failed bool) {
	if s.metrics == nil {
		return
	}
	err := s.metrics.ExportIngest(ctx, &ports.IngestMetrics{
		Accepted:        result.Accepted,
		Duplicates:      result.Duplicates,
		AcceptedSeconds: seconds,
		Failed:          failed,
		Elapsed:         s.now().Sub(start),
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to export ingest metrics")
	}
}
