// Package service wires the risk classifier and stats aggregator to the
// record store and the optional prediction event sink.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/observability"
)

// Store persists flood observations.
type Store interface {
	List(ctx context.Context, filter domain.ObservationFilter) ([]domain.FloodObservation, error)
	Insert(ctx context.Context, obs domain.FloodObservation) (domain.FloodObservation, error)
	Ping(ctx context.Context) error
}

// PredictionPublisher forwards served predictions to downstream consumers.
type PredictionPublisher interface {
	Publish(ctx context.Context, event domain.PredictionEvent) error
}

// Service implements the API operations.
type Service struct {
	store     Store
	publisher PredictionPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Service. A nil publisher disables prediction events.
func New(store Store, publisher PredictionPublisher, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// Predict checks the request shape, then assesses it, which also rejects
// non-finite rainfall. Validation failures are returned as
// *domain.ValidationError. Nothing is written to the store.
func (s *Service) Predict(ctx context.Context, in domain.PredictionInput) (domain.RiskAssessment, error) {
	if err := domain.Validate(in); err != nil {
		s.recordValidationError(err)
		return domain.RiskAssessment{}, err
	}

	a, err := domain.Assess(in.City, *in.Rainfall)
	if err != nil {
		s.recordValidationError(err)
		return domain.RiskAssessment{}, err
	}
	s.metrics.Predictions.WithLabelValues(strconv.Itoa(a.RiskLevel)).Inc()
	s.logger.Debug("prediction served",
		"city", in.City,
		"rainfall", *in.Rainfall,
		"risk_level", a.RiskLevel,
	)

	s.publish(ctx, domain.NewPredictionEvent(in, a))
	return a, nil
}

func (s *Service) recordValidationError(err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		s.metrics.PredictionErrors.WithLabelValues(verr.Field).Inc()
	}
}

// publish is best-effort; a sink failure never fails the prediction.
func (s *Service) publish(ctx context.Context, event domain.PredictionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.metrics.PredictionEventsPublished.WithLabelValues("error").Inc()
		s.logger.Warn("publish prediction event failed", "error", err, "city", event.City, "event_id", event.ID)
		return
	}
	s.metrics.PredictionEventsPublished.WithLabelValues("success").Inc()
}

// Stats reads a full snapshot of the store and summarizes it per city.
func (s *Service) Stats(ctx context.Context) ([]domain.CityStatSummary, error) {
	all, err := s.store.List(ctx, domain.ObservationFilter{})
	if err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}
	s.metrics.StatsRequests.Inc()
	return domain.Aggregate(all), nil
}

// Observations lists stored observations matching filter, ordered by id.
func (s *Service) Observations(ctx context.Context, filter domain.ObservationFilter) ([]domain.FloodObservation, error) {
	obs, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}
	return obs, nil
}

// SeedIfEmpty inserts generated historical observations when the store holds
// none, and reports how many were written.
func (s *Service) SeedIfEmpty(ctx context.Context, rng *rand.Rand) (int, error) {
	existing, err := s.store.List(ctx, domain.ObservationFilter{})
	if err != nil {
		return 0, fmt.Errorf("check store: %w", err)
	}
	if len(existing) > 0 {
		s.logger.Info("store already populated, skipping seed", "records", len(existing))
		return 0, nil
	}

	seeded := domain.SeedObservations(rng)
	for i := range seeded {
		if _, err := s.store.Insert(ctx, seeded[i]); err != nil {
			return i, fmt.Errorf("seed observation %d: %w", i, err)
		}
	}
	s.logger.Info("seeded observations", "records", len(seeded))
	return len(seeded), nil
}

// CheckReadiness reports whether the record store is reachable.
func (s *Service) CheckReadiness(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("store not ready: %w", err)
	}
	return nil
}
