package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

// ObservationTransformer implements Transformer by parsing and validating
// the observation JSON carried in each message.
type ObservationTransformer struct {
	logger *slog.Logger
}

// NewTransformer creates an ObservationTransformer.
func NewTransformer(logger *slog.Logger) *ObservationTransformer {
	return &ObservationTransformer{logger: logger}
}

func (t *ObservationTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.FloodObservation, error) {
	obs, err := domain.ParseObservation(raw)
	if err != nil {
		return domain.FloodObservation{}, err
	}
	t.logger.Debug("observation parsed",
		"city", obs.City,
		"flood_height", obs.FloodHeight,
		"offset", raw.Offset,
	)
	return obs, nil
}
