package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RawEvent represents an unprocessed message from the observation topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// PredictionEvent records one served prediction for downstream consumers.
// It is never written to the observation store.
type PredictionEvent struct {
	ID          string         `json:"id"`
	City        City           `json:"city"`
	Rainfall    float64        `json:"rainfall"`
	Elevation   *float64       `json:"elevation,omitempty"`
	Assessment  RiskAssessment `json:"assessment"`
	PredictedAt time.Time      `json:"predictedAt"`
}

// NewPredictionEvent stamps a validated input and its assessment with a
// fresh ID and the current time.
func NewPredictionEvent(in PredictionInput, a RiskAssessment) PredictionEvent {
	var rainfall float64
	if in.Rainfall != nil {
		rainfall = *in.Rainfall
	}
	return PredictionEvent{
		ID:          uuid.NewString(),
		City:        in.City,
		Rainfall:    rainfall,
		Elevation:   in.Elevation,
		Assessment:  a,
		PredictedAt: Now(),
	}
}
