package domain

import (
	"encoding/json"
	"fmt"
)

// ParseObservation decodes and validates a FloodObservation from a raw
// message. Any ID in the payload is discarded; the store assigns one. A
// missing recordedAt falls back to the message timestamp, then to now.
func ParseObservation(raw RawEvent) (FloodObservation, error) {
	var obs FloodObservation
	if err := json.Unmarshal(raw.Value, &obs); err != nil {
		return FloodObservation{}, fmt.Errorf("parse observation: %w", err)
	}

	obs.ID = 0
	if obs.RecordedAt.IsZero() {
		obs.RecordedAt = raw.Timestamp.UTC()
	}
	if obs.RecordedAt.IsZero() {
		obs.RecordedAt = Now()
	}

	if err := Validate(obs); err != nil {
		return FloodObservation{}, fmt.Errorf("parse observation: %w", err)
	}
	return obs, nil
}
