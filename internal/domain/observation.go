package domain

import "time"

// FloodObservation is a single recorded or predicted flood data point.
type FloodObservation struct {
	ID            int64     `json:"id"`
	City          City      `json:"city" validate:"required,city"`
	Latitude      float64   `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude     float64   `json:"longitude" validate:"gte=-180,lte=180"`
	FloodHeight   int       `json:"floodHeight" validate:"gte=0,lte=8"` // 0-8 scale
	Elevation     float64   `json:"elevation"`                          // meters
	Precipitation float64   `json:"precipitation" validate:"gte=0"`     // mm
	RecordedAt    time.Time `json:"recordedAt"`
	// IsPrediction marks records written back from a prediction run.
	// Nothing in this service writes one yet.
	IsPrediction bool `json:"isPrediction"`
}

// ObservationFilter narrows a store listing. Nil fields match everything.
type ObservationFilter struct {
	City         *City
	IsPrediction *bool
}

// Matches reports whether o passes the filter.
func (f ObservationFilter) Matches(o FloodObservation) bool {
	if f.City != nil && o.City != *f.City {
		return false
	}
	if f.IsPrediction != nil && o.IsPrediction != *f.IsPrediction {
		return false
	}
	return true
}
