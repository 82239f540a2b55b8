package domain

import "errors"

var (
	// ErrInvalidCity is returned when a city is not in the monitored set.
	ErrInvalidCity = errors.New("invalid city")
	// ErrInvalidRainfall is returned for negative or non-finite rainfall.
	ErrInvalidRainfall = errors.New("invalid rainfall")
	// ErrInvalidObservation covers every other field constraint.
	ErrInvalidObservation = errors.New("invalid observation")
)

// ValidationError is a single rejected field. It renders to clients as a
// message/field pair and unwraps to one of the sentinel errors above.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
