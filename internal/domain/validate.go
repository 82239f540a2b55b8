package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// PredictionInput is the request shape for a risk prediction. Elevation is
// accepted but not used by the classifier.
type PredictionInput struct {
	City      City     `json:"city" validate:"required,city"`
	Rainfall  *float64 `json:"rainfall" validate:"required,gte=0"`
	Elevation *float64 `json:"elevation,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names so errors match the wire contract.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("city", func(fl validator.FieldLevel) bool {
		return City(fl.Field().String()).Valid()
	}); err != nil {
		panic(fmt.Sprintf("register city validation: %v", err))
	}
	return v
}

// Validate checks a PredictionInput or FloodObservation against its struct
// tags. The first failing field is returned as a *ValidationError.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate: %w", err)
	}

	fe := fieldErrs[0]
	field := fieldPath(fe.Namespace())
	return &ValidationError{
		Field:   field,
		Message: fieldMessage(fe.Field(), fe.Tag(), fe.Param()),
		Err:     sentinelFor(fe.Field()),
	}
}

// fieldPath drops the root struct name from a validator namespace,
// e.g. "PredictionInput.rainfall" -> "rainfall".
func fieldPath(namespace string) string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}
	return rest
}

func fieldMessage(field, tag, param string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "city":
		return fmt.Sprintf("%s must be one of: %s", field, cityList())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func sentinelFor(field string) error {
	switch field {
	case "city":
		return ErrInvalidCity
	case "rainfall":
		return ErrInvalidRainfall
	default:
		return ErrInvalidObservation
	}
}

// FieldError builds a *ValidationError for field, wrapping the sentinel
// that matches it. Used by decoders that reject input before Validate runs.
func FieldError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: sentinelFor(field)}
}
