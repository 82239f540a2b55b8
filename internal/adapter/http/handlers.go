package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (s *Server) handleFloodData(w http.ResponseWriter, r *http.Request) {
	filter, err := parseObservationFilter(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	obs, err := s.svc.Observations(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, obs)
}

// parseObservationFilter reads ?city= and ?isPrediction=. An unrecognised
// city is passed through and simply matches nothing.
func parseObservationFilter(r *http.Request) (domain.ObservationFilter, error) {
	var filter domain.ObservationFilter
	q := r.URL.Query()

	if c := q.Get("city"); c != "" {
		city := domain.City(c)
		filter.City = &city
	}

	if v := q.Get("isPrediction"); v != "" {
		var b bool
		switch v {
		case "1", "true":
			b = true
		case "0", "false":
			b = false
		default:
			return filter, domain.FieldError("isPrediction", "isPrediction must be one of: 0, 1, true, false")
		}
		filter.IsPrediction = &b
	}
	return filter, nil
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, stats)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var in domain.PredictionInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	a, err := s.svc.Predict(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, a)
}

// errMalformedBody marks a request body that is not a JSON object.
var errMalformedBody = errors.New("malformed JSON body")

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return domain.FieldError(typeErr.Field, fmt.Sprintf("%s must be a %s", typeErr.Field, jsonKind(typeErr.Type.Kind().String())))
		}
		return errMalformedBody
	}
	return nil
}

func jsonKind(goKind string) string {
	switch goKind {
	case "float32", "float64", "int", "int64":
		return "number"
	default:
		return goKind
	}
}

// writeError maps validation failures to 400 and anything else to an opaque 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Message: verr.Message, Field: verr.Field})
	case errors.Is(err, errMalformedBody):
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
	default:
		s.logger.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		sharedobs.WriteJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal server error"})
	}
}
