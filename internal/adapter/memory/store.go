// Package memory provides a process-local record store, used when no
// database is configured.
package memory

import (
	"context"
	"sync"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

// Store holds observations in insertion order. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	obs    []domain.FloodObservation
	nextID int64
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{nextID: 1}
}

// List returns a copy of the observations matching filter, ordered by id.
func (s *Store) List(_ context.Context, filter domain.ObservationFilter) ([]domain.FloodObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.FloodObservation, 0, len(s.obs))
	for _, o := range s.obs {
		if filter.Matches(o) {
			out = append(out, o)
		}
	}
	return out, nil
}

// Insert assigns the next id, stamps RecordedAt when zero, and stores obs.
func (s *Store) Insert(_ context.Context, obs domain.FloodObservation) (domain.FloodObservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	obs.ID = s.nextID
	s.nextID++
	if obs.RecordedAt.IsZero() {
		obs.RecordedAt = domain.Now()
	}
	s.obs = append(s.obs, obs)
	return obs, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

// Len returns the number of stored observations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.obs)
}
