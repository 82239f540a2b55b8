package pipeline

import (
	"context"
	"fmt"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
)

// Inserter is the write side of the record store.
type Inserter interface {
	Insert(ctx context.Context, obs domain.FloodObservation) (domain.FloodObservation, error)
}

// StoreLoader implements BatchLoader over a record store.
type StoreLoader struct {
	store Inserter
}

// NewStoreLoader creates a StoreLoader writing to store.
func NewStoreLoader(store Inserter) *StoreLoader {
	return &StoreLoader{store: store}
}

// LoadBatch inserts each observation in order and stops at the first
// failure, reporting how many were inserted before it.
func (l *StoreLoader) LoadBatch(ctx context.Context, obs []domain.FloodObservation) (int, error) {
	for i := range obs {
		if _, err := l.store.Insert(ctx, obs[i]); err != nil {
			return i, fmt.Errorf("insert observation %d of %d: %w", i+1, len(obs), err)
		}
	}
	return len(obs), nil
}
