package location

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// Used in tests and in deployments running without a database.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records map[int]*Record
}

// NewInMemoryRepository creates a new in-memory location repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		records: make(map[int]*Record),
	}
}

// Get retrieves a record by id.
func (r *InMemoryRepository) Get(_ context.Context, id int) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}

	return rec.Clone(), nil
}

// List retrieves all records sorted by name.
func (r *InMemoryRepository) List(_ context.Context) ([]*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]*Record, 0, len(r.records))
	for _, rec := range r.records {
		records = append(records, rec.Clone())
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Name < records[j].Name
	})

	return records, nil
}

// Replace creates or overwrites the record. Owned values are replaced
// wholesale because the stored record is swapped in full.
func (r *InMemoryRepository) Replace(_ context.Context, rec *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[rec.ID] = rec.Clone()
	return nil
}

// Delete removes the record and its owned values.
func (r *InMemoryRepository) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[id]; !ok {
		return ErrNotFound
	}
	delete(r.records, id)
	return nil
}

// SetFavorite updates the favorite flag of an existing record.
func (r *InMemoryRepository) SetFavorite(_ context.Context, id int, favorite bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return ErrNotFound
	}
	rec.IsFavorite = favorite
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
