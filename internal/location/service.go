package location

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/skycast/skycast/internal/weather"
)

// Service provides location operations with per-id write serialization:
// concurrent upserts for the same id never interleave partial writes.
type Service struct {
	repo   Repository
	logger zerolog.Logger

	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

// NewService creates a new location service.
func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		locks:  make(map[int]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing writes for one location id.
func (s *Service) lockFor(id int) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// Upsert creates or refreshes the record for city.ID. An existing
// record keeps its favorite flag; its current and daily values are
// replaced wholesale. A new record starts with IsFavorite false.
//
// The returned record is always valid, built from the inputs. When the
// underlying commit fails the error wraps ErrPersistence and the caller
// may still display the returned record.
func (s *Service) Upsert(ctx context.Context, city weather.CityMeta, current weather.CurrentSample, daily []weather.DailyForecast) (*Record, error) {
	l := s.lockFor(city.ID)
	l.Lock()
	defer l.Unlock()

	favorite := false
	existing, err := s.repo.Get(ctx, city.ID)
	switch {
	case err == nil:
		favorite = existing.IsFavorite
	case errors.Is(err, ErrNotFound):
		// first fetch for this place
	default:
		s.logger.Error().Err(err).Int("location_id", city.ID).Msg("failed to read existing location")
	}

	rec := &Record{
		ID:         city.ID,
		Name:       city.Name,
		Coord:      city.Coord,
		Country:    city.Country,
		IsFavorite: favorite,
		Current:    current,
		Daily:      daily,
	}

	if err := s.repo.Replace(ctx, rec); err != nil {
		return rec, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	return rec, nil
}

// Get retrieves a record by id.
func (s *Service) Get(ctx context.Context, id int) (*Record, error) {
	return s.repo.Get(ctx, id)
}

// List retrieves all saved records sorted by name.
func (s *Service) List(ctx context.Context) ([]*Record, error) {
	return s.repo.List(ctx)
}

// ToggleFavorite flips the favorite flag and persists the change,
// independent of the fetch pipeline. Returns the updated record.
func (s *Service) ToggleFavorite(ctx context.Context, id int) (*Record, error) {
	l := s.lockFor(id)
	l.Lock()
	defer l.Unlock()

	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetFavorite(ctx, id, !rec.IsFavorite); err != nil {
		return nil, err
	}

	rec.IsFavorite = !rec.IsFavorite
	return rec, nil
}

// Delete removes the record and its owned current and daily values.
func (s *Service) Delete(ctx context.Context, id int) error {
	l := s.lockFor(id)
	l.Lock()
	defer l.Unlock()

	return s.repo.Delete(ctx, id)
}
