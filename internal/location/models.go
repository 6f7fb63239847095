// Package location persists one weather snapshot per saved place and
// owns the upsert-or-create contract for location records.
package location

import (
	"errors"
	"time"

	"github.com/skycast/skycast/internal/weather"
)

// Location errors.
var (
	// ErrNotFound is returned when no record exists for an id.
	ErrNotFound = errors.New("location not found")

	// ErrPersistence wraps a failed store commit. Callers displaying
	// freshly fetched data treat it as non-fatal.
	ErrPersistence = errors.New("location store commit failed")
)

// Record is the persisted aggregate for one place: its latest current
// conditions and daily forecasts. Exactly one record exists per ID (the
// provider city identifier); replacing Current or Daily supersedes the
// prior owned values in full.
type Record struct {
	ID         int
	Name       string
	Coord      weather.Coordinate
	Country    string
	IsFavorite bool

	// Current is the owned 1:1 current-conditions sample.
	Current weather.CurrentSample

	// Daily is the owned 1:N daily forecast, ordered by ObservedAt.
	Daily []weather.DailyForecast
}

// LastUpdated is derived from the owned current sample; it is never
// stored independently.
func (r *Record) LastUpdated() time.Time {
	return r.Current.ObservedAt
}

// FullName renders "Name, Country", omitting an empty country.
func (r *Record) FullName() string {
	if r.Country == "" {
		return r.Name
	}
	return r.Name + ", " + r.Country
}

// Clone returns a deep copy safe to hand to other goroutines.
func (r *Record) Clone() *Record {
	cpy := *r
	cpy.Daily = make([]weather.DailyForecast, len(r.Daily))
	copy(cpy.Daily, r.Daily)
	return &cpy
}
