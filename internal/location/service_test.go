package location

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycast/skycast/internal/weather"
)

func testService(t *testing.T) *Service {
	t.Helper()
	return NewService(NewInMemoryRepository(), zerolog.Nop())
}

func london() weather.CityMeta {
	return weather.CityMeta{
		ID:      2643743,
		Name:    "London",
		Coord:   weather.Coordinate{Lat: 51.51, Lon: -0.13},
		Country: "GB",
	}
}

func currentAt(observed time.Time, temp float64) weather.CurrentSample {
	return weather.CurrentSample{
		ObservedAt: observed,
		Temp:       temp,
		TempMin:    temp - 3,
		TempMax:    temp + 3,
		Category:   weather.CategoryClouds,
	}
}

func TestUpsert_CreatesRecord(t *testing.T) {
	svc := testService(t)
	observed := time.Now()

	rec, err := svc.Upsert(context.Background(), london(), currentAt(observed, 17), []weather.DailyForecast{
		{ObservedAt: observed.Add(24 * time.Hour), Temp: 15, Category: weather.CategoryRain},
	})
	require.NoError(t, err)

	assert.Equal(t, 2643743, rec.ID)
	assert.Equal(t, "London, GB", rec.FullName())
	assert.False(t, rec.IsFavorite)
	assert.WithinDuration(t, observed, rec.LastUpdated(), time.Second)

	stored, err := svc.Get(context.Background(), 2643743)
	require.NoError(t, err)
	assert.Equal(t, 17.0, stored.Current.Temp)
	assert.Len(t, stored.Daily, 1)
}

func TestUpsert_ReplacesChildrenWholesale(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, london(), currentAt(time.Now().Add(-time.Hour), 12), []weather.DailyForecast{
		{ObservedAt: time.Now().Add(24 * time.Hour), Temp: 10},
		{ObservedAt: time.Now().Add(48 * time.Hour), Temp: 11},
	})
	require.NoError(t, err)

	_, err = svc.Upsert(ctx, london(), currentAt(time.Now(), 19), []weather.DailyForecast{
		{ObservedAt: time.Now().Add(24 * time.Hour), Temp: 18},
	})
	require.NoError(t, err)

	stored, err := svc.Get(ctx, 2643743)
	require.NoError(t, err)
	assert.Equal(t, 19.0, stored.Current.Temp)
	require.Len(t, stored.Daily, 1)
	assert.Equal(t, 18.0, stored.Daily[0].Temp)
}

func TestUpsert_PreservesFavorite(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, london(), currentAt(time.Now(), 12), nil)
	require.NoError(t, err)

	_, err = svc.ToggleFavorite(ctx, 2643743)
	require.NoError(t, err)

	rec, err := svc.Upsert(ctx, london(), currentAt(time.Now(), 20), nil)
	require.NoError(t, err)
	assert.True(t, rec.IsFavorite)

	stored, err := svc.Get(ctx, 2643743)
	require.NoError(t, err)
	assert.True(t, stored.IsFavorite)
}

func TestToggleFavorite(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, london(), currentAt(time.Now(), 12), nil)
	require.NoError(t, err)

	rec, err := svc.ToggleFavorite(ctx, 2643743)
	require.NoError(t, err)
	assert.True(t, rec.IsFavorite)

	rec, err = svc.ToggleFavorite(ctx, 2643743)
	require.NoError(t, err)
	assert.False(t, rec.IsFavorite)
}

func TestToggleFavorite_NotFound(t *testing.T) {
	_, err := testService(t).ToggleFavorite(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, london(), currentAt(time.Now(), 12), nil)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, 2643743))

	_, err = svc.Get(ctx, 2643743)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, 2643743), ErrNotFound)
}

func TestList_SortedByName(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	cities := []weather.CityMeta{
		{ID: 1, Name: "Oslo", Country: "NO"},
		{ID: 2, Name: "Amsterdam", Country: "NL"},
		{ID: 3, Name: "Lisbon", Country: "PT"},
	}
	for _, city := range cities {
		_, err := svc.Upsert(ctx, city, currentAt(time.Now(), 10), nil)
		require.NoError(t, err)
	}

	records, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Amsterdam", records[0].Name)
	assert.Equal(t, "Lisbon", records[1].Name)
	assert.Equal(t, "Oslo", records[2].Name)
}

type brokenRepository struct {
	Repository
}

func (b *brokenRepository) Replace(ctx context.Context, rec *Record) error {
	return errors.New("connection reset")
}

func TestUpsert_PersistenceFailureStillReturnsRecord(t *testing.T) {
	svc := NewService(&brokenRepository{Repository: NewInMemoryRepository()}, zerolog.Nop())

	rec, err := svc.Upsert(context.Background(), london(), currentAt(time.Now(), 21), nil)
	require.ErrorIs(t, err, ErrPersistence)
	require.NotNil(t, rec)
	assert.Equal(t, 21.0, rec.Current.Temp)
}

func TestRecord_CloneIsDeep(t *testing.T) {
	rec := &Record{
		ID:    1,
		Name:  "Oslo",
		Daily: []weather.DailyForecast{{Temp: 4}},
	}

	clone := rec.Clone()
	clone.Daily[0].Temp = 99

	assert.Equal(t, 4.0, rec.Daily[0].Temp)
}
