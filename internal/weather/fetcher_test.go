package weather

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetcherSource struct {
	current     *CurrentSample
	currentErr  error
	forecast    []ForecastSample
	city        *CityMeta
	forecastErr error

	// blockForecast makes GetForecast wait for ctx cancellation.
	blockForecast bool
}

func (s *fetcherSource) Name() string { return "test" }

func (s *fetcherSource) GetCurrent(ctx context.Context, coord Coordinate) (*CurrentSample, error) {
	return s.current, s.currentErr
}

func (s *fetcherSource) GetForecast(ctx context.Context, coord Coordinate) ([]ForecastSample, *CityMeta, error) {
	if s.blockForecast {
		<-ctx.Done()
		return nil, nil, ctx.Err()
	}
	return s.forecast, s.city, s.forecastErr
}

func validSource() *fetcherSource {
	return &fetcherSource{
		current: &CurrentSample{
			ObservedAt: time.Now(),
			Temp:       17,
			Category:   CategoryClear,
		},
		forecast: []ForecastSample{
			{ObservedAt: time.Now().Add(27 * time.Hour), Temp: 14, Category: CategoryRain},
		},
		city: &CityMeta{ID: 1, Name: "Testville", Country: "NL"},
	}
}

func TestFetch_BothSucceed(t *testing.T) {
	f := NewFetcher(validSource(), zerolog.Nop())

	result, err := f.Fetch(context.Background(), Coordinate{Lat: 52.37, Lon: 4.89})
	require.NoError(t, err)
	assert.Equal(t, CategoryClear, result.Current.Category)
	assert.Len(t, result.Forecast, 1)
	assert.Equal(t, "Testville", result.City.Name)
}

func TestFetch_ForecastFailureYieldsNoPartialResult(t *testing.T) {
	src := validSource()
	src.forecastErr = NewServerError(502)
	f := NewFetcher(src, zerolog.Nop())

	result, err := f.Fetch(context.Background(), Coordinate{Lat: 52.37, Lon: 4.89})
	assert.Nil(t, result)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, FailureServer, fetchErr.Kind)
}

func TestFetch_CurrentFailureAbortsForecast(t *testing.T) {
	src := validSource()
	src.currentErr = NewTransportError(errors.New("connection refused"))
	src.blockForecast = true
	f := NewFetcher(src, zerolog.Nop())

	done := make(chan struct{})
	var result *FetchResult
	var err error
	go func() {
		result, err = f.Fetch(context.Background(), Coordinate{Lat: 52.37, Lon: 4.89})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("fetch did not abort the blocked sibling")
	}

	assert.Nil(t, result)

	// The genuine failure wins over the sibling's cancellation.
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, FailureTransport, fetchErr.Kind)
}

func TestFetch_InvalidCoordinate(t *testing.T) {
	f := NewFetcher(validSource(), zerolog.Nop())

	_, err := f.Fetch(context.Background(), Coordinate{Lat: 120, Lon: 0})
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
}

func TestCoordinateValid(t *testing.T) {
	assert.True(t, Coordinate{Lat: 0, Lon: 0}.Valid())
	assert.True(t, Coordinate{Lat: -90, Lon: 180}.Valid())
	assert.False(t, Coordinate{Lat: 90.1, Lon: 0}.Valid())
	assert.False(t, Coordinate{Lat: 0, Lon: -180.1}.Valid())
}
