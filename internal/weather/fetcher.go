package weather

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// Source is the remote weather capability consumed by the Fetcher.
// Implementations own all transport and wire-decoding concerns and
// surface failures as *FetchError.
type Source interface {
	// GetCurrent fetches current conditions for a coordinate.
	GetCurrent(ctx context.Context, coord Coordinate) (*CurrentSample, error)

	// GetForecast fetches the 3-hourly forecast list and the city
	// metadata block for a coordinate.
	GetForecast(ctx context.Context, coord Coordinate) ([]ForecastSample, *CityMeta, error)

	// Name returns the source name for logging.
	Name() string
}

// FetchResult joins the two retrievals of one successful fetch.
type FetchResult struct {
	Current  CurrentSample
	Forecast []ForecastSample
	City     CityMeta
}

// Fetcher retrieves current conditions and forecast concurrently for a
// single coordinate. Both retrievals must succeed; a failure of either
// aborts the sibling and yields one aggregated failure with no partial
// results.
type Fetcher struct {
	source Source
	logger zerolog.Logger
}

// NewFetcher creates a Fetcher over the given source.
func NewFetcher(source Source, logger zerolog.Logger) *Fetcher {
	return &Fetcher{source: source, logger: logger}
}

// Fetch runs both retrievals and waits for both to complete.
func (f *Fetcher) Fetch(ctx context.Context, coord Coordinate) (*FetchResult, error) {
	if !coord.Valid() {
		return nil, ErrInvalidCoordinates
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type currentResult struct {
		sample *CurrentSample
		err    error
	}
	type forecastResult struct {
		samples []ForecastSample
		city    *CityMeta
		err     error
	}

	currentCh := make(chan currentResult, 1)
	forecastCh := make(chan forecastResult, 1)

	go func() {
		sample, err := f.source.GetCurrent(ctx, coord)
		if err != nil {
			cancel()
		}
		currentCh <- currentResult{sample: sample, err: err}
	}()

	go func() {
		samples, city, err := f.source.GetForecast(ctx, coord)
		if err != nil {
			cancel()
		}
		forecastCh <- forecastResult{samples: samples, city: city, err: err}
	}()

	current := <-currentCh
	forecast := <-forecastCh

	if err := firstCause(current.err, forecast.err); err != nil {
		f.logger.Warn().
			Float64("lat", coord.Lat).
			Float64("lon", coord.Lon).
			Str("source", f.source.Name()).
			Err(err).
			Msg("weather fetch failed")
		return nil, err
	}

	return &FetchResult{
		Current:  *current.sample,
		Forecast: forecast.samples,
		City:     *forecast.city,
	}, nil
}

// firstCause picks the failure to surface when either retrieval
// errored. A sibling aborted by cancellation is not the cause, so a
// genuine provider failure wins over a context.Canceled error.
func firstCause(errs ...error) error {
	var canceled error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) {
			canceled = err
			continue
		}
		return err
	}
	return canceled
}
