// Package weather contains the core weather domain: coordinate and
// sample types, condition classification, daily aggregation, and the
// concurrent current+forecast fetcher.
package weather

import (
	"errors"
	"fmt"
	"time"
)

// Weather errors.
var (
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// Coordinate is a geographic point. Value type, equality by value.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Valid reports whether the coordinate is within geographic bounds.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Category represents the general weather condition. The set is closed:
// every provider string collapses into one of these three via Classify.
type Category string

const (
	CategoryClear  Category = "CLEAR"
	CategoryClouds Category = "CLOUDS"
	CategoryRain   Category = "RAIN"
)

// DisplayName returns the uppercase label shown by clients.
func (c Category) DisplayName() string {
	switch c {
	case CategoryClear:
		return "SUNNY"
	case CategoryRain:
		return "RAINY"
	case CategoryClouds:
		return "CLOUDY"
	default:
		return "CLOUDY"
	}
}

// IconKey returns the client icon asset key for the category.
func (c Category) IconKey() string {
	switch c {
	case CategoryClear:
		return "clear"
	case CategoryRain:
		return "rain"
	case CategoryClouds:
		return "partlysunny"
	default:
		return "partlysunny"
	}
}

// ThemeColor returns the hex theme color (no leading #).
func (c Category) ThemeColor() string {
	switch c {
	case CategoryClear:
		return "47AB2F"
	case CategoryRain:
		return "57575D"
	case CategoryClouds:
		return "54717A"
	default:
		return "54717A"
	}
}

// BackgroundKey returns the client background asset key.
func (c Category) BackgroundKey() string {
	switch c {
	case CategoryClear:
		return "forest_sunny"
	case CategoryRain:
		return "forest_rainy"
	case CategoryClouds:
		return "forest_cloudy"
	default:
		return "forest_cloudy"
	}
}

// CurrentSample is one observation of current conditions. Produced
// fresh on every successful fetch, never mutated in place.
type CurrentSample struct {
	Coord      Coordinate
	ObservedAt time.Time
	Temp       float64
	TempMin    float64
	TempMax    float64
	Category   Category
}

// ForecastSample is one raw 3-hourly forecast tick.
type ForecastSample struct {
	ObservedAt time.Time
	Temp       float64
	TempMin    float64
	TempMax    float64
	Category   Category
}

// DailyForecast is a ForecastSample selected to represent one whole
// calendar day. Sequences of DailyForecast are ordered by ObservedAt
// ascending.
type DailyForecast ForecastSample

// DayName returns the weekday name of the forecast's day.
func (d DailyForecast) DayName() string {
	return d.ObservedAt.Local().Weekday().String()
}

// CityMeta identifies the place a forecast response belongs to. ID is
// the provider's city identifier and the stable persistence key.
type CityMeta struct {
	ID      int
	Name    string
	Coord   Coordinate
	Country string
}

// FailureKind discriminates fetch failures for display purposes.
type FailureKind string

const (
	FailureTransport FailureKind = "TRANSPORT"
	FailureServer    FailureKind = "SERVER"
	FailureDecode    FailureKind = "DECODE"
)

// FetchError is the single failure type surfaced by weather retrieval.
// Downstream components treat it as opaque except for display.
type FetchError struct {
	Kind       FailureKind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case FailureServer:
		return fmt.Sprintf("weather provider returned status %d", e.StatusCode)
	case FailureDecode:
		return fmt.Sprintf("failed to decode weather response: %v", e.Err)
	default:
		return fmt.Sprintf("weather provider unreachable: %v", e.Err)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewTransportError wraps a connectivity or timeout failure.
func NewTransportError(err error) *FetchError {
	return &FetchError{Kind: FailureTransport, Err: err}
}

// NewServerError wraps a non-2xx provider response.
func NewServerError(statusCode int) *FetchError {
	return &FetchError{Kind: FailureServer, StatusCode: statusCode}
}

// NewDecodeError wraps a malformed provider payload.
func NewDecodeError(err error) *FetchError {
	return &FetchError{Kind: FailureDecode, Err: err}
}
