// Package geolocate resolves the coordinate a pipeline run should
// query, in priority order: explicit coordinate, last known saved
// coordinate, device location.
package geolocate

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/skycast/skycast/internal/weather"
)

// Location errors.
var (
	ErrUnauthorized = errors.New("location access denied")
	ErrUnavailable  = errors.New("location services unavailable")
	ErrFailed       = errors.New("failed to get device location")
)

const (
	// DefaultSettleDelay is the fixed wait before any device reading is
	// accepted, so a stale first fix is not acted on.
	DefaultSettleDelay = 500 * time.Millisecond

	// DefaultMaxAccuracyM is the horizontal accuracy bound (meters) a
	// reading must meet to be accepted.
	DefaultMaxAccuracyM = 1000.0
)

// Reading is one device location fix.
type Reading struct {
	Coord weather.Coordinate

	// AccuracyM is the horizontal accuracy in meters; lower is better.
	AccuracyM float64

	At time.Time
}

// DeviceSource is the injected device location capability. A caller
// must request permission once before subscribing.
type DeviceSource interface {
	RequestPermission(ctx context.Context) error

	// Readings subscribes to location fixes. The channel is closed when
	// the source has nothing more to deliver.
	Readings(ctx context.Context) (<-chan Reading, error)
}

// Request names the coordinate sources available to one pipeline run.
type Request struct {
	// Explicit is a caller-supplied coordinate, e.g. a search selection.
	Explicit *weather.Coordinate

	// LastKnown is the coordinate of a previously saved location.
	LastKnown *weather.Coordinate
}

// ResolverConfig holds configuration for the resolver.
type ResolverConfig struct {
	// Device is the device location capability. May be nil when the
	// deployment has no location feed.
	Device DeviceSource

	// SettleDelay overrides DefaultSettleDelay when positive.
	SettleDelay time.Duration

	// MaxAccuracyM overrides DefaultMaxAccuracyM when positive.
	MaxAccuracyM float64

	// Logger for resolver operations.
	Logger zerolog.Logger
}

// Resolver picks exactly one coordinate source per run; sources are
// never merged and the first present source wins.
type Resolver struct {
	device      DeviceSource
	settleDelay time.Duration
	maxAccuracy float64
	logger      zerolog.Logger
}

// NewResolver creates a new coordinate resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	settle := cfg.SettleDelay
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	maxAccuracy := cfg.MaxAccuracyM
	if maxAccuracy <= 0 {
		maxAccuracy = DefaultMaxAccuracyM
	}
	return &Resolver{
		device:      cfg.Device,
		settleDelay: settle,
		maxAccuracy: maxAccuracy,
		logger:      cfg.Logger,
	}
}

// Resolve returns the coordinate for this run. With neither an explicit
// nor a last-known coordinate present, it falls through to the device:
// permission is requested, a settle delay passes, then the first
// reading meeting the accuracy bound is accepted. Less accurate
// readings are skipped without failing the request; the wait is bounded
// by ctx.
func (r *Resolver) Resolve(ctx context.Context, req Request) (weather.Coordinate, error) {
	if req.Explicit != nil {
		return *req.Explicit, nil
	}
	if req.LastKnown != nil {
		return *req.LastKnown, nil
	}
	return r.resolveDevice(ctx)
}

func (r *Resolver) resolveDevice(ctx context.Context) (weather.Coordinate, error) {
	if r.device == nil {
		return weather.Coordinate{}, ErrUnavailable
	}

	if err := r.device.RequestPermission(ctx); err != nil {
		return weather.Coordinate{}, err
	}

	readings, err := r.device.Readings(ctx)
	if err != nil {
		return weather.Coordinate{}, err
	}

	// Let the hardware warm up before trusting anything it sends.
	select {
	case <-time.After(r.settleDelay):
	case <-ctx.Done():
		return weather.Coordinate{}, ErrFailed
	}

	for {
		select {
		case reading, ok := <-readings:
			if !ok {
				return weather.Coordinate{}, ErrUnavailable
			}
			if reading.AccuracyM <= 0 || reading.AccuracyM > r.maxAccuracy {
				r.logger.Debug().
					Float64("accuracy_m", reading.AccuracyM).
					Msg("ignoring low-accuracy device reading")
				continue
			}
			return reading.Coord, nil
		case <-ctx.Done():
			return weather.Coordinate{}, ErrFailed
		}
	}
}
