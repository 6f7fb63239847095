package geolocate

import "context"

// StaticSource is a DeviceSource that yields one fixed reading. It
// backs server deployments where the "device" position is configured
// rather than sensed.
type StaticSource struct {
	Reading Reading
}

// NewStaticSource creates a source that always reports the given
// reading with high confidence.
func NewStaticSource(reading Reading) *StaticSource {
	if reading.AccuracyM <= 0 {
		reading.AccuracyM = 1
	}
	return &StaticSource{Reading: reading}
}

// RequestPermission always succeeds.
func (s *StaticSource) RequestPermission(ctx context.Context) error {
	return nil
}

// Readings delivers the fixed reading once, then closes.
func (s *StaticSource) Readings(ctx context.Context) (<-chan Reading, error) {
	ch := make(chan Reading, 1)
	ch <- s.Reading
	close(ch)
	return ch, nil
}
