// Package pipeline runs the fetch, aggregate, persist and degrade flow
// for one weather display session.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/skycast/skycast/internal/geolocate"
	"github.com/skycast/skycast/internal/location"
	"github.com/skycast/skycast/internal/weather"
)

// Phase is the display state of a session.
type Phase string

// Session phases.
const (
	PhaseIdle        Phase = "IDLE"
	PhaseResolving   Phase = "RESOLVING"
	PhaseFetching    Phase = "FETCHING"
	PhaseSucceeded   Phase = "SUCCEEDED"
	PhaseFallingBack Phase = "FALLING_BACK"
	PhaseDisplayed   Phase = "DISPLAYED"
	PhaseFailed      Phase = "FAILED"
)

// DefaultNoticeTTL is how long a staleness notice stays visible.
const DefaultNoticeTTL = 3 * time.Second

// ErrSessionNotFound is returned when a session id is unknown.
var ErrSessionNotFound = errors.New("session not found")

// Notice is a transient, self-dismissing message shown alongside stale
// data.
type Notice struct {
	Message      string
	VisibleUntil time.Time
}

// Request names the inputs of a session run. At most one of Explicit
// and LocationID is set; with neither, the device location is used.
type Request struct {
	Explicit   *weather.Coordinate
	LocationID *int
}

// Snapshot is a point-in-time view of a session, safe to retain.
type Snapshot struct {
	ID           string
	Phase        Phase
	Record       *location.Record
	ErrorMessage string
	Notice       *Notice
}

// Config holds the collaborators a session needs.
type Config struct {
	Fetcher  *weather.Fetcher
	Resolver *geolocate.Resolver
	Store    *location.Service
	Logger   zerolog.Logger

	// NoticeTTL overrides DefaultNoticeTTL when positive.
	NoticeTTL time.Duration
}

// Session drives one display surface through the pipeline. A retry
// cancels any in-flight run before starting over, so at most one run
// is ever active and only the latest run's outcome is applied.
type Session struct {
	id        string
	fetcher   *weather.Fetcher
	resolver  *geolocate.Resolver
	store     *location.Service
	logger    zerolog.Logger
	noticeTTL time.Duration
	req       Request

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	phase  Phase
	record *location.Record
	errMsg string
	notice *Notice
}

// NewSession creates an idle session for the given request.
func NewSession(cfg Config, req Request) *Session {
	ttl := cfg.NoticeTTL
	if ttl <= 0 {
		ttl = DefaultNoticeTTL
	}
	id := "ses_" + uuid.New().String()
	return &Session{
		id:        id,
		fetcher:   cfg.Fetcher,
		resolver:  cfg.Resolver,
		store:     cfg.Store,
		logger:    cfg.Logger.With().Str("session_id", id).Logger(),
		noticeTTL: ttl,
		req:       req,
		phase:     PhaseIdle,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Run executes the pipeline to completion. A run already in flight is
// cancelled first; its late results are discarded.
func (s *Session) Run(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	req := s.req
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.phase = PhaseResolving
	s.errMsg = ""
	s.notice = nil
	s.mu.Unlock()

	defer cancel()
	s.run(runCtx, gen, req)
}

// Retry re-runs the session. The prior coordinate source is kept
// unless a new explicit coordinate is supplied.
func (s *Session) Retry(ctx context.Context, explicit *weather.Coordinate) {
	if explicit != nil {
		s.mu.Lock()
		s.req = Request{Explicit: explicit}
		s.mu.Unlock()
	}
	s.Run(ctx)
}

// Snapshot returns the session's current state. Expired notices are
// omitted.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:           s.id,
		Phase:        s.phase,
		ErrorMessage: s.errMsg,
	}
	if s.record != nil {
		snap.Record = s.record.Clone()
	}
	if s.notice != nil && time.Now().Before(s.notice.VisibleUntil) {
		n := *s.notice
		snap.Notice = &n
	}
	return snap
}

// run executes one attempt against a request snapshot taken under the
// lock in Run, so a concurrent Retry swapping the request cannot be
// observed mid-run.
func (s *Session) run(ctx context.Context, gen uint64, req Request) {
	fallback := s.lastSaved(ctx, req)

	var lastKnown *weather.Coordinate
	if req.Explicit == nil && fallback != nil {
		c := fallback.Coord
		lastKnown = &c
	}

	coord, err := s.resolver.Resolve(ctx, geolocate.Request{
		Explicit:  req.Explicit,
		LastKnown: lastKnown,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("coordinate resolution failed")
		s.fail(gen, fallback, err)
		return
	}

	s.apply(gen, func() {
		s.phase = PhaseFetching
	})

	result, err := s.fetcher.Fetch(ctx, coord)
	if err != nil {
		s.logger.Warn().Err(err).
			Float64("lat", coord.Lat).
			Float64("lon", coord.Lon).
			Msg("weather fetch failed")
		s.fail(gen, fallback, err)
		return
	}

	daily := weather.AggregateDaily(result.Forecast, time.Now())

	// Persist even if this run was superseded mid-fetch; the data is
	// good and a later run should see it as last saved.
	rec, err := s.store.Upsert(context.WithoutCancel(ctx), result.City, result.Current, daily)
	if err != nil {
		if errors.Is(err, location.ErrPersistence) {
			s.logger.Error().Err(err).Int("location_id", rec.ID).Msg("persist failed, displaying unsaved data")
		} else {
			s.fail(gen, fallback, err)
			return
		}
	}

	s.apply(gen, func() {
		s.phase = PhaseSucceeded
		s.record = rec
		s.errMsg = ""
		s.notice = nil
	})
	s.apply(gen, func() {
		s.phase = PhaseDisplayed
	})
}

// lastSaved returns the record backing stale fallback: the requested
// location when one was named, otherwise the most recently updated
// saved location.
func (s *Session) lastSaved(ctx context.Context, req Request) *location.Record {
	if req.LocationID != nil {
		rec, err := s.store.Get(ctx, *req.LocationID)
		if err != nil {
			if !errors.Is(err, location.ErrNotFound) {
				s.logger.Warn().Err(err).Int("location_id", *req.LocationID).Msg("loading saved location failed")
			}
			return nil
		}
		return rec
	}

	records, err := s.store.List(ctx)
	if err != nil || len(records) == 0 {
		return nil
	}
	newest := records[0]
	for _, rec := range records[1:] {
		if rec.LastUpdated().After(newest.LastUpdated()) {
			newest = rec
		}
	}
	return newest
}

// fail degrades the session: the currently displayed record wins as
// fallback, then the last saved one; with neither the run fails.
func (s *Session) fail(gen uint64, lastSaved *location.Record, cause error) {
	s.apply(gen, func() {
		fallback := s.record
		if fallback == nil {
			fallback = lastSaved
		}
		if fallback == nil {
			s.phase = PhaseFailed
			s.errMsg = cause.Error()
			return
		}
		s.phase = PhaseFallingBack
		s.record = fallback
		s.errMsg = ""
		s.notice = &Notice{
			Message:      "Updated On: " + fallback.LastUpdated().Format(time.RFC1123),
			VisibleUntil: time.Now().Add(s.noticeTTL),
		}
	})
	s.apply(gen, func() {
		if s.phase == PhaseFallingBack {
			s.phase = PhaseDisplayed
		}
	})
}

// apply runs fn under the lock only if this run is still the latest.
func (s *Session) apply(gen uint64, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	fn()
}

// Manager tracks live sessions by id.
type Manager struct {
	cfg Config

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager.
func NewManager(cfg Config) *Manager {
	return &Manager{
		cfg:      cfg,
		sessions: make(map[string]*Session),
	}
}

// Create registers a new session for the request.
func (m *Manager) Create(req Request) *Session {
	sess := NewSession(m.cfg, req)
	m.mu.Lock()
	m.sessions[sess.ID()] = sess
	m.mu.Unlock()
	return sess
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}
