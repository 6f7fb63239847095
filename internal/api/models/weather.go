package models

import (
	"github.com/skycast/skycast/internal/location"
	"github.com/skycast/skycast/internal/pipeline"
	"github.com/skycast/skycast/internal/weather"
)

// TokenRequest is the body of POST /v1/auth/token.
type TokenRequest struct {
	DeviceID string `json:"deviceId" validate:"required"`
}

// TokenResponse carries a freshly issued bearer token.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt Timestamp `json:"expiresAt"`
}

// CreateSessionRequest is the body of POST /v1/sessions. At most one of
// the coordinate pair and LocationID is given; an empty body means
// device location.
type CreateSessionRequest struct {
	Lat        *float64 `json:"lat,omitempty"`
	Lon        *float64 `json:"lon,omitempty"`
	LocationID *int     `json:"locationId,omitempty"`
}

// RetrySessionRequest is the body of POST /v1/sessions/{sessionId}/retry.
// An empty body retries with the prior coordinate source.
type RetrySessionRequest struct {
	Lat *float64 `json:"lat,omitempty"`
	Lon *float64 `json:"lon,omitempty"`
}

// CurrentWeather is the displayed current conditions of a location.
type CurrentWeather struct {
	ObservedAt    Timestamp `json:"observedAt"`
	Temp          float64   `json:"temp"`
	TempMin       float64   `json:"tempMin"`
	TempMax       float64   `json:"tempMax"`
	Category      string    `json:"category"`
	DisplayName   string    `json:"displayName"`
	IconKey       string    `json:"iconKey"`
	ThemeColor    string    `json:"themeColor"`
	BackgroundKey string    `json:"backgroundKey"`
}

// DailyForecast is one day of the displayed forecast.
type DailyForecast struct {
	Date     Timestamp `json:"date"`
	Day      string    `json:"day"`
	Temp     float64   `json:"temp"`
	Category string    `json:"category"`
	IconKey  string    `json:"iconKey"`
}

// Location is a saved place with its weather.
type Location struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Country     string          `json:"country"`
	FullName    string          `json:"fullName"`
	Coord       Point           `json:"coord"`
	IsFavorite  bool            `json:"isFavorite"`
	LastUpdated Timestamp       `json:"lastUpdated"`
	Current     CurrentWeather  `json:"current"`
	Daily       []DailyForecast `json:"daily"`
}

// Notice is a transient message shown alongside stale data.
type Notice struct {
	Message      string    `json:"message"`
	VisibleUntil Timestamp `json:"visibleUntil"`
}

// SessionState is the snapshot of a pipeline session.
type SessionState struct {
	SessionID string    `json:"sessionId"`
	Phase     string    `json:"phase"`
	Location  *Location `json:"location,omitempty"`
	Error     *string   `json:"error,omitempty"`
	Notice    *Notice   `json:"notice,omitempty"`
}

// NewCurrentWeather converts a domain current sample.
func NewCurrentWeather(cur weather.CurrentSample) CurrentWeather {
	return CurrentWeather{
		ObservedAt:    Timestamp(cur.ObservedAt),
		Temp:          cur.Temp,
		TempMin:       cur.TempMin,
		TempMax:       cur.TempMax,
		Category:      string(cur.Category),
		DisplayName:   cur.Category.DisplayName(),
		IconKey:       cur.Category.IconKey(),
		ThemeColor:    cur.Category.ThemeColor(),
		BackgroundKey: cur.Category.BackgroundKey(),
	}
}

// NewDailyForecast converts a domain daily forecast.
func NewDailyForecast(d weather.DailyForecast) DailyForecast {
	return DailyForecast{
		Date:     Timestamp(d.ObservedAt),
		Day:      d.DayName(),
		Temp:     d.Temp,
		Category: string(d.Category),
		IconKey:  d.Category.IconKey(),
	}
}

// NewLocation converts a domain location record.
func NewLocation(rec *location.Record) *Location {
	if rec == nil {
		return nil
	}
	daily := make([]DailyForecast, 0, len(rec.Daily))
	for _, d := range rec.Daily {
		daily = append(daily, NewDailyForecast(d))
	}
	return &Location{
		ID:          rec.ID,
		Name:        rec.Name,
		Country:     rec.Country,
		FullName:    rec.FullName(),
		Coord:       Point{Lat: rec.Coord.Lat, Lon: rec.Coord.Lon},
		IsFavorite:  rec.IsFavorite,
		LastUpdated: Timestamp(rec.LastUpdated()),
		Current:     NewCurrentWeather(rec.Current),
		Daily:       daily,
	}
}

// NewSessionState converts a pipeline snapshot.
func NewSessionState(snap pipeline.Snapshot) SessionState {
	state := SessionState{
		SessionID: snap.ID,
		Phase:     string(snap.Phase),
		Location:  NewLocation(snap.Record),
	}
	if snap.ErrorMessage != "" {
		msg := snap.ErrorMessage
		state.Error = &msg
	}
	if snap.Notice != nil {
		state.Notice = &Notice{
			Message:      snap.Notice.Message,
			VisibleUntil: Timestamp(snap.Notice.VisibleUntil),
		}
	}
	return state
}
