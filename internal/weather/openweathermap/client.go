// Package openweathermap implements weather.Source against the
// OpenWeatherMap /data/2.5 API.
package openweathermap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/skycast/skycast/internal/provider/resilience"
	"github.com/skycast/skycast/internal/weather"
)

const (
	// SourceName identifies this weather source.
	SourceName = "openweathermap"

	// DefaultBaseURL is the OpenWeatherMap API base URL.
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"
)

// ClientConfig holds configuration for the OpenWeatherMap client.
type ClientConfig struct {
	// APIKey is the OpenWeatherMap API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to OpenWeatherMap).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OpenWeatherMap API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new OpenWeatherMap client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(SourceName))
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the source name.
func (c *Client) Name() string {
	return SourceName
}

// GetCurrent fetches current conditions for a coordinate.
func (c *Client) GetCurrent(ctx context.Context, coord weather.Coordinate) (*weather.CurrentSample, error) {
	url := fmt.Sprintf("%s/weather?lat=%.6f&lon=%.6f&appid=%s&units=metric",
		c.baseURL, coord.Lat, coord.Lon, c.apiKey)

	var owmResp currentWeatherResponse
	if err := c.get(ctx, url, &owmResp); err != nil {
		return nil, err
	}

	return toCurrentSample(&owmResp), nil
}

// GetForecast fetches the 3-hourly forecast list for a coordinate.
func (c *Client) GetForecast(ctx context.Context, coord weather.Coordinate) ([]weather.ForecastSample, *weather.CityMeta, error) {
	url := fmt.Sprintf("%s/forecast?lat=%.6f&lon=%.6f&appid=%s&units=metric",
		c.baseURL, coord.Lat, coord.Lon, c.apiKey)

	var owmResp forecastResponse
	if err := c.get(ctx, url, &owmResp); err != nil {
		return nil, nil, err
	}

	samples, city := toForecast(&owmResp)
	return samples, city, nil
}

// get issues a request through the resilient client and decodes the
// body, mapping failures onto the fetch error taxonomy.
func (c *Client) get(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return weather.NewTransportError(fmt.Errorf("creating request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return weather.NewTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return weather.NewServerError(resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return weather.NewDecodeError(err)
	}

	return nil
}

// toCurrentSample converts an OpenWeatherMap response to the domain model.
func toCurrentSample(resp *currentWeatherResponse) *weather.CurrentSample {
	return &weather.CurrentSample{
		Coord: weather.Coordinate{
			Lat: resp.Coord.Lat,
			Lon: resp.Coord.Lon,
		},
		ObservedAt: time.Unix(resp.Dt, 0),
		Temp:       resp.Main.Temp,
		TempMin:    resp.Main.TempMin,
		TempMax:    resp.Main.TempMax,
		Category:   weather.Classify(resp.primaryCondition()),
	}
}

// toForecast converts an OpenWeatherMap forecast response to domain samples
// plus the city metadata block.
func toForecast(resp *forecastResponse) ([]weather.ForecastSample, *weather.CityMeta) {
	samples := make([]weather.ForecastSample, 0, len(resp.List))
	for _, entry := range resp.List {
		samples = append(samples, weather.ForecastSample{
			ObservedAt: time.Unix(entry.Dt, 0),
			Temp:       entry.Main.Temp,
			TempMin:    entry.Main.TempMin,
			TempMax:    entry.Main.TempMax,
			Category:   weather.Classify(entry.primaryCondition()),
		})
	}

	city := &weather.CityMeta{
		ID:   resp.City.ID,
		Name: resp.City.Name,
		Coord: weather.Coordinate{
			Lat: resp.City.Coord.Lat,
			Lon: resp.City.Coord.Lon,
		},
		Country: resp.City.Country,
	}

	return samples, city
}

// OpenWeatherMap API wire structures. Tags are symmetric so encoding a
// response reproduces the provider's nested shape.

type wireCoord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type wireCondition struct {
	Main string `json:"main"`
}

type wireMain struct {
	Temp    float64 `json:"temp"`
	TempMin float64 `json:"temp_min"`
	TempMax float64 `json:"temp_max"`
}

type currentWeatherResponse struct {
	Coord   wireCoord       `json:"coord"`
	Weather []wireCondition `json:"weather"`
	Main    wireMain        `json:"main"`
	Dt      int64           `json:"dt"`
	Name    string          `json:"name,omitempty"`
}

// primaryCondition returns weather[0].main, or empty when the provider
// sends no condition array. Classify turns empty into Clouds.
func (r *currentWeatherResponse) primaryCondition() string {
	if len(r.Weather) == 0 {
		return ""
	}
	return r.Weather[0].Main
}

type forecastEntry struct {
	Dt      int64           `json:"dt"`
	Main    wireMain        `json:"main"`
	Weather []wireCondition `json:"weather"`
}

func (e *forecastEntry) primaryCondition() string {
	if len(e.Weather) == 0 {
		return ""
	}
	return e.Weather[0].Main
}

type wireCity struct {
	ID      int       `json:"id"`
	Name    string    `json:"name"`
	Coord   wireCoord `json:"coord"`
	Country string    `json:"country"`
}

type forecastResponse struct {
	List []forecastEntry `json:"list"`
	City wireCity        `json:"city"`
}
