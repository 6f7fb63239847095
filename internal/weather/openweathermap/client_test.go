package openweathermap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycast/skycast/internal/provider/resilience"
	"github.com/skycast/skycast/internal/weather"
)

const currentBody = `{
	"coord": {"lat": 51.51, "lon": -0.13},
	"weather": [{"main": "Rain"}],
	"main": {"temp": 13.4, "temp_min": 11.0, "temp_max": 15.2},
	"dt": 1756700000,
	"name": "London"
}`

const forecastBody = `{
	"list": [
		{"dt": 1756790000, "main": {"temp": 14.0, "temp_min": 12.0, "temp_max": 16.0}, "weather": [{"main": "Clouds"}]},
		{"dt": 1756800800, "main": {"temp": 15.5, "temp_min": 13.0, "temp_max": 17.0}, "weather": [{"main": "Clear"}]}
	],
	"city": {"id": 2643743, "name": "London", "coord": {"lat": 51.51, "lon": -0.13}, "country": "GB"}
}`

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(ClientConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		HTTPClient: resilience.NewClient(resilience.ClientConfig{
			Name:            "owm-test",
			Timeout:         time.Second,
			MaxRetries:      1,
			InitialInterval: time.Millisecond,
			MaxInterval:     time.Millisecond,
		}),
		Logger: zerolog.Nop(),
	})
}

func TestGetCurrent(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		assert.Equal(t, "51.510000", r.URL.Query().Get("lat"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(currentBody))
	})

	sample, err := client.GetCurrent(context.Background(), weather.Coordinate{Lat: 51.51, Lon: -0.13})
	require.NoError(t, err)

	assert.Equal(t, weather.CategoryRain, sample.Category)
	assert.Equal(t, 13.4, sample.Temp)
	assert.Equal(t, 11.0, sample.TempMin)
	assert.Equal(t, 15.2, sample.TempMax)
	assert.Equal(t, time.Unix(1756700000, 0), sample.ObservedAt)
	assert.Equal(t, 51.51, sample.Coord.Lat)
}

func TestGetForecast(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(forecastBody))
	})

	samples, city, err := client.GetForecast(context.Background(), weather.Coordinate{Lat: 51.51, Lon: -0.13})
	require.NoError(t, err)

	require.Len(t, samples, 2)
	assert.Equal(t, weather.CategoryClouds, samples[0].Category)
	assert.Equal(t, weather.CategoryClear, samples[1].Category)
	assert.Equal(t, 14.0, samples[0].Temp)

	require.NotNil(t, city)
	assert.Equal(t, 2643743, city.ID)
	assert.Equal(t, "London", city.Name)
	assert.Equal(t, "GB", city.Country)
}

func TestGetCurrent_ServerError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.GetCurrent(context.Background(), weather.Coordinate{Lat: 51.51, Lon: -0.13})

	var fetchErr *weather.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, weather.FailureServer, fetchErr.Kind)
	assert.Equal(t, http.StatusUnauthorized, fetchErr.StatusCode)
}

func TestGetCurrent_DecodeError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"main": "not-an-object"`))
	})

	_, err := client.GetCurrent(context.Background(), weather.Coordinate{Lat: 51.51, Lon: -0.13})

	var fetchErr *weather.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, weather.FailureDecode, fetchErr.Kind)
}

func TestGetForecast_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(ClientConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		HTTPClient: resilience.NewClient(resilience.ClientConfig{
			Name:            "owm-test",
			Timeout:         time.Second,
			MaxRetries:      1,
			InitialInterval: time.Millisecond,
			MaxInterval:     time.Millisecond,
		}),
		Logger: zerolog.Nop(),
	})

	_, _, err := client.GetForecast(context.Background(), weather.Coordinate{Lat: 51.51, Lon: -0.13})

	var fetchErr *weather.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, weather.FailureTransport, fetchErr.Kind)
}

func TestGetCurrent_MissingConditionDefaultsToClouds(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"coord": {"lat": 1, "lon": 2}, "weather": [], "main": {"temp": 5}, "dt": 1756700000}`))
	})

	sample, err := client.GetCurrent(context.Background(), weather.Coordinate{Lat: 1, Lon: 2})
	require.NoError(t, err)
	assert.Equal(t, weather.CategoryClouds, sample.Category)
}

func TestWireStructs_RoundTrip(t *testing.T) {
	current := currentWeatherResponse{
		Coord:   wireCoord{Lat: 51.51, Lon: -0.13},
		Weather: []wireCondition{{Main: "Drizzle"}},
		Main:    wireMain{Temp: 13.4, TempMin: 11.0, TempMax: 15.2},
		Dt:      1756700000,
		Name:    "London",
	}

	data, err := json.Marshal(current)
	require.NoError(t, err)

	var decodedCurrent currentWeatherResponse
	require.NoError(t, json.Unmarshal(data, &decodedCurrent))
	assert.Equal(t, current, decodedCurrent)
	assert.Equal(t, "Drizzle", decodedCurrent.primaryCondition())

	forecast := forecastResponse{
		List: []forecastEntry{
			{Dt: 1756790000, Main: wireMain{Temp: 14.0, TempMin: 12.0, TempMax: 16.0}, Weather: []wireCondition{{Main: "Snow"}}},
		},
		City: wireCity{ID: 2643743, Name: "London", Coord: wireCoord{Lat: 51.51, Lon: -0.13}, Country: "GB"},
	}

	data, err = json.Marshal(forecast)
	require.NoError(t, err)

	var decodedForecast forecastResponse
	require.NoError(t, json.Unmarshal(data, &decodedForecast))
	assert.Equal(t, forecast, decodedForecast)
	require.Len(t, decodedForecast.List, 1)
	assert.Equal(t, int64(1756790000), decodedForecast.List[0].Dt)
	assert.Equal(t, "Snow", decodedForecast.List[0].primaryCondition())
}
