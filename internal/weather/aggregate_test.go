package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// day returns midnight of today plus the given day offset, in local time.
func day(t *testing.T, offset int) time.Time {
	t.Helper()
	y, m, d := time.Now().Local().Date()
	return time.Date(y, m, d+offset, 0, 0, 0, 0, time.Local)
}

func sampleAt(at time.Time, temp float64) ForecastSample {
	return ForecastSample{ObservedAt: at, Temp: temp, Category: CategoryClouds}
}

func TestAggregateDaily_PicksSampleClosestToNoon(t *testing.T) {
	tomorrow := day(t, 1)
	samples := []ForecastSample{
		sampleAt(tomorrow.Add(8*time.Hour), 20),
		sampleAt(tomorrow.Add(12*time.Hour), 30),
		sampleAt(tomorrow.Add(21*time.Hour), 25),
	}

	daily := AggregateDaily(samples, time.Now())

	require.Len(t, daily, 1)
	assert.Equal(t, 30.0, daily[0].Temp)
}

func TestAggregateDaily_TieBrokenByInputOrder(t *testing.T) {
	tomorrow := day(t, 1)
	samples := []ForecastSample{
		sampleAt(tomorrow.Add(9*time.Hour), 10),
		sampleAt(tomorrow.Add(15*time.Hour), 99),
	}

	daily := AggregateDaily(samples, time.Now())

	require.Len(t, daily, 1)
	assert.Equal(t, 10.0, daily[0].Temp)
}

func TestAggregateDaily_DropsToday(t *testing.T) {
	today := day(t, 0)
	tomorrow := day(t, 1)
	samples := []ForecastSample{
		sampleAt(today.Add(15*time.Hour), 11),
		sampleAt(tomorrow.Add(12*time.Hour), 22),
	}

	daily := AggregateDaily(samples, time.Now())

	require.Len(t, daily, 1)
	assert.Equal(t, 22.0, daily[0].Temp)
}

func TestAggregateDaily_OnlyTodayYieldsEmpty(t *testing.T) {
	today := day(t, 0)
	samples := []ForecastSample{
		sampleAt(today.Add(9*time.Hour), 11),
		sampleAt(today.Add(12*time.Hour), 12),
	}

	assert.Empty(t, AggregateDaily(samples, time.Now()))
}

func TestAggregateDaily_CapsAtFiveBeyondToday(t *testing.T) {
	var samples []ForecastSample
	for offset := 0; offset < 8; offset++ {
		d := day(t, offset)
		samples = append(samples, sampleAt(d.Add(12*time.Hour), float64(offset)))
	}

	daily := AggregateDaily(samples, time.Now())

	require.Len(t, daily, 5)
	for i, d := range daily {
		assert.Equal(t, float64(i+1), d.Temp)
	}
}

func TestAggregateDaily_OrderedAscendingFromUnorderedInput(t *testing.T) {
	samples := []ForecastSample{
		sampleAt(day(t, 3).Add(12*time.Hour), 3),
		sampleAt(day(t, 1).Add(12*time.Hour), 1),
		sampleAt(day(t, 2).Add(12*time.Hour), 2),
	}

	daily := AggregateDaily(samples, time.Now())

	require.Len(t, daily, 3)
	for i := 1; i < len(daily); i++ {
		assert.True(t, daily[i-1].ObservedAt.Before(daily[i].ObservedAt))
	}
	assert.Equal(t, []float64{1, 2, 3}, []float64{daily[0].Temp, daily[1].Temp, daily[2].Temp})
}

func TestAggregateDaily_Empty(t *testing.T) {
	assert.Empty(t, AggregateDaily(nil, time.Now()))
}

func TestDailyForecast_DayName(t *testing.T) {
	// 2026-09-07 is a Monday.
	d := DailyForecast{ObservedAt: time.Date(2026, 9, 7, 12, 0, 0, 0, time.Local)}
	assert.Equal(t, "Monday", d.DayName())
}
