package weather

import (
	"sort"
	"time"
)

// maxAggregateDays is how many distinct days are considered before the
// "today" entry is dropped, so the result holds at most 5 entries.
const maxAggregateDays = 6

// AggregateDaily reduces irregular 3-hourly samples to at most 5
// representative daily entries:
//
//  1. Samples are partitioned by the start of their local calendar day.
//  2. The first 6 distinct days (ascending) are kept.
//  3. Each day is represented by the sample closest to local noon,
//     ties broken by input order.
//  4. If the first kept day is the local date of now, it is dropped.
//     This can leave an empty result for an early-morning request
//     whose samples all fall on the current day.
//
// The result is ordered by day ascending.
func AggregateDaily(samples []ForecastSample, now time.Time) []DailyForecast {
	if len(samples) == 0 {
		return nil
	}

	type bucket struct {
		dayStart time.Time
		best     ForecastSample
		bestDist time.Duration
	}

	index := make(map[int64]int)
	var buckets []bucket

	for _, s := range samples {
		dayStart := startOfDay(s.ObservedAt)
		noon := dayStart.Add(12 * time.Hour)
		dist := absDuration(s.ObservedAt.Sub(noon))

		key := dayStart.Unix()
		if i, ok := index[key]; ok {
			// Strict less-than keeps the earlier sample on ties.
			if dist < buckets[i].bestDist {
				buckets[i].best = s
				buckets[i].bestDist = dist
			}
			continue
		}

		index[key] = len(buckets)
		buckets = append(buckets, bucket{dayStart: dayStart, best: s, bestDist: dist})
	}

	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].dayStart.Before(buckets[j].dayStart)
	})

	if len(buckets) > maxAggregateDays {
		buckets = buckets[:maxAggregateDays]
	}

	// Only report days beyond the current one.
	if buckets[0].dayStart.Equal(startOfDay(now)) {
		buckets = buckets[1:]
	}

	if len(buckets) == 0 {
		return nil
	}

	result := make([]DailyForecast, 0, len(buckets))
	for _, b := range buckets {
		result = append(result, DailyForecast(b.best))
	}
	return result
}

// startOfDay returns midnight of t's local calendar day.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Local().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
