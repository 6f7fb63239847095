package weather

import "strings"

// Classify maps a provider condition string to a Category. Matching is
// case-insensitive; anything unrecognized (including empty input)
// collapses to CategoryClouds. Total function, never fails.
func Classify(raw string) Category {
	switch strings.ToLower(raw) {
	case "clear":
		return CategoryClear
	case "clouds":
		return CategoryClouds
	case "rain", "drizzle", "thunderstorm":
		return CategoryRain
	default:
		return CategoryClouds
	}
}
