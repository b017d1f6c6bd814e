package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TemperatureBand is the colour band of a marker badge.
type TemperatureBand string

const (
	BandCold TemperatureBand = "cold"
	BandMild TemperatureBand = "mild"
	BandWarm TemperatureBand = "warm"
	BandHot  TemperatureBand = "hot"
)

// bandColors are the badge fill colours per band.
var bandColors = map[TemperatureBand]string{
	BandCold: "#00f",
	BandMild: "#0f0",
	BandWarm: "#ff0",
	BandHot:  "#f00",
}

// BandFor buckets a temperature in °C: ≤0 cold, ≤15 mild, ≤25 warm, else hot.
// NaN compares false against every threshold and lands in hot.
func BandFor(temp float64) TemperatureBand {
	switch {
	case temp <= 0:
		return BandCold
	case temp <= 15:
		return BandMild
	case temp <= 25:
		return BandWarm
	default:
		return BandHot
	}
}

// Badge is the visual summary drawn on a marker.
type Badge struct {
	Label string          `json:"label"`
	Band  TemperatureBand `json:"band"`
	Color string          `json:"color"`
}

// BadgeFor returns the marker badge of a record: rounded temperature plus band colour.
func BadgeFor(r WeatherRecord) Badge {
	band := BandFor(r.Temperature)
	return Badge{
		Label: formatNumber(roundHalfUp(r.Temperature)) + "°",
		Band:  band,
		Color: bandColors[band],
	}
}

// roundHalfUp rounds .5 towards +Inf (-2.5 → -2), unlike math.Round.
func roundHalfUp(v float64) float64 {
	r := math.Floor(v + 0.5)
	if r == 0 {
		return 0 // drop negative zero
	}
	return r
}

// formatNumber prints a measurement in its shortest form; NaN prints as "NaN".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// MarkerSummary is the multi-line text attached to a marker.
func MarkerSummary(r WeatherRecord) string {
	lines := []string{
		fmt.Sprintf("Temperature: %s°C", formatNumber(r.Temperature)),
		fmt.Sprintf("Wind: %s km/h %s", formatNumber(r.WindSpeed), r.WindDir),
		fmt.Sprintf("Humidity: %s%%", formatNumber(r.Humidity)),
		fmt.Sprintf("Pressure: %s mb", formatNumber(r.Pressure)),
		fmt.Sprintf("Visibility: %s km", formatNumber(r.Visibility)),
		fmt.Sprintf("Cloud Cover: %s%%", formatNumber(r.CloudCover)),
	}
	return strings.Join(lines, "\n")
}

// ListSummary is the one-line text of a list entry.
func ListSummary(r WeatherRecord) string {
	return fmt.Sprintf("%s°C - %s", formatNumber(r.Temperature), r.Description)
}

// DetailText is the full attribute block of the detail panel.
func DetailText(r WeatherRecord) string {
	lines := []string{
		fmt.Sprintf("Temperature: %s°C", formatNumber(r.Temperature)),
		fmt.Sprintf("Feels Like: %s°C", formatNumber(r.FeelsLike)),
		fmt.Sprintf("Weather: %s", r.Description),
		fmt.Sprintf("Wind: %s km/h %s", formatNumber(r.WindSpeed), r.WindDir),
		fmt.Sprintf("Humidity: %s%%", formatNumber(r.Humidity)),
		fmt.Sprintf("Pressure: %s mb", formatNumber(r.Pressure)),
		fmt.Sprintf("Visibility: %s km", formatNumber(r.Visibility)),
		fmt.Sprintf("Precipitation: %s mm", formatNumber(r.Precipitation)),
		fmt.Sprintf("Cloud Cover: %s%%", formatNumber(r.CloudCover)),
	}
	if !math.IsNaN(r.UVIndex) {
		lines = append(lines, fmt.Sprintf("UV Index: %s", formatNumber(r.UVIndex)))
	}
	if r.ObservationTime != "" {
		lines = append(lines, "Observed: "+r.ObservationTime)
	}
	return strings.Join(lines, "\n")
}

// TimestampText renders the "Last Updated" line of the detail panel.
func TimestampText(r WeatherRecord) string {
	if !r.HasTimestamp() {
		return "Last Updated: Invalid Date"
	}
	return "Last Updated: " + r.Timestamp.Format(time.DateTime)
}
