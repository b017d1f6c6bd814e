package domain

import (
	"github.com/sixdouglas/suncalc"
)

// Daylight describes whether the sun was up at an observation.
type Daylight string

const (
	DaylightUnknown Daylight = "unknown"
	DaylightDay     Daylight = "day"
	DaylightNight   Daylight = "night"
)

// DaylightAt reports whether the sun was above the horizon at the record's
// place and time. Records without a timestamp are unknown.
func DaylightAt(r WeatherRecord) Daylight {
	if !r.HasTimestamp() || !ValidCoordinates(r.Lat, r.Lng) {
		return DaylightUnknown
	}
	pos := suncalc.GetPosition(r.Timestamp, r.Lat, r.Lng)
	if pos.Altitude > 0 {
		return DaylightDay
	}
	return DaylightNight
}
