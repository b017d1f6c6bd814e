// Package domain models weather observations shown on the globe.
//
// # Data Source
//
// Observations come from a flat CSV file produced by the collector
// (cmd/collect), which queries the WeatherStack "current" endpoint once per
// location in metric units. The header row names the columns; the loader
// maps cells by header name, so column order is irrelevant.
//
//	location,latitude,longitude,observation_time,temperature,
//	weather_descriptions,wind_speed,wind_dir,pressure,humidity,feels_like,
//	uv_index,visibility,is_day,precipitation,cloudcover,timestamp
//
// # Units
//
//	temperature, feels_like   °C
//	wind_speed                km/h, wind_dir is a compass string ("WSW")
//	pressure                  mb
//	visibility                km
//	precipitation             mm
//	humidity, cloudcover      percent
//
// # Unparsable values
//
// Numeric cells are read like a browser's parseFloat: the longest leading
// number wins ("10 km" → 10) and a cell with no leading number becomes NaN.
// NaN is carried through to display text unchanged ("NaN°C"). Rows without a
// usable latitude or longitude never become records.
//
// # Categories
//
// Every record is classified once, at load time, from weather_descriptions.
// Matching is a case-insensitive substring test in a fixed priority order:
//
//	Rain   "rain", "drizzle"
//	Snow   "snow"
//	Storm  "storm", "thunder"
//	Cloudy "cloud", "overcast"
//	Clear  everything else, including an empty description
//
// "Light rain with thunderstorm" is therefore Rain, not Storm.
//
// # Identity
//
// Record IDs are "location_<n>" where n counts coordinate-valid rows in file
// order. They are stable for one load only: dropping or adding an unrelated
// row shifts every later ID.
package domain
