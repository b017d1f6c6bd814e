package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// RecordID identifies a record within a single load. IDs are assigned in
// load order and are not stable across reloads.
type RecordID string

// NewRecordID returns the identity of the index-th coordinate-valid row of a load.
func NewRecordID(index int) RecordID {
	return RecordID(fmt.Sprintf("location_%d", index))
}

// WeatherRecord is one observation from the tabular source.
//
// Numeric measurements that failed to parse hold NaN; display code prints
// them as-is. Lat and Lng are always finite for records that survived loading.
type WeatherRecord struct {
	ID       RecordID `json:"id"`
	Location string   `json:"location"`
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`

	Temperature   float64 `json:"temperature"`
	FeelsLike     float64 `json:"feels_like"`
	WindSpeed     float64 `json:"wind_speed"`
	WindDir       string  `json:"wind_dir"`
	Humidity      float64 `json:"humidity"`
	Pressure      float64 `json:"pressure"`
	Visibility    float64 `json:"visibility"`
	Precipitation float64 `json:"precipitation"`
	CloudCover    float64 `json:"cloudcover"`
	UVIndex       float64 `json:"uv_index"`

	Description     string    `json:"description"`
	Category        Category  `json:"category"`
	ObservationTime string    `json:"observation_time,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// HasTimestamp reports whether the source timestamp parsed.
func (r WeatherRecord) HasTimestamp() bool { return !r.Timestamp.IsZero() }

// ValidCoordinates reports whether lat/lng are finite and on the globe.
func ValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// MarshalJSON encodes NaN measurements as null, which encoding/json cannot
// represent as numbers.
func (r WeatherRecord) MarshalJSON() ([]byte, error) {
	type wire struct {
		ID              RecordID  `json:"id"`
		Location        string    `json:"location"`
		Lat             float64   `json:"lat"`
		Lng             float64   `json:"lng"`
		Temperature     *float64  `json:"temperature"`
		FeelsLike       *float64  `json:"feels_like"`
		WindSpeed       *float64  `json:"wind_speed"`
		WindDir         string    `json:"wind_dir"`
		Humidity        *float64  `json:"humidity"`
		Pressure        *float64  `json:"pressure"`
		Visibility      *float64  `json:"visibility"`
		Precipitation   *float64  `json:"precipitation"`
		CloudCover      *float64  `json:"cloudcover"`
		UVIndex         *float64  `json:"uv_index"`
		Description     string    `json:"description"`
		Category        Category  `json:"category"`
		ObservationTime string    `json:"observation_time,omitempty"`
		Timestamp       time.Time `json:"timestamp"`
	}
	return json.Marshal(wire{
		ID:              r.ID,
		Location:        r.Location,
		Lat:             r.Lat,
		Lng:             r.Lng,
		Temperature:     finiteOrNil(r.Temperature),
		FeelsLike:       finiteOrNil(r.FeelsLike),
		WindSpeed:       finiteOrNil(r.WindSpeed),
		WindDir:         r.WindDir,
		Humidity:        finiteOrNil(r.Humidity),
		Pressure:        finiteOrNil(r.Pressure),
		Visibility:      finiteOrNil(r.Visibility),
		Precipitation:   finiteOrNil(r.Precipitation),
		CloudCover:      finiteOrNil(r.CloudCover),
		UVIndex:         finiteOrNil(r.UVIndex),
		Description:     r.Description,
		Category:        r.Category,
		ObservationTime: r.ObservationTime,
		Timestamp:       r.Timestamp,
	})
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
