package domain

import "context"

// GeocodingResult names a place found by a geocoding provider.
type GeocodingResult struct {
	FormattedAddress string // full name, e.g. "Austin, Texas, United States"
	PlaceName        string // short name, e.g. "Austin"
}

// Geocoder resolves coordinates to place details.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error)
}
