package domain

import (
	"context"
	"log/slog"
)

// EnrichLocation fills an empty location name from reverse geocoding. Records
// that already carry a name, a nil geocoder, an error, or an empty answer all
// leave the record unchanged (errors are logged).
func EnrichLocation(ctx context.Context, r WeatherRecord, geocoder Geocoder, logger *slog.Logger) WeatherRecord {
	if geocoder == nil || r.Location != "" {
		return r
	}

	result, err := geocoder.ReverseGeocode(ctx, r.Lat, r.Lng)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"record_id", r.ID,
			"lat", r.Lat,
			"lon", r.Lng,
			"error", err,
		)
		return r
	}

	switch {
	case result.FormattedAddress != "":
		r.Location = result.FormattedAddress
	case result.PlaceName != "":
		r.Location = result.PlaceName
	}
	return r
}
