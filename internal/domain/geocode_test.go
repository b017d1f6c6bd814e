package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type mockGeocoder struct {
	result GeocodingResult
	err    error
	calls  int
}

func (m *mockGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (GeocodingResult, error) {
	m.calls++
	return m.result, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEnrichLocation_NilGeocoder(t *testing.T) {
	r := WeatherRecord{ID: "location_0", Lat: 30.2, Lng: -97.7}
	got := EnrichLocation(context.Background(), r, nil, discardLogger())
	assert.Empty(t, got.Location)
}

func TestEnrichLocation_FillsEmptyName(t *testing.T) {
	geo := &mockGeocoder{result: GeocodingResult{
		FormattedAddress: "Austin, Texas, United States",
		PlaceName:        "Austin",
	}}
	r := WeatherRecord{ID: "location_0", Lat: 30.2672, Lng: -97.7431}

	got := EnrichLocation(context.Background(), r, geo, discardLogger())

	assert.Equal(t, "Austin, Texas, United States", got.Location)
	assert.Equal(t, 1, geo.calls)
}

func TestEnrichLocation_PlaceNameFallback(t *testing.T) {
	geo := &mockGeocoder{result: GeocodingResult{PlaceName: "Austin"}}
	got := EnrichLocation(context.Background(), WeatherRecord{Lat: 1, Lng: 1}, geo, discardLogger())
	assert.Equal(t, "Austin", got.Location)
}

func TestEnrichLocation_KeepsExistingName(t *testing.T) {
	geo := &mockGeocoder{result: GeocodingResult{FormattedAddress: "Elsewhere"}}
	r := WeatherRecord{Location: "Tokyo, Japan", Lat: 35.69, Lng: 139.69}

	got := EnrichLocation(context.Background(), r, geo, discardLogger())

	assert.Equal(t, "Tokyo, Japan", got.Location)
	assert.Equal(t, 0, geo.calls)
}

func TestEnrichLocation_ErrorLeavesRecord(t *testing.T) {
	geo := &mockGeocoder{err: errors.New("rate limited")}
	r := WeatherRecord{ID: "location_3", Lat: 1, Lng: 2, Temperature: 7}

	got := EnrichLocation(context.Background(), r, geo, discardLogger())

	assert.Equal(t, r, got)
}

func TestEnrichLocation_EmptyAnswer(t *testing.T) {
	geo := &mockGeocoder{}
	got := EnrichLocation(context.Background(), WeatherRecord{Lat: 1, Lng: 2}, geo, discardLogger())
	assert.Empty(t, got.Location)
}
