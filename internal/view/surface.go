// Package view keeps the list, detail and map surfaces in step with the
// visible record set.
//
// The surfaces are collaborators: the package never draws anything itself.
// It describes markers, list entries and camera moves and hands them to
// whatever implements MapSurface, ListView and DetailView (a browser over
// websocket, a renderer fed from Kafka, or a test fake).
package view

import (
	"context"
	"math"
	"time"

	"github.com/couchcryptid/weather-globe-service/internal/domain"
)

// PlaceholderText is shown in the list when no record is visible.
const PlaceholderText = "No weather data available for the selected categories."

// MarkerHandle is the map surface's opaque reference to a placed marker.
type MarkerHandle string

// Position is a point on the globe, longitude first.
type Position struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// VerticalOrigin anchors the marker image relative to its position.
type VerticalOrigin string

const OriginBottom VerticalOrigin = "bottom"

// MarkerSpec describes one marker to place.
type MarkerSpec struct {
	RecordID       domain.RecordID `json:"record_id"`
	Position       Position        `json:"position"`
	ClampToGround  bool            `json:"clamp_to_ground"`
	VerticalOrigin VerticalOrigin  `json:"vertical_origin"`
	Scale          float64         `json:"scale"`
	Badge          domain.Badge    `json:"badge"`
	Title          string          `json:"title"`
	Summary        string          `json:"summary"`
	Category       domain.Category `json:"category"`
}

// CameraView is an absolute camera destination. Angles are radians, Height metres.
type CameraView struct {
	Lng      float64       `json:"lng"`
	Lat      float64       `json:"lat"`
	Height   float64       `json:"height"`
	Heading  float64       `json:"heading"`
	Pitch    float64       `json:"pitch"`
	Roll     float64       `json:"roll"`
	Duration time.Duration `json:"-"`
}

// Offset places the camera relative to a marker. Range is metres.
type Offset struct {
	Heading float64 `json:"heading"`
	Pitch   float64 `json:"pitch"`
	Range   float64 `json:"range"`
}

// Camera constants of the overview and the marker close-up.
var (
	HomeView = CameraView{
		Height:   20_000_000,
		Pitch:    -math.Pi / 2,
		Duration: 1500 * time.Millisecond,
	}
	MarkerOffset         = Offset{Pitch: -math.Pi / 4, Range: 200_000}
	MarkerFlightDuration = 1500 * time.Millisecond
)

// MapSurface is the external globe renderer.
type MapSurface interface {
	AddMarker(ctx context.Context, spec MarkerSpec) (MarkerHandle, error)
	RemoveMarker(ctx context.Context, h MarkerHandle) error
	FlyTo(ctx context.Context, view CameraView) error
	FlyToMarker(ctx context.Context, h MarkerHandle, offset Offset, duration time.Duration) error
	// TilesSettled is closed once the base imagery has finished its first load.
	TilesSettled() <-chan struct{}
}

// Flusher is implemented by map surfaces that buffer marker commands. The
// synchronizer flushes once per render.
type Flusher interface {
	Flush(ctx context.Context) error
}

// ListEntry is one row of the scrollable location list.
type ListEntry struct {
	ID       domain.RecordID `json:"id"`
	Location string          `json:"location"`
	Category domain.Category `json:"category"`
	Summary  string          `json:"summary"`
}

// ListView is the scrollable location list.
type ListView interface {
	RenderList(ctx context.Context, entries []ListEntry) error
	RenderPlaceholder(ctx context.Context, text string) error
	SetListVisible(ctx context.Context, visible bool) error
}

// Detail is the content of the detail panel.
type Detail struct {
	ID       domain.RecordID `json:"id"`
	Title    string          `json:"title"`
	Category domain.Category `json:"category"`
	Text     string          `json:"text"`
	Updated  string          `json:"updated"`
	Daylight domain.Daylight `json:"daylight"`
}

// DetailView is the single-record detail panel.
type DetailView interface {
	RenderDetail(ctx context.Context, d Detail) error
	SetDetailVisible(ctx context.Context, visible bool) error
}

// NewMarkerSpec builds the marker for a record.
func NewMarkerSpec(r domain.WeatherRecord) MarkerSpec {
	return MarkerSpec{
		RecordID:       r.ID,
		Position:       Position{Lng: r.Lng, Lat: r.Lat},
		ClampToGround:  true,
		VerticalOrigin: OriginBottom,
		Scale:          1,
		Badge:          domain.BadgeFor(r),
		Title:          r.Location,
		Summary:        domain.MarkerSummary(r),
		Category:       r.Category,
	}
}

// NewListEntry builds the list row for a record.
func NewListEntry(r domain.WeatherRecord) ListEntry {
	return ListEntry{
		ID:       r.ID,
		Location: r.Location,
		Category: r.Category,
		Summary:  domain.ListSummary(r),
	}
}

// NewDetail builds the detail panel content for a record.
func NewDetail(r domain.WeatherRecord) Detail {
	return Detail{
		ID:       r.ID,
		Title:    r.Location,
		Category: r.Category,
		Text:     domain.DetailText(r),
		Updated:  domain.TimestampText(r),
		Daylight: domain.DaylightAt(r),
	}
}
