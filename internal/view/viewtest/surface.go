// Package viewtest provides an in-memory surface for tests of code that
// drives the globe views.
package viewtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/couchcryptid/weather-globe-service/internal/domain"
	"github.com/couchcryptid/weather-globe-service/internal/view"
)

// Flight records one camera move.
type Flight struct {
	Marker view.MarkerHandle // empty for an absolute FlyTo
	View   view.CameraView
	Offset view.Offset
}

// Surface implements view.MapSurface, view.ListView and view.DetailView in
// memory. It is safe for concurrent use.
type Surface struct {
	mu sync.Mutex

	Markers       map[view.MarkerHandle]view.MarkerSpec
	Entries       []view.ListEntry
	Placeholder   string
	ListVisible   bool
	Detail        *view.Detail
	DetailVisible bool
	Flights       []Flight

	// FailMarkers makes AddMarker fail for these records.
	FailMarkers map[domain.RecordID]bool
	// FailRemovals makes every RemoveMarker fail.
	FailRemovals bool
	// OnAddMarker, when set, is called before each marker is placed.
	OnAddMarker func(spec view.MarkerSpec)

	next    int
	settled chan struct{}
	once    sync.Once
}

// New returns a surface in the initial state: list showing, no markers.
func New() *Surface {
	return &Surface{
		Markers:     make(map[view.MarkerHandle]view.MarkerSpec),
		ListVisible: true,
		FailMarkers: make(map[domain.RecordID]bool),
		settled:     make(chan struct{}),
	}
}

// AddMarker places a marker. Like a remote surface it refuses work once ctx
// is done.
func (s *Surface) AddMarker(ctx context.Context, spec view.MarkerSpec) (view.MarkerHandle, error) {
	if s.OnAddMarker != nil {
		s.OnAddMarker(spec)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailMarkers[spec.RecordID] {
		return "", fmt.Errorf("marker %s rejected", spec.RecordID)
	}
	s.next++
	h := view.MarkerHandle(fmt.Sprintf("m%d", s.next))
	s.Markers[h] = spec
	return h, nil
}

func (s *Surface) RemoveMarker(ctx context.Context, h view.MarkerHandle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailRemovals {
		return fmt.Errorf("marker %s could not be removed", h)
	}
	if _, ok := s.Markers[h]; !ok {
		return fmt.Errorf("unknown marker %s", h)
	}
	delete(s.Markers, h)
	return nil
}

func (s *Surface) FlyTo(_ context.Context, v view.CameraView) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Flights = append(s.Flights, Flight{View: v})
	return nil
}

func (s *Surface) FlyToMarker(_ context.Context, h view.MarkerHandle, offset view.Offset, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Flights = append(s.Flights, Flight{Marker: h, Offset: offset, View: view.CameraView{Duration: d}})
	return nil
}

func (s *Surface) TilesSettled() <-chan struct{} { return s.settled }

// Settle closes the TilesSettled channel. Further calls are no-ops.
func (s *Surface) Settle() {
	s.once.Do(func() { close(s.settled) })
}

func (s *Surface) RenderList(_ context.Context, entries []view.ListEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Entries = append([]view.ListEntry(nil), entries...)
	s.Placeholder = ""
	return nil
}

func (s *Surface) RenderPlaceholder(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Entries = nil
	s.Placeholder = text
	return nil
}

func (s *Surface) SetListVisible(_ context.Context, visible bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ListVisible = visible
	return nil
}

func (s *Surface) RenderDetail(_ context.Context, d view.Detail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Detail = &d
	return nil
}

func (s *Surface) SetDetailVisible(_ context.Context, visible bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DetailVisible = visible
	return nil
}

// MarkerRecords returns the record IDs that currently have a marker.
func (s *Surface) MarkerRecords() map[domain.RecordID]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.RecordID]bool, len(s.Markers))
	for _, spec := range s.Markers {
		out[spec.RecordID] = true
	}
	return out
}

// FlightCount returns the number of camera moves requested so far.
func (s *Surface) FlightCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Flights)
}
