package view

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/weather-globe-service/internal/domain"
	"github.com/couchcryptid/weather-globe-service/internal/observability"
)

// Synchronizer renders the visible set onto the map and list surfaces and
// owns the mapping from record ID to marker handle.
//
// Every Render is a full rebuild: all markers placed by the previous call are
// removed before the new set is placed.
type Synchronizer struct {
	mapSurface MapSurface
	list       ListView
	logger     *slog.Logger
	metrics    *observability.Metrics

	handles  map[domain.RecordID]MarkerHandle
	rendered map[domain.RecordID]domain.WeatherRecord
	// stale holds markers a previous render failed to remove; every render
	// retries them so the surface never keeps untracked markers.
	stale []MarkerHandle
}

// NewSynchronizer creates a Synchronizer with nothing rendered.
func NewSynchronizer(mapSurface MapSurface, list ListView, logger *slog.Logger, metrics *observability.Metrics) *Synchronizer {
	return &Synchronizer{
		mapSurface: mapSurface,
		list:       list,
		logger:     logger,
		metrics:    metrics,
		handles:    make(map[domain.RecordID]MarkerHandle),
		rendered:   make(map[domain.RecordID]domain.WeatherRecord),
	}
}

// Render replaces the rendered set with visible.
//
// A marker the surface refuses is logged and that record is left without a
// handle; its list entry is still rendered. Only a list surface failure is
// returned.
func (s *Synchronizer) Render(ctx context.Context, visible []domain.WeatherRecord) error {
	s.clear(ctx)
	s.metrics.Renders.Inc()

	if len(visible) == 0 {
		s.metrics.VisibleMarkers.Set(0)
		s.flush(ctx)
		if err := s.list.RenderPlaceholder(ctx, PlaceholderText); err != nil {
			return fmt.Errorf("render placeholder: %w", err)
		}
		return nil
	}

	entries := make([]ListEntry, 0, len(visible))
	for _, r := range visible {
		s.rendered[r.ID] = r
		entries = append(entries, NewListEntry(r))

		h, err := s.mapSurface.AddMarker(ctx, NewMarkerSpec(r))
		if err != nil {
			s.metrics.MarkerErrors.Inc()
			s.logger.Warn("add marker failed", "record_id", r.ID, "error", err)
			continue
		}
		s.handles[r.ID] = h
	}
	s.metrics.VisibleMarkers.Set(float64(len(s.handles)))
	s.flush(ctx)

	if err := s.list.RenderList(ctx, entries); err != nil {
		return fmt.Errorf("render list: %w", err)
	}
	return nil
}

// flush delivers buffered marker commands in one batch.
func (s *Synchronizer) flush(ctx context.Context) {
	f, ok := s.mapSurface.(Flusher)
	if !ok {
		return
	}
	if err := f.Flush(ctx); err != nil {
		s.metrics.MarkerErrors.Inc()
		s.logger.Warn("flush marker commands failed", "error", err)
	}
}

// clear removes every marker from the previous render. Markers the surface
// fails to remove are kept in stale for the next render.
func (s *Synchronizer) clear(ctx context.Context) {
	var failed []MarkerHandle
	remove := func(h MarkerHandle, attrs ...any) {
		if err := s.mapSurface.RemoveMarker(ctx, h); err != nil {
			s.metrics.MarkerErrors.Inc()
			s.logger.Warn("remove marker failed", append(attrs, "marker", h, "error", err)...)
			failed = append(failed, h)
		}
	}
	for _, h := range s.stale {
		remove(h, "retry", true)
	}
	for id, h := range s.handles {
		remove(h, "record_id", id)
	}
	s.stale = failed
	clear(s.handles)
	clear(s.rendered)
}

// Lookup returns the marker handle of a rendered record.
func (s *Synchronizer) Lookup(id domain.RecordID) (MarkerHandle, bool) {
	h, ok := s.handles[id]
	return h, ok
}

// Record returns a record of the current rendered set.
func (s *Synchronizer) Record(id domain.RecordID) (domain.WeatherRecord, bool) {
	r, ok := s.rendered[id]
	return r, ok
}

// MarkerCount is the number of markers currently placed for the rendered set.
func (s *Synchronizer) MarkerCount() int { return len(s.handles) }

// StaleCount is the number of markers still awaiting removal.
func (s *Synchronizer) StaleCount() int { return len(s.stale) }
