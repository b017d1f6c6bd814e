package view

import (
	"context"
	"errors"
	"log/slog"

	"github.com/couchcryptid/weather-globe-service/internal/domain"
	"github.com/couchcryptid/weather-globe-service/internal/observability"
)

// RenderedSet is what the presenter needs from the synchronizer.
type RenderedSet interface {
	Record(id domain.RecordID) (domain.WeatherRecord, bool)
	Lookup(id domain.RecordID) (MarkerHandle, bool)
}

// Presenter swaps between the list and the detail panel and moves the camera.
type Presenter struct {
	rendered   RenderedSet
	mapSurface MapSurface
	list       ListView
	detail     DetailView
	logger     *slog.Logger
	metrics    *observability.Metrics

	shown domain.RecordID
}

// NewPresenter creates a Presenter with the list showing.
func NewPresenter(rendered RenderedSet, mapSurface MapSurface, list ListView, detail DetailView, logger *slog.Logger, metrics *observability.Metrics) *Presenter {
	return &Presenter{
		rendered:   rendered,
		mapSurface: mapSurface,
		list:       list,
		detail:     detail,
		logger:     logger,
		metrics:    metrics,
	}
}

// Show opens the detail panel for id and flies to its marker. It reports
// false without touching any surface when id is not currently rendered.
func (p *Presenter) Show(ctx context.Context, id domain.RecordID) (bool, error) {
	r, ok := p.rendered.Record(id)
	if !ok {
		p.logger.Debug("detail requested for record not in view", "record_id", id)
		return false, nil
	}

	p.metrics.DetailViews.Inc()
	p.shown = id
	err := errors.Join(
		p.detail.RenderDetail(ctx, NewDetail(r)),
		p.list.SetListVisible(ctx, false),
		p.detail.SetDetailVisible(ctx, true),
	)

	h, ok := p.rendered.Lookup(id)
	if !ok {
		p.logger.Warn("record has no marker, camera not moved", "record_id", id)
		return true, err
	}
	return true, errors.Join(err, p.mapSurface.FlyToMarker(ctx, h, MarkerOffset, MarkerFlightDuration))
}

// Hide closes the detail panel and returns the camera to the overview.
func (p *Presenter) Hide(ctx context.Context) error {
	p.shown = ""
	return errors.Join(
		p.detail.SetDetailVisible(ctx, false),
		p.list.SetListVisible(ctx, true),
		p.mapSurface.FlyTo(ctx, HomeView),
	)
}

// Shown returns the record whose detail is open, if any.
func (p *Presenter) Shown() (domain.RecordID, bool) {
	return p.shown, p.shown != ""
}
