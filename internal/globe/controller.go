// Package globe owns the state of one globe view and serialises every
// interaction with it.
package globe

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/weather-globe-service/internal/domain"
	"github.com/couchcryptid/weather-globe-service/internal/filter"
	"github.com/couchcryptid/weather-globe-service/internal/loader"
	"github.com/couchcryptid/weather-globe-service/internal/observability"
	"github.com/couchcryptid/weather-globe-service/internal/view"
	"github.com/jonboulle/clockwork"
)

// ErrStopped is returned by calls made after Run has exited.
var ErrStopped = errors.New("globe controller stopped")

// RecordLoader produces the record set of one load.
type RecordLoader interface {
	Load(ctx context.Context) ([]domain.WeatherRecord, error)
}

// Snapshot is a read-only copy of the controller state.
type Snapshot struct {
	Active    []domain.Category      `json:"active"`
	Visible   []domain.WeatherRecord `json:"visible"`
	Shown     domain.RecordID        `json:"shown,omitempty"`
	Loaded    int                    `json:"loaded"`
	Markers   int                    `json:"markers"`
	LastLoad  *time.Time             `json:"last_load,omitempty"`
	LastError string                 `json:"last_error,omitempty"`
}

type event struct {
	ctx  context.Context
	fn   func(ctx context.Context)
	done chan struct{}
}

// Controller ties the filter engine, synchronizer and presenter together.
//
// All state is owned by the goroutine running Run. Public methods enqueue a
// handler and wait for it, so handlers never overlap. Fetching the source
// happens outside the loop; only applying the result is serialised.
type Controller struct {
	loader    RecordLoader
	settled   <-chan struct{}
	engine    *filter.Engine
	sync      *view.Synchronizer
	presenter *view.Presenter
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics

	events  chan event
	stopped chan struct{}
	loaded  atomic.Bool
	loadSeq atomic.Uint64

	appliedSeq uint64
	lastLoad   time.Time
	lastErr    string
}

// Surfaces groups the three view collaborators.
type Surfaces struct {
	Map    view.MapSurface
	List   view.ListView
	Detail view.DetailView
}

// New creates a Controller. A nil clock uses the real clock.
func New(l RecordLoader, surfaces Surfaces, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Controller {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	synchronizer := view.NewSynchronizer(surfaces.Map, surfaces.List, logger, metrics)
	return &Controller{
		loader:    l,
		settled:   surfaces.Map.TilesSettled(),
		engine:    filter.NewEngine(),
		sync:      synchronizer,
		presenter: view.NewPresenter(synchronizer, surfaces.Map, surfaces.List, surfaces.Detail, logger, metrics),
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
		events:    make(chan event),
		stopped:   make(chan struct{}),
	}
}

// Run processes handlers until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.stopped)
	c.logger.Info("globe controller started")
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("globe controller stopping", "reason", ctx.Err())
			return nil
		case ev := <-c.events:
			// A handler always runs to completion so the surfaces never hold
			// a half-applied render. Values of the caller's ctx are kept.
			ev.fn(context.WithoutCancel(ev.ctx))
			close(ev.done)
		}
	}
}

// do runs fn on the event loop and waits for it to finish.
func (c *Controller) do(ctx context.Context, fn func(ctx context.Context)) error {
	ev := event{ctx: ctx, fn: fn, done: make(chan struct{})}
	select {
	case c.events <- ev:
	case <-c.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ev.done:
		return nil
	case <-c.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CheckReadiness returns nil once the first load attempt has been applied.
func (c *Controller) CheckReadiness(_ context.Context) error {
	if !c.loaded.Load() {
		return errors.New("weather data has not been loaded yet")
	}
	return nil
}

// Load runs the record loader and replaces the record set with its result.
//
// No load starts before the map surface reports its tiles settled; Load waits
// for that or for ctx. A fetch failure empties the set; a parse failure keeps
// the partial result. Either way the view is re-rendered and the loader error
// is returned. When loads overlap, a result that finishes after a newer load
// was applied is discarded.
func (c *Controller) Load(ctx context.Context) error {
	select {
	case <-c.settled:
	case <-ctx.Done():
		return ctx.Err()
	}

	seq := c.loadSeq.Add(1)
	records, loadErr := c.loader.Load(ctx)
	switch {
	case loadErr == nil:
	case errors.Is(loadErr, loader.ErrFetch):
		c.logger.Error("weather data fetch failed", "error", loadErr)
		records = nil
	default:
		c.logger.Warn("weather data partially loaded", "error", loadErr, "count", len(records))
	}

	err := c.do(ctx, func(ctx context.Context) {
		if seq < c.appliedSeq {
			c.logger.Info("discarding stale load result", "load", seq, "applied", c.appliedSeq)
			return
		}
		c.appliedSeq = seq
		c.engine.SetRecords(records)
		c.metrics.RecordsLoaded.Set(float64(len(records)))
		c.lastLoad = c.clock.Now()
		c.lastErr = ""
		if loadErr != nil {
			c.lastErr = loadErr.Error()
		}
		c.loaded.Store(true)
		c.render(ctx)
	})
	if err != nil {
		return err
	}
	return loadErr
}

// Toggle flips one category and re-renders.
func (c *Controller) Toggle(ctx context.Context, cat domain.Category) (domain.CategorySet, error) {
	var active domain.CategorySet
	err := c.do(ctx, func(ctx context.Context) {
		active = c.engine.Toggle(cat)
		c.render(ctx)
	})
	return active, err
}

// ToggleTag flips the category named by tag. Unknown tags change nothing,
// trigger no render and report false.
func (c *Controller) ToggleTag(ctx context.Context, tag string) (bool, error) {
	cat, ok := domain.ParseCategory(tag)
	if !ok {
		c.logger.Debug("ignoring unknown category", "category", tag)
		return false, nil
	}
	_, err := c.Toggle(ctx, cat)
	return err == nil, err
}

// SetActiveCategories replaces the active set and re-renders.
func (c *Controller) SetActiveCategories(ctx context.Context, set domain.CategorySet) error {
	return c.do(ctx, func(ctx context.Context) {
		c.engine.SetActiveCategories(set)
		c.render(ctx)
	})
}

// Show opens the detail of a visible record. It reports false for records
// that are not currently visible.
func (c *Controller) Show(ctx context.Context, id domain.RecordID) (bool, error) {
	var shown bool
	var showErr error
	err := c.do(ctx, func(ctx context.Context) {
		shown, showErr = c.presenter.Show(ctx, id)
	})
	if err != nil {
		return false, err
	}
	if showErr != nil {
		c.logger.Warn("detail surface update failed", "record_id", id, "error", showErr)
	}
	return shown, nil
}

// Hide closes the detail panel.
func (c *Controller) Hide(ctx context.Context) error {
	var hideErr error
	err := c.do(ctx, func(ctx context.Context) {
		hideErr = c.presenter.Hide(ctx)
	})
	if err != nil {
		return err
	}
	if hideErr != nil {
		c.logger.Warn("detail surface update failed", "error", hideErr)
	}
	return nil
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := c.do(ctx, func(_ context.Context) {
		snap = Snapshot{
			Active:    c.engine.Active().Slice(),
			Visible:   c.engine.Visible(),
			Loaded:    len(c.engine.Records()),
			Markers:   c.sync.MarkerCount(),
			LastError: c.lastErr,
		}
		if id, ok := c.presenter.Shown(); ok {
			snap.Shown = id
		}
		if !c.lastLoad.IsZero() {
			t := c.lastLoad
			snap.LastLoad = &t
		}
	})
	return snap, err
}

// render pushes the visible set to the surfaces. Surface errors are logged.
func (c *Controller) render(ctx context.Context) {
	visible := c.engine.Visible()
	if err := c.sync.Render(ctx, visible); err != nil {
		c.logger.Error("render failed", "error", err)
		return
	}
	c.logger.Debug("rendered", "visible", len(visible), "active", c.engine.Active().String())
}
