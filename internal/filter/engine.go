// Package filter selects the records shown on the globe by category.
package filter

import (
	"github.com/couchcryptid/weather-globe-service/internal/domain"
)

// Engine holds the loaded record set and the active categories.
//
// Engine is not safe for concurrent use; the globe controller owns it from a
// single goroutine.
type Engine struct {
	records []domain.WeatherRecord
	active  domain.CategorySet
}

// NewEngine returns an empty engine with every category active.
func NewEngine() *Engine {
	return &Engine{active: domain.AllCategories}
}

// SetRecords replaces the record set wholesale. The active set is kept.
func (e *Engine) SetRecords(records []domain.WeatherRecord) {
	e.records = append([]domain.WeatherRecord(nil), records...)
}

// Records returns the full record set in load order.
func (e *Engine) Records() []domain.WeatherRecord {
	return append([]domain.WeatherRecord(nil), e.records...)
}

// SetActiveCategories replaces the active set.
func (e *Engine) SetActiveCategories(set domain.CategorySet) {
	e.active = set & domain.AllCategories
}

// Active returns the active set.
func (e *Engine) Active() domain.CategorySet { return e.active }

// Toggle flips c in the active set and returns the new set.
func (e *Engine) Toggle(c domain.Category) domain.CategorySet {
	e.active = e.active.Toggle(c)
	return e.active
}

// ToggleTag flips the category named by tag. Unknown tags leave the active
// set unchanged and report false.
func (e *Engine) ToggleTag(tag string) bool {
	c, ok := domain.ParseCategory(tag)
	if !ok {
		return false
	}
	e.Toggle(c)
	return true
}

// Visible returns the records whose category is active, in load order.
// It does not mutate the engine.
func (e *Engine) Visible() []domain.WeatherRecord {
	out := make([]domain.WeatherRecord, 0, len(e.records))
	for _, r := range e.records {
		if e.active.Has(r.Category) {
			out = append(out, r)
		}
	}
	return out
}
