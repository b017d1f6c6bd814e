package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/weather-globe-service/internal/domain"
	"github.com/couchcryptid/weather-globe-service/internal/observability"
	"github.com/google/uuid"
)

var (
	// ErrFetch marks a load whose source could not be read. No records are produced.
	ErrFetch = errors.New("fetch failure")
	// ErrParse marks a structurally broken source. Records parsed so far are still returned.
	ErrParse = errors.New("parse failure")
)

// Loader turns the observation source into classified, coordinate-valid records.
type Loader struct {
	source   Source
	geocoder domain.Geocoder
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New creates a Loader. geocoder may be nil to skip location enrichment.
func New(source Source, geocoder domain.Geocoder, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{
		source:   source,
		geocoder: geocoder,
		logger:   logger,
		metrics:  metrics,
	}
}

// Load fetches and parses the source once; there is no retry.
//
// On ErrFetch the returned slice is nil. On ErrParse it holds whatever rows
// parsed before the failure, which callers may keep.
func (l *Loader) Load(ctx context.Context) ([]domain.WeatherRecord, error) {
	start := time.Now()
	loadID := uuid.NewString()
	logger := l.logger.With("load_id", loadID)
	l.metrics.Loads.Inc()

	body, err := l.source.Fetch(ctx)
	if err != nil {
		l.metrics.LoadFailures.WithLabelValues("fetch").Inc()
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	res, err := Parse(bytes.NewReader(body), logger)
	l.metrics.RowsDropped.Add(float64(res.Dropped))
	l.metrics.RowParseErrors.Add(float64(res.Malformed))
	if err != nil {
		l.metrics.LoadFailures.WithLabelValues("parse").Inc()
	}

	records := res.Records
	if l.geocoder != nil {
		for i := range records {
			records[i] = domain.EnrichLocation(ctx, records[i], l.geocoder, logger)
		}
	}

	l.metrics.LoadDuration.Observe(time.Since(start).Seconds())
	logger.Info("weather locations loaded",
		"count", len(records),
		"rows", res.Rows,
		"dropped", res.Dropped,
		"malformed", res.Malformed,
	)
	return records, err
}
