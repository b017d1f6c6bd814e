package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/weather-globe-service/internal/domain"
)

// Source column names.
const (
	colLocation        = "location"
	colLatitude        = "latitude"
	colLongitude       = "longitude"
	colObservationTime = "observation_time"
	colTemperature     = "temperature"
	colDescriptions    = "weather_descriptions"
	colWindSpeed       = "wind_speed"
	colWindDir         = "wind_dir"
	colPressure        = "pressure"
	colHumidity        = "humidity"
	colFeelsLike       = "feels_like"
	colUVIndex         = "uv_index"
	colVisibility      = "visibility"
	colPrecipitation   = "precipitation"
	colCloudCover      = "cloudcover"
	colTimestamp       = "timestamp"
)

// RequiredColumns are the columns every observation file must carry.
var RequiredColumns = []string{
	colLocation, colTemperature, colDescriptions, colWindSpeed, colWindDir,
	colHumidity, colPressure, colFeelsLike, colVisibility, colPrecipitation,
	colCloudCover, colLatitude, colLongitude, colTimestamp,
}

var (
	// leadingNumberRe matches the numeric prefix a browser's parseFloat would
	// accept: "10 km" -> "10", "-3.5e2x" -> "-3.5e2".
	leadingNumberRe = regexp.MustCompile(`^[+-]?(?:Infinity|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)`)

	timestampLayouts = []string{
		time.DateTime,
		time.RFC3339,
		"2006-01-02T15:04:05",
		time.DateOnly,
	}
)

// ParseResult is the outcome of parsing one observation file.
type ParseResult struct {
	Records        []domain.WeatherRecord
	Rows           int      // data rows read, excluding malformed ones
	Dropped        int      // rows without usable coordinates
	Malformed      int      // rows the CSV reader rejected
	MissingColumns []string // required columns absent from the header
}

// Parse reads a header-mapped CSV file into classified records.
//
// Malformed rows are logged and skipped. Rows with an empty or unusable
// latitude or longitude are dropped silently. IDs count the kept rows. A
// header without latitude or longitude yields an ErrParse alongside the
// (empty) result.
func Parse(r io.Reader, logger *slog.Logger) (ParseResult, error) {
	var res ParseResult

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("%w: read header: %v", ErrParse, err)
	}

	cols := mapHeader(header)
	for _, name := range RequiredColumns {
		if _, ok := cols[name]; !ok {
			res.MissingColumns = append(res.MissingColumns, name)
		}
	}
	if len(res.MissingColumns) > 0 {
		logger.Warn("source header is missing columns", "columns", res.MissingColumns)
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			res.Malformed++
			logger.Warn("skipping malformed row", "line", perr.StartLine, "error", perr.Err)
			continue
		}
		if err != nil {
			return res, fmt.Errorf("%w: %v", ErrParse, err)
		}

		res.Rows++
		rec, ok := buildRecord(cols, row, len(res.Records))
		if !ok {
			res.Dropped++
			continue
		}
		res.Records = append(res.Records, rec)
	}

	_, hasLat := cols[colLatitude]
	_, hasLng := cols[colLongitude]
	if !hasLat || !hasLng {
		return res, fmt.Errorf("%w: header has no latitude/longitude columns", ErrParse)
	}
	return res, nil
}

// mapHeader indexes columns by trimmed name. A UTF-8 BOM on the first cell is ignored.
func mapHeader(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		h = strings.TrimSpace(h)
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	return cols
}

// buildRecord converts one row. It reports false when the row has no usable coordinates.
func buildRecord(cols map[string]int, row []string, index int) (domain.WeatherRecord, bool) {
	cell := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	latText, lngText := strings.TrimSpace(cell(colLatitude)), strings.TrimSpace(cell(colLongitude))
	if latText == "" || lngText == "" {
		return domain.WeatherRecord{}, false
	}
	lat, lng := parseNumber(latText), parseNumber(lngText)
	if !domain.ValidCoordinates(lat, lng) {
		return domain.WeatherRecord{}, false
	}

	description := strings.TrimSpace(cell(colDescriptions))
	return domain.WeatherRecord{
		ID:              domain.NewRecordID(index),
		Location:        strings.TrimSpace(cell(colLocation)),
		Lat:             lat,
		Lng:             lng,
		Temperature:     parseNumber(cell(colTemperature)),
		FeelsLike:       parseNumber(cell(colFeelsLike)),
		WindSpeed:       parseNumber(cell(colWindSpeed)),
		WindDir:         strings.TrimSpace(cell(colWindDir)),
		Humidity:        parseNumber(cell(colHumidity)),
		Pressure:        parseNumber(cell(colPressure)),
		Visibility:      parseNumber(cell(colVisibility)),
		Precipitation:   parseNumber(cell(colPrecipitation)),
		CloudCover:      parseNumber(cell(colCloudCover)),
		UVIndex:         parseNumber(cell(colUVIndex)),
		Description:     description,
		Category:        domain.Classify(description),
		ObservationTime: strings.TrimSpace(cell(colObservationTime)),
		Timestamp:       parseTimestamp(cell(colTimestamp)),
	}, true
}

// parseNumber returns the value of the leading number in s, or NaN.
func parseNumber(s string) float64 {
	m := leadingNumberRe.FindString(strings.TrimSpace(s))
	if m == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		// Out-of-range exponents still parse to ±Inf with an error.
		if errors.Is(err, strconv.ErrRange) {
			return v
		}
		return math.NaN()
	}
	return v
}

// parseTimestamp accepts the collector's "2006-01-02 15:04:05" layout and a
// few ISO variants, all as UTC. Unparsable text yields the zero time.
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}
