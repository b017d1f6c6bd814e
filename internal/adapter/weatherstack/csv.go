package weatherstack

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// Header is the column order of the collected CSV.
var Header = []string{
	"location", "latitude", "longitude", "observation_time", "temperature",
	"weather_descriptions", "wind_speed", "wind_dir", "pressure", "humidity",
	"feels_like", "uv_index", "visibility", "is_day", "precipitation",
	"cloudcover", "timestamp",
}

// WriteCSV writes observations with a header row.
func WriteCSV(w io.Writer, observations []Observation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, o := range observations {
		row := []string{
			o.Location,
			o.Latitude,
			o.Longitude,
			o.ObservationTime,
			num(o.Temperature),
			o.Description,
			num(o.WindSpeed),
			o.WindDir,
			num(o.Pressure),
			num(o.Humidity),
			num(o.FeelsLike),
			num(o.UVIndex),
			num(o.Visibility),
			o.IsDay,
			num(o.Precipitation),
			num(o.CloudCover),
			// The loader reads zone-less timestamps as UTC.
			o.Timestamp.UTC().Format(time.DateTime),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %q: %w", o.Location, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
