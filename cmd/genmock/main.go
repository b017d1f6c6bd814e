// Command genmock writes a deterministic observation CSV for local runs and
// tests. The rows cover every weather category, an unparsable measurement and
// rows without usable coordinates, and the output is run back through the
// loader to print the counts tests assert on.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/weatherdata.csv
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/weather-globe-service/internal/adapter/weatherstack"
	"github.com/couchcryptid/weather-globe-service/internal/domain"
	"github.com/couchcryptid/weather-globe-service/internal/loader"
	"github.com/jonboulle/clockwork"
)

type mockCity struct {
	name, country string
	lat, lon      string
	description   string
	temperature   float64
}

var cities = []mockCity{
	{"Cairo", "Egypt", "30.044", "31.236", "Sunny", 31},
	{"Lima", "Peru", "-12.043", "-77.028", "Clear", 19},
	{"London", "United Kingdom", "51.517", "-0.106", "Overcast", 11},
	{"Dublin", "Ireland", "53.333", "-6.249", "Partly cloudy", 9},
	{"Mumbai", "India", "18.975", "72.826", "Light rain shower", 29},
	{"Seattle", "United States of America", "47.606", "-122.332", "Patchy light drizzle", 8},
	{"Oslo", "Norway", "59.913", "10.739", "Light snow", -4},
	{"Moscow", "Russia", "55.752", "37.616", "Moderate or heavy snow", -15},
	{"Manila", "Philippines", "14.604", "120.982", "Thunderstorm in vicinity", 30},
	{"Miami", "United States of America", "25.774", "-80.194", "Patchy light rain with thunder", 27},
	{"Ulaanbaatar", "Mongolia", "47.917", "106.917", "Mist", -22},
	// Rows the loader drops.
	{"Nowhere", "", "", "", "Clear", 15},
	{"Offworld", "", "n/a", "12.5", "Sunny", 15},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/mock/weatherdata.csv", "output path for the observation CSV")
	flag.Parse()

	// Fixed clock for reproducible timestamps.
	clock := clockwork.NewFakeClockAt(time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC))

	observations := make([]weatherstack.Observation, 0, len(cities))
	for i, c := range cities {
		location := c.name
		if c.country != "" {
			location += ", " + c.country
		}
		obs := weatherstack.Observation{
			Location:        location,
			Latitude:        c.lat,
			Longitude:       c.lon,
			ObservationTime: clock.Now().Format("03:04 PM"),
			Temperature:     c.temperature,
			Description:     c.description,
			WindSpeed:       float64(5 + i*3),
			WindDir:         []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}[i%8],
			Pressure:        float64(1000 + i),
			Humidity:        float64(40 + i*4),
			FeelsLike:       c.temperature - 2,
			UVIndex:         float64(i % 11),
			Visibility:      10,
			IsDay:           "yes",
			Precipitation:   float64(i%4) * 0.5,
			CloudCover:      float64(i * 7 % 100),
			Timestamp:       clock.Now(),
		}
		if c.name == "Ulaanbaatar" {
			obs.Humidity = math.NaN()
		}
		observations = append(observations, obs)
		clock.Advance(time.Minute)
	}

	var buf bytes.Buffer
	if err := weatherstack.WriteCSV(&buf, observations); err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(*out, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}
	log.Printf("wrote %d rows to %s", len(observations), *out)

	res, err := loader.Parse(bytes.NewReader(buf.Bytes()), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		return fmt.Errorf("parse generated csv: %w", err)
	}
	printStats(res)
	return nil
}

func printStats(res loader.ParseResult) {
	counts := map[domain.Category]int{}
	for _, r := range res.Records {
		counts[r.Category]++
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Rows: %d, records: %d, dropped: %d, malformed: %d\n",
		res.Rows, len(res.Records), res.Dropped, res.Malformed)
	for _, c := range domain.Categories() {
		fmt.Printf("  %-7s %d\n", c, counts[c])
	}
}
