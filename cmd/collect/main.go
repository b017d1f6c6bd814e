// Command collect fetches current conditions for a list of cities from the
// WeatherStack API and writes them as the CSV file the globe loads.
//
// Usage:
//
//	WEATHERSTACK_API_KEY=... go run ./cmd/collect -out weatherdata.csv
//	WEATHERSTACK_API_KEY=... go run ./cmd/collect -locations "Oslo,Lima"
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/weather-globe-service/internal/adapter/weatherstack"
	"github.com/joho/godotenv"
)

var defaultLocations = []string{
	"New York", "London", "Tokyo", "Sydney", "Paris", "Berlin", "Moscow", "Beijing", "Rio de Janeiro", "Cairo",
	"Mumbai", "Dubai", "Singapore", "Toronto", "Mexico City", "Istanbul", "Rome", "Amsterdam", "Madrid", "Barcelona",
	"Seoul", "Bangkok", "Kuala Lumpur", "Jakarta", "Manila", "Ho Chi Minh City", "Shanghai", "Hong Kong", "Delhi",
	"Bangalore", "Chennai", "Kolkata", "Karachi", "Lahore", "Tehran", "Baghdad", "Riyadh", "Tel Aviv",
	"Athens", "Vienna", "Prague", "Warsaw", "Stockholm", "Oslo", "Copenhagen", "Helsinki", "Dublin", "Lisbon",
	"Brussels", "Zurich", "Geneva", "Milan", "Naples", "Munich", "Frankfurt", "Hamburg", "Vancouver", "Montreal",
	"Chicago", "Los Angeles", "San Francisco", "Miami", "Houston", "Boston", "Seattle", "Atlanta", "Dallas",
	"Las Vegas", "Phoenix", "Denver", "Portland", "San Diego", "Austin", "Philadelphia", "Washington DC",
	"Melbourne", "Brisbane", "Perth", "Auckland", "Wellington", "Johannesburg", "Cape Town", "Nairobi", "Lagos",
	"Casablanca", "Addis Ababa", "Buenos Aires", "Santiago", "Lima", "Bogota", "Sao Paulo", "Caracas", "Panama City",
	"San Jose", "Havana", "Kingston", "Nassau", "San Juan", "Hanoi", "Phnom Penh", "Vientiane",
	"Yangon", "Dhaka", "Colombo", "Kathmandu", "Thimphu", "Ulaanbaatar", "Taipei", "Osaka", "Kyoto", "Busan",
}

func main() {
	if err := run(); err != nil {
		slog.Error("collect failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	out := flag.String("out", "weatherdata.csv", "output CSV path")
	locations := flag.String("locations", "", "comma-separated locations (default: built-in city list)")
	delay := flag.Duration("delay", time.Second, "pause between successful requests")
	timeout := flag.Duration("timeout", 10*time.Second, "per-request timeout")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read .env: %w", err)
	}
	logger := sharedobs.NewLogger(sharedcfg.EnvOrDefault("LOG_LEVEL", "info"), sharedcfg.EnvOrDefault("LOG_FORMAT", "text"))

	apiKey := os.Getenv("WEATHERSTACK_API_KEY")
	if apiKey == "" {
		return errors.New("WEATHERSTACK_API_KEY is not set")
	}

	list := defaultLocations
	if *locations != "" {
		list = nil
		for _, loc := range strings.Split(*locations, ",") {
			if loc = strings.TrimSpace(loc); loc != "" {
				list = append(list, loc)
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := weatherstack.NewClient(apiKey, *timeout, nil, logger)
	observations, err := client.Collect(ctx, list, *delay)
	if err != nil {
		logger.Warn("collection interrupted, writing partial results", "error", err)
	}
	if len(observations) == 0 {
		return errors.New("no weather data to save")
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create %s: %w", *out, err)
	}
	if err := weatherstack.WriteCSV(f, observations); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", *out, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", *out, err)
	}

	logger.Info("weather data saved", "path", *out, "rows", len(observations), "requested", len(list))
	return nil
}
