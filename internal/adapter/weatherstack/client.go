// Package weatherstack fetches current conditions from the WeatherStack API
// and writes them in the CSV layout the globe loads.
package weatherstack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/jonboulle/clockwork"
)

const defaultBaseURL = "http://api.weatherstack.com"

// ErrAPI marks an error reported in a WeatherStack response body.
var ErrAPI = errors.New("weatherstack API error")

// Observation is the current weather at one queried location.
type Observation struct {
	Location        string
	Latitude        string
	Longitude       string
	ObservationTime string
	Temperature     float64
	Description     string
	WindSpeed       float64
	WindDir         string
	Pressure        float64
	Humidity        float64
	FeelsLike       float64
	UVIndex         float64
	Visibility      float64
	IsDay           string
	Precipitation   float64
	CloudCover      float64
	Timestamp       time.Time
}

// Client queries the WeatherStack "current" endpoint in metric units.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewClient creates a WeatherStack client. A nil clock uses the real clock.
func NewClient(apiKey string, timeout time.Duration, clock clockwork.Clock, logger *slog.Logger) *Client {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		clock:      clock,
		logger:     logger,
	}
}

// Current returns the current conditions for a free-text location query.
func (c *Client) Current(ctx context.Context, query string) (Observation, error) {
	params := url.Values{
		"access_key": {c.apiKey},
		"query":      {query},
		"units":      {"m"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/current?"+params.Encode(), nil)
	if err != nil {
		return Observation{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Observation{}, fmt.Errorf("current conditions request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Observation{}, fmt.Errorf("weatherstack status %d: %s", resp.StatusCode, body)
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return Observation{}, fmt.Errorf("decode response: %w", err)
	}
	if r.Error != nil {
		return Observation{}, fmt.Errorf("%w: %s", ErrAPI, r.Error.Info)
	}

	obs := Observation{
		Location:        fmt.Sprintf("%s, %s", r.Location.Name, r.Location.Country),
		Latitude:        r.Location.Lat,
		Longitude:       r.Location.Lon,
		ObservationTime: r.Current.ObservationTime,
		Temperature:     r.Current.Temperature,
		WindSpeed:       r.Current.WindSpeed,
		WindDir:         r.Current.WindDir,
		Pressure:        r.Current.Pressure,
		Humidity:        r.Current.Humidity,
		FeelsLike:       r.Current.FeelsLike,
		UVIndex:         r.Current.UVIndex,
		Visibility:      r.Current.Visibility,
		IsDay:           r.Current.IsDay,
		Precipitation:   r.Current.Precip,
		CloudCover:      r.Current.CloudCover,
		Timestamp:       c.clock.Now().UTC(),
	}
	if len(r.Current.WeatherDescriptions) > 0 {
		obs.Description = r.Current.WeatherDescriptions[0]
	}
	return obs, nil
}

// Collect queries every location in order. Failed queries are logged and
// skipped. delay is waited after each successful query to stay under the
// API rate limit.
func (c *Client) Collect(ctx context.Context, locations []string, delay time.Duration) ([]Observation, error) {
	c.logger.Info("fetching weather data", "locations", len(locations))

	out := make([]Observation, 0, len(locations))
	for _, loc := range locations {
		obs, err := c.Current(ctx, loc)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			c.logger.Warn("fetch failed, skipping location", "location", loc, "error", err)
			continue
		}
		out = append(out, obs)
		c.logger.Info("fetched weather data", "location", loc)

		if delay > 0 {
			select {
			case <-c.clock.After(delay):
			case <-ctx.Done():
				return out, ctx.Err()
			}
		}
	}
	return out, nil
}

// WeatherStack API response types.

type response struct {
	Error    *apiError `json:"error"`
	Location struct {
		Name    string `json:"name"`
		Country string `json:"country"`
		Lat     string `json:"lat"`
		Lon     string `json:"lon"`
	} `json:"location"`
	Current struct {
		ObservationTime     string   `json:"observation_time"`
		Temperature         float64  `json:"temperature"`
		WeatherDescriptions []string `json:"weather_descriptions"`
		WindSpeed           float64  `json:"wind_speed"`
		WindDir             string   `json:"wind_dir"`
		Pressure            float64  `json:"pressure"`
		Precip              float64  `json:"precip"`
		Humidity            float64  `json:"humidity"`
		CloudCover          float64  `json:"cloudcover"`
		FeelsLike           float64  `json:"feelslike"`
		UVIndex             float64  `json:"uv_index"`
		Visibility          float64  `json:"visibility"`
		IsDay               string   `json:"is_day"`
	} `json:"current"`
}

type apiError struct {
	Code int    `json:"code"`
	Type string `json:"type"`
	Info string `json:"info"`
}
