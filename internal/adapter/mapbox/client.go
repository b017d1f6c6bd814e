package mapbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/weather-globe-service/internal/domain"
	"github.com/couchcryptid/weather-globe-service/internal/observability"
)

const defaultBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"

// maxErrorBody caps how much of a failed response ends up in the error text.
const maxErrorBody = 512

// ErrStatus marks a non-200 answer from the geocoding API.
var ErrStatus = errors.New("mapbox unexpected status")

// Client names coordinates with the Mapbox reverse geocoding API.
// It implements domain.Geocoder.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a reverse geocoding client.
func NewClient(token string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// ReverseGeocode names the place nearest to lat/lon. A point with no place
// (open ocean) yields an empty result, not an error.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	result, err := c.lookup(ctx, lat, lon)
	outcome := "success"
	switch {
	case err != nil:
		outcome = "error"
	case result.FormattedAddress == "" && result.PlaceName == "":
		outcome = "empty"
	}
	c.metrics.GeocodeRequests.WithLabelValues(outcome).Inc()
	return result, err
}

func (c *Client) lookup(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.reverseURL(lat, lon), nil)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("reverse geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return domain.GeocodingResult{}, fmt.Errorf("%w: status %d: %s", ErrStatus, resp.StatusCode, body)
	}

	var places placeCollection
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("decode response: %w", err)
	}
	if len(places.Features) == 0 {
		c.logger.Debug("no place at coordinates", "lat", lat, "lon", lon)
		return domain.GeocodingResult{}, nil
	}

	best := places.Features[0]
	return domain.GeocodingResult{FormattedAddress: best.PlaceName, PlaceName: best.Text}, nil
}

// reverseURL builds {base}/{lon},{lat}.json; Mapbox expects longitude first.
func (c *Client) reverseURL(lat, lon float64) string {
	coord := strconv.FormatFloat(lon, 'f', 6, 64) + "," + strconv.FormatFloat(lat, 'f', 6, 64)
	q := url.Values{}
	q.Set("access_token", c.token)
	q.Set("limit", "1")
	return c.baseURL + "/" + coord + ".json?" + q.Encode()
}

// placeCollection is the subset of the reverse geocoding answer we read.
type placeCollection struct {
	Features []struct {
		PlaceName string `json:"place_name"`
		Text      string `json:"text"`
	} `json:"features"`
}
