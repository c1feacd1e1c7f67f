// Package nominatim implements geo.RemoteGeocoder against the OpenStreetMap
// Nominatim search API.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/nakurusafety/incident-analytics/internal/domain"
)

// DefaultTimeout is the per-request timeout agreed with the upstream usage
// policy. Nominatim asks heavy users to keep requests short and identified.
const DefaultTimeout = 8 * time.Second

// userAgent identifies this deployment to the Nominatim operators, as their
// usage policy requires.
const userAgent = "NakuruSafetyPlatform/3.0"

// Client queries the Nominatim search endpoint for Kenyan places.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a Nominatim client. An empty baseURL selects the public
// endpoint.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		logger:     logger,
	}
}

// Search looks up a free-text query, returning the first result's
// coordinates. found is false when the API returns no results.
func (c *Client) Search(ctx context.Context, query string) (domain.Geo, bool, error) {
	params := url.Values{
		"q":            {query},
		"format":       {"json"},
		"limit":        {"1"},
		"countrycodes": {"ke"},
	}
	fullURL := c.baseURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.Geo{}, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Geo{}, false, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.Geo{}, false, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return domain.Geo{}, false, fmt.Errorf("decode response: %w", err)
	}

	if len(results) == 0 {
		return domain.Geo{}, false, nil
	}

	// Nominatim encodes coordinates as strings.
	lat, errLat := strconv.ParseFloat(results[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(results[0].Lon, 64)
	if errLat != nil || errLon != nil {
		return domain.Geo{}, false, fmt.Errorf("unparseable coordinates in result: lat=%q lon=%q", results[0].Lat, results[0].Lon)
	}

	return domain.Geo{Lat: lat, Lon: lon}, true, nil
}

// Nominatim API response type.

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}
