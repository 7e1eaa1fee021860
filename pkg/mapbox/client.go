package mapbox

import (
	"clipnest-pipeline/dto"
	"context"
	"encoding/json"
	"fmt"
	"github.com/rs/zerolog"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.mapbox.com"

type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

func NewClient(baseURL, accessToken string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type feature struct {
	// [longitude, latitude]
	Center    []float64 `json:"center"`
	PlaceName string    `json:"place_name"`
}

type geocodeResponse struct {
	Features []feature `json:"features"`
}

// Geocode returns the coordinates of the best match, or nil when the
// provider has no match.
func (c *Client) Geocode(ctx context.Context, query string) (*dto.Coordinates, error) {
	endpoint := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?access_token=%s&limit=1",
		c.baseURL, url.PathEscape(query), url.QueryEscape(c.accessToken))

	zerolog.Ctx(ctx).Debug().Str("url", c.redact(endpoint)).Msg("mapbox request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %s", c.redact(err.Error()))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("mapbox api error %d: %s", resp.StatusCode, string(body))
	}

	var geo geocodeResponse
	if err := json.Unmarshal(body, &geo); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(geo.Features) == 0 {
		return nil, nil
	}
	top := geo.Features[0]
	if len(top.Center) < 2 {
		return nil, fmt.Errorf("mapbox feature %q has no center", top.PlaceName)
	}

	zerolog.Ctx(ctx).Debug().Str("place_name", top.PlaceName).Msg("mapbox top result")
	return &dto.Coordinates{Lat: top.Center[1], Lng: top.Center[0]}, nil
}

func (c *Client) redact(s string) string {
	if c.accessToken == "" {
		return s
	}
	keep := c.accessToken
	if len(keep) > 8 {
		keep = keep[:8]
	}
	return strings.ReplaceAll(s, url.QueryEscape(c.accessToken), keep+"...")
}
