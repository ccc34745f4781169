package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"glasscast/internal/weather"
)

// Backend data endpoints, relative to the versioned base URL.
const (
	endpointSearch      = "/data/search/%s"
	endpointWeather     = "/data/weather/%d"
	endpointForecast    = "/data/forecast/%d"
	endpointAddFavorite = "/data/add_favorite/%d"
	endpointFavorites   = "/data/favorites"
)

var (
	errNoCredential = errors.New("no session credential")
	errUnexpected   = errors.New("unexpected status code")
	errCircuitOpen  = errors.New("circuit breaker open")
)

// TokenProvider yields the current session credential. The authentication
// gate satisfies this.
type TokenProvider interface {
	Token() (string, bool)
}

// Client implements weather.Source against the Glasscast backend REST API.
// Outbound calls are guarded by a circuit breaker; the client imposes no
// retry policy of its own.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      TokenProvider
	circuit    *gobreaker.CircuitBreaker
}

var _ weather.Source = (*Client)(nil)

// New creates a Client for the API rooted at baseURL (including the /v1
// prefix).
func New(httpClient *http.Client, baseURL string, creds TokenProvider) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "glasscast-api",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		creds:      creds,
		circuit:    cb,
	}
}

// FetchWeather returns the current weather snapshot for the city.
func (c *Client) FetchWeather(ctx context.Context, cityID int) (weather.WeatherSnapshot, error) {
	var snapshot weather.WeatherSnapshot
	if err := c.get(ctx, fmt.Sprintf(endpointWeather, cityID), &snapshot); err != nil {
		return weather.WeatherSnapshot{}, err
	}
	return snapshot, nil
}

// FetchForecast returns the ordered forecast sequence for the city. An
// empty-but-successful body yields an empty sequence, which is valid.
func (c *Client) FetchForecast(ctx context.Context, cityID int) ([]weather.WeatherSnapshot, error) {
	var forecast []weather.WeatherSnapshot
	if err := c.get(ctx, fmt.Sprintf(endpointForecast, cityID), &forecast); err != nil {
		return nil, err
	}
	return forecast, nil
}

// SearchCities returns ranked candidates for a free-text query.
func (c *Client) SearchCities(ctx context.Context, query string) ([]weather.CitySearchCandidate, error) {
	var candidates []weather.CitySearchCandidate
	if err := c.get(ctx, fmt.Sprintf(endpointSearch, url.PathEscape(query)), &candidates); err != nil {
		return nil, err
	}
	return candidates, nil
}

// MarkFavorite registers the city as a favorite server-side. The backend
// answers with a bare boolean, which carries no extra information beyond the
// status code and is discarded.
func (c *Client) MarkFavorite(ctx context.Context, cityID int) error {
	var ok bool
	return c.get(ctx, fmt.Sprintf(endpointAddFavorite, cityID), &ok)
}

// ListFavoriteIDs returns the ids the server has marked as favorites.
func (c *Client) ListFavoriteIDs(ctx context.Context) ([]int, error) {
	var ids []int
	if err := c.get(ctx, endpointFavorites, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// get performs an authorized GET through the circuit breaker and decodes the
// JSON body into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	token, ok := c.creds.Token()
	if !ok {
		return errNoCredential
	}

	result, err := c.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
			return nil, fmt.Errorf("%w: %d: %s", errUnexpected, resp.StatusCode, string(body))
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		return body, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return err
	}

	body, ok := result.([]byte)
	if !ok {
		return fmt.Errorf("unexpected result type from circuit breaker")
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}
