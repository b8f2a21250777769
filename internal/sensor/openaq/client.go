// Package openaq provides a client for the OpenAQ v3 sensors API.
package openaq

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/clearskies/clearskies/internal/provider/resilience"
	"github.com/clearskies/clearskies/internal/sensor"
)

const (
	// DefaultBaseURL is the base URL for the OpenAQ API.
	DefaultBaseURL = "https://api.openaq.org/v3"

	// ProviderName identifies this provider.
	ProviderName = "openaq"
)

// ClientConfig holds configuration for the OpenAQ client.
type ClientConfig struct {
	// BaseURL is the API base URL (defaults to DefaultBaseURL).
	BaseURL string

	// APIKey is sent in the X-API-Key header.
	APIKey string

	// HTTPClient is the HTTP client to use (must implement HTTPDoer).
	// If nil, a default resilient client will be created.
	HTTPClient HTTPDoer

	// Registry receives the default client's circuit breaker, if set.
	Registry *resilience.Registry

	// Observer receives request outcomes from the default client, if set.
	Observer resilience.RequestObserver

	// OnStateChange is called when the default client's circuit changes state.
	OnStateChange func(name string, from, to gobreaker.State)

	// Timeout for individual API requests (default: 10s).
	Timeout time.Duration
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is an OpenAQ API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient HTTPDoer
}

// NewClient creates a new OpenAQ client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:            ProviderName,
			Timeout:         timeout,
			MaxRetries:      3,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     5 * time.Second,
			Registry:        cfg.Registry,
			Observer:        cfg.Observer,
			OnStateChange:   cfg.OnStateChange,
		})
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

type resultsResponse struct {
	Results []json.RawMessage `json:"results"`
}

// decodeResults converts the elements of a results array. Elements that are
// not objects are skipped so one bad entry does not drop the period.
func decodeResults(elems []json.RawMessage) []sensor.RawResult {
	results := make([]sensor.RawResult, 0, len(elems))
	for _, elem := range elems {
		var r sensor.RawResult
		if err := json.Unmarshal(elem, &r); err != nil {
			continue
		}
		results = append(results, r)
	}
	return results
}

// FetchPeriod retrieves the results of one period endpoint for a sensor.
func (c *Client) FetchPeriod(ctx context.Context, sensorID string, period sensor.Period) ([]sensor.RawResult, error) {
	if !period.Valid() {
		return nil, fmt.Errorf("unknown period %q", period)
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(period.Limit()))
	endpoint := fmt.Sprintf("%s/sensors/%s/%s?%s",
		c.baseURL, url.PathEscape(sensorID), period, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", period, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s endpoint", resp.StatusCode, period)
	}

	var result resultsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", period, err)
	}

	return decodeResults(result.Results), nil
}
