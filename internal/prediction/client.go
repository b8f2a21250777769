package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/clearskies/clearskies/internal/airquality"
	"github.com/clearskies/clearskies/internal/forecast"
	"github.com/clearskies/clearskies/internal/provider/resilience"
)

const (
	// DefaultBaseURL is the base URL of the deployed prediction service.
	DefaultBaseURL = "https://nasa-spaceapp-challenge-1.onrender.com"

	// ProviderName identifies this provider.
	ProviderName = "prediction"

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 4 << 20
)

// ClientConfig holds configuration for the prediction service client.
type ClientConfig struct {
	// BaseURL is the API base URL (defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is the HTTP client to use (must implement HTTPDoer).
	// If nil, a default resilient client will be created.
	HTTPClient HTTPDoer

	// Registry receives the default client's circuit breaker, if set.
	Registry *resilience.Registry

	// Observer receives request outcomes from the default client, if set.
	Observer resilience.RequestObserver

	// OnStateChange is called when the default client's circuit changes state.
	OnStateChange func(name string, from, to gobreaker.State)

	// Timeout for individual API requests (default: 20s). The service runs
	// on a host that cold-starts slowly.
	Timeout time.Duration
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a prediction service API client.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
}

// NewClient creates a new prediction service client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 20 * time.Second
		}
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:            ProviderName,
			Timeout:         timeout,
			MaxRetries:      2,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
			Registry:        cfg.Registry,
			Observer:        cfg.Observer,
			OnStateChange:   cfg.OnStateChange,
		})
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// ValidHours reports whether hours is an accepted forecast horizon.
func ValidHours(hours int) bool {
	return hours >= 1 && hours <= forecast.MaxHorizonHours
}

// FetchCurrent retrieves the current air quality summary.
func (c *Client) FetchCurrent(ctx context.Context) (*airquality.Summary, error) {
	var result currentResponse
	if err := c.get(ctx, "/current", nil, &result); err != nil {
		return nil, err
	}
	return result.toSummary(ProviderName), nil
}

// FetchForecast retrieves an hourly forecast covering the given hours.
func (c *Client) FetchForecast(ctx context.Context, hours int) (forecast.Series, error) {
	if !ValidHours(hours) {
		return nil, ErrInvalidHours
	}

	body, err := json.Marshal(map[string]int{"hours": hours})
	if err != nil {
		return nil, fmt.Errorf("encode forecast request: %w", err)
	}

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/forecast", nil, body, &raw); err != nil {
		return nil, err
	}
	return forecast.Normalize(decodePoints(forecastPayload(raw))), nil
}

// FetchAlerts retrieves the alerts the prediction service computed for a
// threshold.
func (c *Client) FetchAlerts(ctx context.Context, threshold float64) (*UpstreamAlerts, error) {
	q := url.Values{}
	q.Set("threshold", strconv.FormatFloat(threshold, 'f', -1, 64))

	var result alertsResponse
	if err := c.get(ctx, "/alerts", q, &result); err != nil {
		return nil, err
	}
	return &UpstreamAlerts{
		Threshold: result.Threshold.Ptr(),
		Points:    decodePoints(result.Alerts),
	}, nil
}

// FetchRecommendations retrieves health recommendations.
func (c *Client) FetchRecommendations(ctx context.Context) (*Recommendations, error) {
	var result recommendationsResponse
	if err := c.get(ctx, "/health-recommendations", nil, &result); err != nil {
		return nil, err
	}
	texts := []string(result.Recommendations)
	if texts == nil {
		texts = []string{}
	}
	return &Recommendations{
		CurrentAQI:     validAQI(result.CurrentAQI),
		MaxForecastAQI: validAQI(result.MaxForecastAQI),
		Texts:          texts,
	}, nil
}

// FetchModelMetrics retrieves the quality metrics of the deployed model.
func (c *Client) FetchModelMetrics(ctx context.Context) (*ModelMetrics, error) {
	var result metricsResponse
	if err := c.get(ctx, "/metrics", nil, &result); err != nil {
		return nil, err
	}
	return result.toModelMetrics(), nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader = http.NoBody
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s endpoint", resp.StatusCode, path)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
