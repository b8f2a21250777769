package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/clearskies/clearskies/internal/api/models"
)

// RateLimitConfig holds configuration for rate limiting.
type RateLimitConfig struct {
	// Requests per window
	RequestLimit int
	// Window duration
	WindowLength time.Duration
	// PerRoute gives each request path its own budget per client.
	PerRoute bool
}

// Default rate limit configurations.
var (
	// ExpensiveRateLimit applies to the dashboard, which fans out to every
	// upstream (30 req/min).
	ExpensiveRateLimit = RateLimitConfig{
		RequestLimit: 30,
		WindowLength: time.Minute,
	}

	// StandardRateLimit applies to upstream-backed data endpoints
	// (100 req/min per path).
	StandardRateLimit = RateLimitConfig{
		RequestLimit: 100,
		WindowLength: time.Minute,
		PerRoute:     true,
	}

	// LocalRateLimit applies to endpoints answered without an upstream call,
	// such as classification and enums (300 req/min).
	LocalRateLimit = RateLimitConfig{
		RequestLimit: 300,
		WindowLength: time.Minute,
	}
)

// String describes the limit for problem details.
func (c RateLimitConfig) String() string {
	return fmt.Sprintf("%d requests per %s", c.RequestLimit, c.WindowLength)
}

// RateLimitByIP creates a rate limiter keyed by client IP address, and by
// request path when PerRoute is set. Relies on chi's RealIP middleware for
// proxied requests.
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	keyFuncs := []httprate.KeyFunc{httprate.KeyByRealIP}
	if cfg.PerRoute {
		keyFuncs = append(keyFuncs, httprate.KeyByEndpoint)
	}

	retryAfter := strconv.Itoa(int(cfg.WindowLength.Seconds()))
	detail := "Rate limit of " + cfg.String() + " exceeded. Please try again later."

	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(keyFuncs...),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			problem := models.NewTooManyRequests(GetRequestID(r.Context()), detail)
			problem.Instance = r.URL.Path

			// httprate doesn't expose the exact reset time; the window is an upper bound
			w.Header().Set("Retry-After", retryAfter)
			problem.Write(w)
		}),
	)
}
