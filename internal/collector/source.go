package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	applog "MarketBrief/internal/logger"
	"MarketBrief/internal/model"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

// DefaultRateLimit is the default request rate per provider (requests per second).
const DefaultRateLimit = 5

// source carries the HTTP plumbing shared by the remote fetchers.
type source struct {
	baseURL    string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// Option configures a remote fetcher.
type Option func(*source)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) Option {
	return func(s *source) {
		s.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(s *source) {
		s.httpClient = httpClient
	}
}

// WithProxy routes requests through proxyURL with the given timeout.
func WithProxy(proxyURL string, timeout time.Duration) Option {
	return func(s *source) {
		s.httpClient = newHTTPClient(proxyURL, timeout)
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) Option {
	return func(s *source) {
		s.logger = logger
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) Option {
	return func(s *source) {
		if requestsPerSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

func newSource(baseURL string, opts []Option) source {
	s := source{
		baseURL:    baseURL,
		httpClient: newHTTPClient("", 30*time.Second),
		logger:     applog.Discard(),
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// get performs a rate limited GET and returns the body of a 200 response.
// Transport failures and 5xx map to ErrUpstreamUnavailable, 404 to ErrNotFound.
func (s *source) get(ctx context.Context, reqURL string) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w: %v", model.ErrUpstreamUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w: %v", model.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w: %v", model.ErrUpstreamUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, model.ErrNotFound)
	default:
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, model.ErrUpstreamUnavailable)
	}
}
