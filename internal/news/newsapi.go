package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	applog "MarketBrief/internal/logger"
	"MarketBrief/internal/model"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the base URL for NewsAPI.
	DefaultBaseURL = "https://newsapi.org"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 15 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 2

	// DefaultLookback is how far back articles are searched.
	DefaultLookback = 7 * 24 * time.Hour
)

// NewsAPIClient searches recent English articles with the NewsAPI everything endpoint.
type NewsAPIClient struct {
	baseURL    string
	apiKey     string
	lookback   time.Duration
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
	now        func() time.Time
}

// ClientOption configures the NewsAPIClient.
type ClientOption func(*NewsAPIClient)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *NewsAPIClient) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *NewsAPIClient) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *NewsAPIClient) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *NewsAPIClient) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithLookback sets the search window.
func WithLookback(d time.Duration) ClientOption {
	return func(c *NewsAPIClient) {
		if d > 0 {
			c.lookback = d
		}
	}
}

// NewNewsAPIClient creates a new NewsAPI client.
func NewNewsAPIClient(apiKey string, opts ...ClientOption) *NewsAPIClient {
	c := &NewsAPIClient{
		baseURL:  DefaultBaseURL,
		apiKey:   apiKey,
		lookback: DefaultLookback,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger:  applog.Discard(),
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type everythingResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
	} `json:"articles"`
}

// Search returns up to maxResults articles for query, most relevant first.
// Articles with neither a title nor a description are dropped.
func (c *NewsAPIClient) Search(ctx context.Context, query string, maxResults int) ([]model.Document, error) {
	if maxResults <= 0 {
		return []model.Document{}, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w: %v", model.ErrUpstreamUnavailable, err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("language", "en")
	params.Set("sortBy", "relevancy")
	params.Set("from", c.now().Add(-c.lookback).Format("2006-01-02"))
	params.Set("pageSize", strconv.Itoa(maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/everything?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	c.logger.Debug().Str("query", query).Int("page_size", maxResults).Msg("NewsAPI request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi request: %w: %v", model.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("newsapi read body: %w: %v", model.ErrUpstreamUnavailable, err)
	}

	var result everythingResponse
	if jsonErr := json.Unmarshal(body, &result); jsonErr != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("newsapi: status %d: %w", resp.StatusCode, model.ErrUpstreamUnavailable)
		}
		return nil, fmt.Errorf("newsapi decode: %w: %v", model.ErrMalformedResponse, jsonErr)
	}
	if result.Status == "error" || resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsapi: status %d %s: %s: %w", resp.StatusCode, result.Code, result.Message, model.ErrUpstreamUnavailable)
	}

	docs := make([]model.Document, 0, len(result.Articles))
	for _, a := range result.Articles {
		d := model.Document{
			Source:      a.Source.Name,
			Title:       plainText(a.Title),
			Description: plainText(a.Description),
			URL:         a.URL,
		}
		if d.Empty() {
			continue
		}
		if d.Source == "" {
			d.Source = "N/A"
		}
		docs = append(docs, d)
		if len(docs) == maxResults {
			break
		}
	}
	return docs, nil
}
