// Package tavily provides a client for the Tavily search API, which returns
// a synthesized answer alongside raw web results.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	defaultBaseURL     = "https://api.tavily.com"
	defaultSearchDepth = "advanced"
	defaultMaxResults  = 10
	defaultRatePerSec  = 2
)

// Client performs searches against the Tavily API.
type Client interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// SearchRequest is the request body for POST /search.
type SearchRequest struct {
	Query             string   `json:"query"`
	SearchDepth       string   `json:"search_depth,omitempty"`
	Topic             string   `json:"topic,omitempty"`
	IncludeAnswer     bool     `json:"include_answer"`
	IncludeRawContent string   `json:"include_raw_content,omitempty"`
	MaxResults        int      `json:"max_results,omitempty"`
	ChunksPerSource   int      `json:"chunks_per_source,omitempty"`
	IncludeDomains    []string `json:"include_domains"`
	ExcludeDomains    []string `json:"exclude_domains"`
}

// SearchResponse is the response from POST /search.
type SearchResponse struct {
	Query        string   `json:"query"`
	Answer       string   `json:"answer"`
	Results      []Result `json:"results"`
	ResponseTime float64  `json:"response_time"`
}

// Result is a single web search hit.
type Result struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
	RawContent string  `json:"raw_content,omitempty"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithSearchDepth sets the default search depth ("basic" or "advanced").
func WithSearchDepth(depth string) Option {
	return func(c *httpClient) {
		if depth != "" {
			c.searchDepth = depth
		}
	}
}

// WithMaxResults sets the default number of raw results requested.
func WithMaxResults(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.maxResults = n
		}
	}
}

// WithRateLimit caps requests per second. Zero or negative disables pacing.
func WithRateLimit(perSec float64) Option {
	return func(c *httpClient) {
		c.limiter = newLimiter(perSec)
	}
}

type httpClient struct {
	apiKey      string
	baseURL     string
	searchDepth string
	maxResults  int
	http        *http.Client
	limiter     *limiter
}

// NewClient creates a Tavily API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:      apiKey,
		baseURL:     defaultBaseURL,
		searchDepth: defaultSearchDepth,
		maxResults:  defaultMaxResults,
		limiter:     newLimiter(defaultRatePerSec),
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if req.SearchDepth == "" {
		req.SearchDepth = c.searchDepth
	}
	if req.MaxResults <= 0 {
		req.MaxResults = c.maxResults
	}
	if req.IncludeDomains == nil {
		req.IncludeDomains = []string{}
	}
	if req.ExcludeDomains == nil {
		req.ExcludeDomains = []string{}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "tavily: marshal request")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "tavily: rate limit wait")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "tavily: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "tavily: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "tavily: read response")
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		c.limiter.onRateLimit()
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("tavily: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
	c.limiter.onSuccess()

	var result SearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "tavily: unmarshal response")
	}

	zap.L().Debug("tavily: search",
		zap.Int("results", len(result.Results)),
		zap.Bool("answer", result.Answer != ""),
		zap.Float64("response_time", result.ResponseTime),
	)

	return &result, nil
}
