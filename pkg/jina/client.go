// Package jina is a client for Jina's web search endpoint (s.jina.ai),
// reduced to the title, URL and description listing toolscout reads.
package jina

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://s.jina.ai"

	maxAttempts    = 3
	defaultBackoff = time.Second
)

// Client searches the web through Jina.
type Client interface {
	Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error)
}

// SearchResponse is the JSON listing returned for a query.
type SearchResponse struct {
	Code int            `json:"code"`
	Data []SearchResult `json:"data"`
}

// SearchResult is one page in the listing. Content is empty when the
// search ran WithoutContent.
type SearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

// Snippet prefers the page description over fetched content.
func (r SearchResult) Snippet() string {
	if strings.TrimSpace(r.Description) != "" {
		return r.Description
	}
	return r.Content
}

// SearchOption adjusts the headers of one search.
type SearchOption func(h http.Header)

// WithoutContent skips fetching each result page.
func WithoutContent() SearchOption {
	return func(h http.Header) {
		h.Set("X-Respond-With", "no-content")
	}
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL points the client at another search host.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRetryBackoff sets the wait before the first retry; it doubles after
// each attempt.
func WithRetryBackoff(d time.Duration) Option {
	return func(c *httpClient) {
		c.backoff = d
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	backoff time.Duration
}

// NewClient creates a Jina search client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		backoff: defaultBackoff,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error) {
	header := http.Header{}
	header.Set("Accept", "application/json")
	header.Set("Authorization", "Bearer "+c.apiKey)
	for _, o := range opts {
		o(header)
	}
	endpoint := c.baseURL + "/" + url.PathEscape(query)

	status, body, err := c.getWithRetry(ctx, endpoint, header)
	if err != nil {
		return nil, eris.Wrap(err, "jina: search")
	}

	switch status {
	case http.StatusOK:
	case http.StatusUnprocessableEntity:
		// No results for the query.
		return &SearchResponse{Code: status}, nil
	default:
		return nil, eris.Errorf("jina: search status %d: %s", status, body)
	}

	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "jina: decode search response")
	}
	return &resp, nil
}

// getWithRetry repeats the GET on transport errors, 429 and 5xx. After the
// last attempt the final status and body are returned as they are.
func (c *httpClient) getWithRetry(ctx context.Context, endpoint string, header http.Header) (int, []byte, error) {
	wait := c.backoff
	for attempt := 1; ; attempt++ {
		status, body, err := c.get(ctx, endpoint, header)
		if attempt == maxAttempts || (err == nil && !retryable(status)) {
			return status, body, err
		}
		zap.L().Debug("jina: retrying search",
			zap.Int("attempt", attempt),
			zap.Int("status", status),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return 0, nil, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
}

func (c *httpClient) get(ctx context.Context, endpoint string, header http.Header) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header = header.Clone()

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, eris.Wrap(err, "jina: read body")
	}
	return resp.StatusCode, body, nil
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}
