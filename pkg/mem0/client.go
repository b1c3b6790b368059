// Package mem0 provides a client for the Mem0 hosted memory API.
package mem0

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.mem0.ai"

// Client stores and searches memories.
type Client interface {
	Add(ctx context.Context, req AddRequest) error
	Search(ctx context.Context, req SearchRequest) ([]Item, error)
}

// AddRequest is the request body for POST /v1/memories/.
type AddRequest struct {
	Messages   []Message      `json:"messages,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Categories []string       `json:"categories,omitempty"`
	UserID     string         `json:"user_id,omitempty"`
	// Infer false stores messages verbatim instead of distilling them.
	Infer *bool `json:"infer,omitempty"`
}

// Message is a single conversational message stored as memory.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SearchRequest is the request body for POST /v2/memories/search/.
type SearchRequest struct {
	Query   string  `json:"query,omitempty"`
	Filters Filters `json:"filters"`
	TopK    int     `json:"top_k,omitempty"`
}

// Filters narrows a search.
type Filters struct {
	Categories *In `json:"categories,omitempty"`
}

// In matches any of the listed values.
type In struct {
	In []string `json:"in"`
}

// CategoriesIn builds a category filter.
func CategoriesIn(categories ...string) Filters {
	return Filters{Categories: &In{In: categories}}
}

// Item is a stored memory returned by search. Depending on the API version
// the stored text arrives as "memory", "data" or "data.memory".
type Item struct {
	ID         string          `json:"id"`
	Memory     json.RawMessage `json:"memory,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	Categories []string        `json:"categories,omitempty"`
	CreatedAt  string          `json:"created_at,omitempty"`
}

// Content returns the stored text, or "" when none of the known shapes
// carry a string.
func (i Item) Content() string {
	var s string
	if len(i.Memory) > 0 && json.Unmarshal(i.Memory, &s) == nil && s != "" {
		return s
	}
	if len(i.Data) > 0 {
		if json.Unmarshal(i.Data, &s) == nil && s != "" {
			return s
		}
		var nested struct {
			Memory string `json:"memory"`
		}
		if json.Unmarshal(i.Data, &nested) == nil {
			return nested.Memory
		}
	}
	return ""
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

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Mem0 API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Add(ctx context.Context, req AddRequest) error {
	_, err := c.post(ctx, "/v1/memories/", req)
	if err != nil {
		return eris.Wrap(err, "mem0: add memory")
	}
	return nil
}

func (c *httpClient) Search(ctx context.Context, req SearchRequest) ([]Item, error) {
	body, err := c.post(ctx, "/v2/memories/search/", req)
	if err != nil {
		return nil, eris.Wrap(err, "mem0: search memories")
	}

	// v2 returns a bare array; some deployments wrap it in {"results": [...]}.
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Results []Item `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, eris.Wrap(err, "mem0: unmarshal search response")
		}
		return wrapped.Results, nil
	}

	var items []Item
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, eris.Wrap(err, "mem0: unmarshal search response")
	}
	return items, nil
}

func (c *httpClient) post(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrap(err, "mem0: marshal request")
	}

	url := strings.TrimRight(c.baseURL, "/") + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "mem0: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Token "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "mem0: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "mem0: read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, eris.Errorf("mem0: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
