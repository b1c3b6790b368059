package jina

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listing = `{
	"code": 200,
	"data": [
		{"title": "Otter.ai - AI Meeting Notes", "url": "https://otter.ai", "description": "Meeting transcription.", "content": ""},
		{"title": "Rev", "url": "https://rev.com", "description": "", "content": "Human and machine transcription."}
	]
}`

func newTestClient(t *testing.T, h http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient("jina-key", WithBaseURL(srv.URL+"/"), WithRetryBackoff(time.Millisecond))
}

func TestSearch_ListingWithoutContent(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/transcription AI tools", r.URL.Path)
		assert.Equal(t, "Bearer jina-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "no-content", r.Header.Get("X-Respond-With"))
		_, _ = w.Write([]byte(listing))
	})

	resp, err := c.Search(context.Background(), "transcription AI tools", WithoutContent())
	require.NoError(t, err)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "https://otter.ai", resp.Data[0].URL)
	assert.Equal(t, "Meeting transcription.", resp.Data[0].Snippet())
	assert.Equal(t, "Human and machine transcription.", resp.Data[1].Snippet())
}

func TestSearch_FetchesContentByDefault(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("X-Respond-With"))
		_, _ = w.Write([]byte(`{"code":200,"data":[]}`))
	})

	resp, err := c.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Empty(t, resp.Data)
}

func TestSearch_UnprocessableIsEmpty(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"code":422,"message":"no results"}`))
	})

	resp, err := c.Search(context.Background(), "zzzz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Empty(t, resp.Data)
}

func TestSearch_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: "bad key", wantErr: "jina: search status 401: bad key"},
		{name: "malformed json", status: http.StatusOK, body: "{", wantErr: "jina: decode search response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var calls atomic.Int32
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Search(context.Background(), "q")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, int32(1), calls.Load(), "non-transient failures are not retried")
		})
	}
}

func TestSearch_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	for _, status := range []int{http.StatusTooManyRequests, http.StatusBadGateway} {
		var calls atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < maxAttempts {
				w.WriteHeader(status)
				return
			}
			_, _ = w.Write([]byte(listing))
		})

		resp, err := c.Search(context.Background(), "transcription")
		require.NoError(t, err, "status %d", status)
		assert.Len(t, resp.Data, 2)
		assert.Equal(t, int32(maxAttempts), calls.Load())
	}
}

func TestSearch_RetriesExhausted(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("overloaded"))
	})

	_, err := c.Search(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503: overloaded")
	assert.Equal(t, int32(maxAttempts), calls.Load())
}

func TestSearch_CancelDuringBackoff(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)
	c := NewClient("k", WithBaseURL(srv.URL), WithRetryBackoff(time.Minute))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Search(ctx, "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewClient_Options(t *testing.T) {
	t.Parallel()

	hc := &http.Client{Timeout: time.Second}
	c := NewClient("k", WithHTTPClient(hc)).(*httpClient)
	assert.Same(t, hc, c.http)
	assert.Equal(t, defaultBaseURL, c.baseURL)
	assert.Equal(t, defaultBackoff, c.backoff)
}
