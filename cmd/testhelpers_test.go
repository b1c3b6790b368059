//go:build !integration

package main

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/toolscout/internal/cache"
	"github.com/sells-group/toolscout/internal/catalog"
	"github.com/sells-group/toolscout/internal/config"
	"github.com/sells-group/toolscout/internal/provider"
	"github.com/sells-group/toolscout/internal/resolver"
	"github.com/sells-group/toolscout/internal/store"
	"github.com/sells-group/toolscout/internal/telemetry"
)

const transcriptionAnswer = `Name: Otter.ai
Description: Meeting transcription and notes.
Pricing: Freemium
URL: https://otter.ai
Pricing URL: https://otter.ai/pricing

Name: Descript
Description: Edit audio by editing text.
Pricing: Subscription
URL: https://descript.com

Name: Rev
Description: Human and machine transcription.
Pricing: Paid
URL: https://rev.com
`

// stubSearcher answers every query with a fixed response and counts calls.
type stubSearcher struct {
	answer string
	err    error
	calls  atomic.Int32
}

func (s *stubSearcher) Name() string { return "stub" }

func (s *stubSearcher) Search(context.Context, string, int) (*provider.Result, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &provider.Result{Answer: s.answer}, nil
}

// newTestEnv builds an appEnv over a temp-dir SQLite store. A nil searcher
// runs the resolver in dev mode.
func newTestEnv(t *testing.T, searcher provider.Searcher, rc resolver.Config) *appEnv {
	t.Helper()

	cat, err := catalog.Default()
	require.NoError(t, err)

	st, err := store.Open(context.Background(), store.Options{
		Driver:      store.DriverSQLite,
		DatabaseURL: filepath.Join(t.TempDir(), "toolscout.db"),
	})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	mc := cache.NewMemory(cache.DefaultTTL)
	env := &appEnv{
		Resolver: resolver.New(rc, searcher, cat, mc, telemetry.NewPrometheusMetrics(reg)),
		Store:    st,
		Registry: reg,
		Cache:    mc,
	}
	t.Cleanup(env.Close)
	return env
}

// testConfig returns a valid config with no provider keys and a SQLite
// store in a temp dir.
func testConfig(t *testing.T) *config.Config {
	t.Helper()

	c := &config.Config{}
	c.Search = config.SearchConfig{
		Provider:         "auto",
		MinResults:       3,
		MaxResults:       5,
		Mode:             "strict",
		DescriptionLimit: 200,
		CacheTTLSecs:     300,
		CacheMaxEntries:  100,
		TimeoutSecs:      30,
		BackfillEmpty:    true,
	}
	c.Store.Driver = "sqlite"
	c.Store.DatabaseURL = filepath.Join(t.TempDir(), "toolscout.db")
	c.Jina.SearchBaseURL = "https://s.jina.ai"
	c.Mem0.UserID = "toolscout"
	c.Server.Port = 8080
	return c
}
