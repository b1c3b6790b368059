package resolver

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/toolscout/internal/cache"
	"github.com/sells-group/toolscout/internal/catalog"
	"github.com/sells-group/toolscout/internal/model"
	"github.com/sells-group/toolscout/internal/provider"
	"github.com/sells-group/toolscout/internal/telemetry"
)

const testCatalog = `catalog:
  curated:
    image generation:
      - {name: Midjourney, description: Images from prompts., pricing: Paid, url: "https://midjourney.com"}
      - {name: Leonardo AI, description: Visual assets., pricing: Freemium, url: "https://leonardo.ai"}
      - {name: Ideogram, description: Text-aware images., pricing: Free, url: "https://ideogram.ai"}
  fallbacks:
    - {name: ChatGPT, description: Conversational AI., pricing: Freemium, url: "https://chat.openai.com"}
    - {name: Midjourney, description: Images from prompts., pricing: Paid, url: "https://midjourney.com"}
    - {name: Notion AI, description: Workspace assistant., pricing: Paid, url: "https://notion.so"}
  defaults:
    - {name: ChatGPT, description: Conversational AI., pricing: Freemium, url: "https://chat.openai.com"}
    - {name: Midjourney, description: Images from prompts., pricing: Paid, url: "https://midjourney.com"}
    - {name: Notion AI, description: Workspace assistant., pricing: Paid, url: "https://notion.so"}
    - {name: Jasper, description: Marketing copy., pricing: Paid, url: "https://jasper.ai"}
    - {name: Copy.ai, description: Sales copy., pricing: Freemium, url: "https://copy.ai"}
    - {name: Grammarly, description: Writing assistant., pricing: Freemium, url: "https://grammarly.com"}
`

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

func testCat(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Parse([]byte(testCatalog))
	require.NoError(t, err)
	return cat
}

func names(tools []model.Tool) []string {
	out := make([]string, 0, len(tools))
	for _, t := range tools {
		out = append(out, t.Name)
	}
	return out
}

func newTestResolver(t *testing.T, s provider.Searcher, cfg Config) (*Resolver, *recordingMetrics) {
	t.Helper()
	m := newRecordingMetrics()
	// A nil *mockSearcher must reach New as a nil interface.
	var searcher provider.Searcher
	if ms, ok := s.(*mockSearcher); !ok || ms != nil {
		searcher = s
	}
	return New(cfg, searcher, testCat(t), cache.NewMemory(cache.DefaultTTL), m), m
}

func TestResolve_InvalidQuery(t *testing.T) {
	s := &mockSearcher{}
	r, _ := newTestResolver(t, s, DefaultConfig())

	for _, q := range []string{"", "   ", "\n\t"} {
		tools, err := r.Resolve(context.Background(), q)
		require.Error(t, err)
		assert.True(t, eris.Is(err, ErrInvalidQuery))
		assert.Nil(t, tools)
	}
	s.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolve_ProviderAnswer(t *testing.T) {
	s := &mockSearcher{}
	s.On("Search", mock.Anything, "transcription", 5).
		Return(&provider.Result{Answer: transcriptionAnswer}, nil).Once()

	r, m := newTestResolver(t, s, DefaultConfig())

	tools, err := r.Resolve(context.Background(), "transcription")
	require.NoError(t, err)
	assert.Equal(t, []string{"Otter.ai", "Descript", "Rev"}, names(tools))
	assert.Equal(t, "https://otter.ai/pricing", tools[0].PricingURL)
	assert.Equal(t, model.PricingSubscription, tools[1].Pricing)

	assert.Equal(t, []telemetry.Outcome{telemetry.OutcomeProvider}, m.Outcomes())
	assert.Equal(t, 3, m.extracted[telemetry.SourceAnswer])
	s.AssertExpectations(t)
}

func TestResolve_CachedWithoutSecondProviderCall(t *testing.T) {
	s := &mockSearcher{}
	s.On("Search", mock.Anything, "transcription", 5).
		Return(&provider.Result{Answer: transcriptionAnswer}, nil).Once()

	r, m := newTestResolver(t, s, DefaultConfig())

	first, err := r.Resolve(context.Background(), "transcription")
	require.NoError(t, err)

	first[0].Name = "mutated"

	second, err := r.Resolve(context.Background(), "  Transcription ")
	require.NoError(t, err)
	assert.Equal(t, "Otter.ai", second[0].Name, "callers get copies")
	assert.Equal(t, []string{"Otter.ai", "Descript", "Rev"}, names(second))

	s.AssertNumberOfCalls(t, "Search", 1)
	assert.Equal(t, []telemetry.Outcome{telemetry.OutcomeProvider, telemetry.OutcomeCacheHit}, m.Outcomes())
}

func TestResolve_OptionsSplitCacheEntries(t *testing.T) {
	s := &mockSearcher{}
	s.On("Search", mock.Anything, "transcription", 5).
		Return(&provider.Result{Answer: transcriptionAnswer}, nil).Once()
	s.On("Search", mock.Anything, "transcription", 2).
		Return(&provider.Result{Answer: transcriptionAnswer}, nil).Once()

	r, _ := newTestResolver(t, s, DefaultConfig())

	all, err := r.Resolve(context.Background(), "transcription")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	two, err := r.Resolve(context.Background(), "transcription", WithMaxResults(2), WithMinResults(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"Otter.ai", "Descript"}, names(two))

	s.AssertExpectations(t)
}

func TestResolve_ProviderFailureReturnsFallback(t *testing.T) {
	s := &mockSearcher{}
	s.On("Search", mock.Anything, "transcription", 5).
		Return(nil, errors.New("connection refused")).Twice()

	r, m := newTestResolver(t, s, DefaultConfig())

	tools, err := r.Resolve(context.Background(), "transcription")
	require.NoError(t, err)
	assert.Equal(t, []string{"ChatGPT", "Midjourney", "Notion AI"}, names(tools))

	// Fallbacks are not cached; the provider is retried.
	_, err = r.Resolve(context.Background(), "transcription")
	require.NoError(t, err)

	s.AssertExpectations(t)
	assert.Equal(t, []telemetry.Outcome{telemetry.OutcomeFallback, telemetry.OutcomeFallback}, m.Outcomes())
	require.Len(t, m.providers, 2)
	assert.Error(t, m.providers[0])
}

func TestResolve_FailOnProviderError(t *testing.T) {
	s := &mockSearcher{}
	s.On("Search", mock.Anything, "transcription", 5).
		Return(nil, errors.New("connection refused"))

	cfg := DefaultConfig()
	cfg.FailOnProviderError = true
	r, m := newTestResolver(t, s, cfg)

	tools, err := r.Resolve(context.Background(), "transcription")
	require.Error(t, err)
	assert.Nil(t, tools)
	assert.Contains(t, err.Error(), "resolver: search mock")
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, []telemetry.Outcome{telemetry.OutcomeFailed}, m.Outcomes())
}

func TestResolve_CuratedSkipsProvider(t *testing.T) {
	s := &mockSearcher{}
	r, m := newTestResolver(t, s, DefaultConfig())

	tools, err := r.Resolve(context.Background(), "Image   Generation")
	require.NoError(t, err)
	assert.Equal(t, []string{"Midjourney", "Leonardo AI", "Ideogram"}, names(tools))

	_, err = r.Resolve(context.Background(), "image generation")
	require.NoError(t, err)

	s.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, []telemetry.Outcome{telemetry.OutcomeCurated, telemetry.OutcomeCacheHit}, m.Outcomes())
}

func TestResolve_DevModeUsesDefaults(t *testing.T) {
	r, m := newTestResolver(t, (*mockSearcher)(nil), DefaultConfig())
	assert.Empty(t, r.ProviderName())

	tools, err := r.Resolve(context.Background(), "writing")
	require.NoError(t, err)
	assert.Equal(t, []string{"ChatGPT", "Midjourney", "Notion AI", "Jasper", "Copy.ai"}, names(tools))

	_, err = r.Resolve(context.Background(), "writing")
	require.NoError(t, err)
	assert.Equal(t, []telemetry.Outcome{telemetry.OutcomeFallback, telemetry.OutcomeCacheHit}, m.Outcomes())
}

func TestResolve_ResultsOnlySkipsBlogHits(t *testing.T) {
	hits := []model.SearchHit{
		{Title: "Leonardo AI | Free AI Art Generator", URL: "https://leonardo.ai", Content: "Create production-quality visual assets with a free plan."},
		{Title: "Midjourney", URL: "https://www.midjourney.com/blog/v6", Content: "Announcing version 6"},
		{Title: "Ideogram", URL: "https://ideogram.ai/pricing", Content: "Plans from $8 per month"},
		{Title: "Home", URL: "https://www.playground.com", Content: "Playground is an image editor."},
		{Title: "Stable Diffusion tips", URL: "https://stability.ai/blog/tips", Content: "Prompting tips"},
	}
	s := &mockSearcher{}
	s.On("Search", mock.Anything, "ai art", 5).Return(&provider.Result{Hits: hits}, nil)

	r, m := newTestResolver(t, s, DefaultConfig())

	tools, err := r.Resolve(context.Background(), "ai art")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(tools), 3)
	for _, tool := range tools {
		assert.NotContains(t, tool.URL, "/blog/")
	}
	assert.ElementsMatch(t, []string{"Leonardo AI", "Ideogram", "Playground"}, names(tools))
	assert.Equal(t, "Ideogram", tools[0].Name, "pricing page URLs rank first")
	assert.Equal(t, 3, m.extracted[telemetry.SourceResults])
}

func TestResolve_RelaxedSecondPass(t *testing.T) {
	answer := `Name: Midjourney
Description: Images from prompts.
Pricing: Paid
URL: https://docs.midjourney.com/docs/plans
`
	s := &mockSearcher{}
	s.On("Search", mock.Anything, "midjourney plans", 5).
		Return(&provider.Result{Answer: answer}, nil).Once()

	r, m := newTestResolver(t, s, DefaultConfig())

	tools, err := r.Resolve(context.Background(), "midjourney plans")
	require.NoError(t, err)
	require.NotEmpty(t, tools)
	assert.Equal(t, "https://docs.midjourney.com/docs/plans", tools[0].URL)
	assert.Equal(t, 0, m.extracted[telemetry.SourceAnswer])
	assert.Equal(t, 1, m.extracted[telemetry.SourceAnswerRelaxed])

	// Backfill skips the fallback that shares the extracted name.
	assert.Equal(t, []string{"Midjourney", "ChatGPT", "Notion AI"}, names(tools))
}

func TestResolve_NoRelaxedPassInRelaxedMode(t *testing.T) {
	s := &mockSearcher{}
	s.On("Search", mock.Anything, "x", 5).Return(&provider.Result{Answer: "nothing useful"}, nil)

	r, m := newTestResolver(t, s, DefaultConfig())
	_, err := r.Resolve(context.Background(), "x", WithMode(model.ModeRelaxed))
	require.NoError(t, err)

	_, ran := m.extracted[telemetry.SourceAnswerRelaxed]
	assert.False(t, ran)
}

func TestResolve_EmptyExtractionWithoutBackfill(t *testing.T) {
	s := &mockSearcher{}
	s.On("Search", mock.Anything, "x", 5).Return(&provider.Result{}, nil)

	cfg := DefaultConfig()
	cfg.BackfillEmpty = false
	r, _ := newTestResolver(t, s, cfg)

	tools, err := r.Resolve(context.Background(), "x")
	require.NoError(t, err)
	assert.Empty(t, tools)
}

func TestResolve_Bounds(t *testing.T) {
	var b strings.Builder
	for _, host := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		b.WriteString("Name: Tool " + strings.ToUpper(host) + "\n")
		b.WriteString("URL: https://" + host + "tool.com\n\n")
	}
	s := &mockSearcher{}
	s.On("Search", mock.Anything, mock.Anything, mock.Anything).
		Return(&provider.Result{Answer: b.String()}, nil)

	r, _ := newTestResolver(t, s, DefaultConfig())

	for _, max := range []int{1, 3, 5} {
		tools, err := r.Resolve(context.Background(), "bounded", WithMaxResults(max), WithMinResults(1))
		require.NoError(t, err)
		assert.Len(t, tools, max)

		seen := make(map[string]bool)
		for _, tool := range tools {
			assert.False(t, seen[tool.URL], "duplicate url %s", tool.URL)
			seen[tool.URL] = true
		}
	}
}

func TestResolve_Concurrent(t *testing.T) {
	s := &mockSearcher{}
	s.On("Search", mock.Anything, "transcription", 5).
		Return(&provider.Result{Answer: transcriptionAnswer}, nil)

	r, _ := newTestResolver(t, s, DefaultConfig())

	var wg sync.WaitGroup
	results := make([][]model.Tool, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = r.Resolve(context.Background(), "transcription")
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, []string{"Otter.ai", "Descript", "Rev"}, names(results[i]))
	}
}

func TestNew_Defaults(t *testing.T) {
	r := New(Config{Mode: "bogus"}, nil, nil, nil, nil)
	assert.Equal(t, model.ModeStrict, r.cfg.Mode)
	assert.NotNil(t, r.catalog)
	assert.NotNil(t, r.cache)
	assert.NotNil(t, r.metrics)

	tools, err := r.Resolve(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, tools)
}
