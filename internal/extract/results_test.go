package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/toolscout/internal/model"
)

func sampleHits() []model.SearchHit {
	return []model.SearchHit{
		{Title: "Leonardo AI | Free AI Art Generator", URL: "https://leonardo.ai", Content: "Create production-quality visual assets with a free plan."},
		{Title: "Midjourney", URL: "https://www.midjourney.com/blog/v6", Content: "Announcing version 6"},
		{Title: "Ideogram", URL: "https://ideogram.ai/pricing", Content: "Plans from $8 per month"},
		{Title: "Home", URL: "https://www.playground.com", Content: "Playground is an image editor."},
		{Title: "Stable Diffusion tips", URL: "https://stability.ai/blog/tips", Content: "Prompting tips"},
	}
}

func TestFromResults_SkipsBlogHits(t *testing.T) {
	t.Parallel()

	tools := FromResults(sampleHits(), nil, ResultOptions{Mode: model.ModeStrict})
	require.Len(t, tools, 3)
	assert.LessOrEqual(t, len(tools), 3)
	for _, tool := range tools {
		assert.NotContains(t, tool.URL, "/blog/")
	}

	assert.Equal(t, "Leonardo AI", tools[0].Name)
	assert.Equal(t, model.PricingFreemium, tools[0].Pricing)
	assert.Equal(t, "https://leonardo.ai/pricing", tools[0].PricingURL)
	assert.True(t, tools[0].PricingURLGuessed)

	assert.Equal(t, "Ideogram", tools[1].Name)
	assert.Equal(t, model.PricingPaid, tools[1].Pricing)
	assert.Equal(t, "https://ideogram.ai/pricing", tools[1].PricingURL)
	assert.False(t, tools[1].PricingURLGuessed)

	assert.Equal(t, "Playground", tools[2].Name)
	assert.Equal(t, model.PricingUnknown, tools[2].Pricing)
	assert.Equal(t, "playground", tools[2].ID)
}

func TestFromResults_StopsAtTarget(t *testing.T) {
	t.Parallel()

	existing := []model.Tool{
		{Name: "ChatGPT", URL: "https://chat.openai.com"},
		{Name: "Claude", URL: "https://claude.ai"},
	}
	tools := FromResults(sampleHits(), existing, ResultOptions{Mode: model.ModeStrict, Target: 3})
	require.Len(t, tools, 1)
	assert.Equal(t, "Leonardo AI", tools[0].Name)
}

func TestFromResults_SkipsExistingURLs(t *testing.T) {
	t.Parallel()

	existing := []model.Tool{{Name: "Leonardo", URL: "https://leonardo.ai"}}
	tools := FromResults(sampleHits(), existing, ResultOptions{Mode: model.ModeStrict})
	require.Len(t, tools, 2)
	assert.Equal(t, "Ideogram", tools[0].Name)
}

func TestFromResults_SkipsListicleTitles(t *testing.T) {
	t.Parallel()

	hits := []model.SearchHit{
		{Title: "Top 10 AI image generators", URL: "https://aitools.io", Content: "Our picks"},
		{Title: "25 AI tools for designers", URL: "https://designers.io", Content: "Roundup"},
		{Title: "Runway", URL: "https://runwayml.com", Content: "Video generation."},
	}
	tools := FromResults(hits, nil, ResultOptions{Mode: model.ModeStrict})
	require.Len(t, tools, 1)
	assert.Equal(t, "Runway", tools[0].Name)
}

func TestFromResults_SkipsMalformedHits(t *testing.T) {
	t.Parallel()

	hits := []model.SearchHit{
		{Title: "No URL"},
		{Title: "Bad URL", URL: "not a url"},
		{Title: "Duplicate", URL: "https://dup.io"},
		{Title: "Duplicate again", URL: "https://dup.io"},
	}
	tools := FromResults(hits, nil, ResultOptions{Mode: model.ModeStrict})
	require.Len(t, tools, 1)
	assert.Equal(t, "Duplicate", tools[0].Name)
	assert.Equal(t, model.DescriptionPlaceholder, tools[0].Description)
}

func TestFromResults_Empty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, FromResults(nil, nil, ResultOptions{}))
}

func TestNameFromTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		title string
		want  string
	}{
		{"Leonardo AI | Free AI Art Generator", "Leonardo AI"},
		{"Leonardo AI - Create stunning art", "Leonardo AI"},
		{"Copy.ai: AI writer", "Copy.ai"},
		{"Text-to-Speech Pro", "Text-to-Speech Pro"},
		{"Runway|Video", "Runway"},
		{"  ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NameFromTitle(tt.title))
		})
	}
}

func TestNameFromHost(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Leonardo", NameFromHost("https://www.leonardo.ai/x"))
	assert.Equal(t, "Runway", NameFromHost("https://app.runway.ml/login"))
	assert.Equal(t, "", NameFromHost("garbage"))
}

func TestPricingFromContent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		content string
		want    model.PricingTier
	}{
		{"Start for free today", model.PricingFreemium},
		{"Free trial, then $10/month", model.PricingFreemium},
		{"Premium plans for teams", model.PricingPaid},
		{"From $8 per month", model.PricingPaid},
		{"From €8 per month", model.PricingPaid},
		{"An image editor", model.PricingUnknown},
		{"", model.PricingUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, PricingFromContent(tt.content))
		})
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0123456789...", truncate("0123456789ABCDEF", 10))
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a b c", truncate("a\n  b\tc", 10))
	assert.Equal(t, model.DescriptionPlaceholder, truncate("   ", 10))

	long := strings.Repeat("word ", 100)
	got := truncate(long, DefaultDescriptionLimit)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len([]rune(got)), DefaultDescriptionLimit+3)
}
