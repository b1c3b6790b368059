package rank

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/toolscout/internal/model"
)

func tool(name, url, desc string) model.Tool {
	if desc == "" {
		desc = model.DescriptionPlaceholder
	}
	return model.Tool{ID: model.Slug(name), Name: name, URL: url, Description: desc, Pricing: model.PricingUnknown}
}

var fallbacks = []model.Tool{
	tool("ChatGPT", "https://chat.openai.com", "Conversational assistant."),
	tool("Midjourney", "https://midjourney.com", "Image generation."),
	tool("Notion AI", "https://notion.so", "Workspace writing help."),
}

func names(tools []model.Tool) []string {
	out := make([]string, len(tools))
	for i, t := range tools {
		out[i] = t.Name
	}
	return out
}

func TestDedupe_LastWinsFirstPosition(t *testing.T) {
	t.Parallel()

	in := []model.Tool{
		tool("Alpha", "https://alpha.io", "first"),
		tool("Beta", "https://beta.io", "beta"),
		tool("Alpha v2", "https://alpha.io", "second"),
	}
	got := Dedupe(in)

	want := []model.Tool{
		tool("Alpha v2", "https://alpha.io", "second"),
		tool("Beta", "https://beta.io", "beta"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Dedupe mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Alpha", in[0].Name, "input must not be modified")
}

func TestFinalize_UpgradesToPricingURL(t *testing.T) {
	t.Parallel()

	in := []model.Tool{
		{Name: "Tool", URL: "https://tool.com", Description: "Homepage copy.", Pricing: model.PricingUnknown},
		{Name: "tool ", URL: "https://tool.com/pricing", Description: "Plans from $10.", Pricing: model.PricingPaid},
	}
	got := Finalize(in, Options{MaxResults: 5})

	require.Len(t, got, 1)
	assert.Equal(t, "Tool", got[0].Name)
	assert.Equal(t, "https://tool.com/pricing", got[0].URL)
	assert.Equal(t, "Plans from $10.", got[0].Description)
	assert.Equal(t, model.PricingPaid, got[0].Pricing)
	assert.Equal(t, "https://tool.com/pricing", got[0].PricingURL)
	assert.False(t, got[0].PricingURLGuessed)
}

func TestFinalize_UpgradeKeepsDescriptionWhenLaterHasNone(t *testing.T) {
	t.Parallel()

	in := []model.Tool{
		tool("Tool", "https://tool.com", "Homepage copy."),
		tool("Tool", "https://tool.com/pricing", ""),
	}
	got := Finalize(in, Options{})

	require.Len(t, got, 1)
	assert.Equal(t, "https://tool.com/pricing", got[0].URL)
	assert.Equal(t, "Homepage copy.", got[0].Description)
}

func TestFinalize_PricingPageFirstAbsorbsSameName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []model.Tool
	}{
		{
			name: "pricing page then homepage",
			in: []model.Tool{
				{Name: "Tool", URL: "https://tool.com/pricing", Description: model.DescriptionPlaceholder, Pricing: model.PricingUnknown},
				{Name: "tool", URL: "https://tool.com", Description: "Homepage copy.", Pricing: model.PricingFreemium},
			},
		},
		{
			name: "homepage then pricing page",
			in: []model.Tool{
				{Name: "tool", URL: "https://tool.com", Description: "Homepage copy.", Pricing: model.PricingFreemium},
				{Name: "Tool", URL: "https://tool.com/pricing", Description: model.DescriptionPlaceholder, Pricing: model.PricingUnknown},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Finalize(tt.in, Options{MaxResults: 5})

			require.Len(t, got, 1)
			assert.Equal(t, "https://tool.com/pricing", got[0].URL)
			assert.Equal(t, "Homepage copy.", got[0].Description)
			assert.NotEqual(t, model.PricingUnknown, got[0].Pricing)
		})
	}
}

func TestFinalize_SecondPricingPageFolded(t *testing.T) {
	t.Parallel()

	got := Finalize([]model.Tool{
		tool("Tool", "https://tool.com/pricing", "a"),
		tool("Tool", "https://tool.com/plans", "b"),
	}, Options{})

	require.Len(t, got, 1)
	assert.Equal(t, "https://tool.com/pricing", got[0].URL)
	assert.Equal(t, "a", got[0].Description)
}

func TestFinalize_NoUpgrade(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []model.Tool
		want []string
	}{
		{
			name: "later not pricing",
			in: []model.Tool{
				tool("Tool", "https://tool.com", "a"),
				tool("Tool", "https://tool.io", "b"),
			},
			want: []string{"https://tool.com", "https://tool.io"},
		},
		{
			name: "later pricing on rejected domain",
			in: []model.Tool{
				tool("Tool", "https://tool.com", "a"),
				tool("Tool", "https://medium.com/pricing", "b"),
			},
			want: []string{"https://tool.com", "https://medium.com/pricing"},
		},
		{
			name: "earlier pricing on rejected domain",
			in: []model.Tool{
				tool("Tool", "https://medium.com/pricing", "a"),
				tool("Tool", "https://tool.com", "b"),
			},
			want: []string{"https://medium.com/pricing", "https://tool.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Finalize(tt.in, Options{})
			urls := make([]string, len(got))
			for i, g := range got {
				urls[i] = g.URL
			}
			assert.ElementsMatch(t, tt.want, urls)
		})
	}
}

func TestSort_PricingThenDescription(t *testing.T) {
	t.Parallel()

	tools := []model.Tool{
		tool("NoDesc", "https://nodesc.io", ""),
		tool("Desc", "https://desc.io", "real"),
		tool("Priced", "https://priced.io/pricing", ""),
		tool("NoDesc2", "https://nodesc2.io", ""),
		tool("Desc2", "https://desc2.io", "real"),
	}
	Sort(tools)
	assert.Equal(t, []string{"Priced", "Desc", "Desc2", "NoDesc", "NoDesc2"}, names(tools))
}

func TestFinalize_TruncatesAndBackfills(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []model.Tool
		opts Options
		want []string
	}{
		{
			name: "truncate",
			in: []model.Tool{
				tool("A", "https://a.io", "a"),
				tool("B", "https://b.io", "b"),
				tool("C", "https://c.io", "c"),
			},
			opts: Options{MinResults: 1, MaxResults: 2, Fallbacks: fallbacks},
			want: []string{"A", "B"},
		},
		{
			name: "backfill to min",
			in:   []model.Tool{tool("A", "https://a.io", "a")},
			opts: Options{MinResults: 3, MaxResults: 5, Fallbacks: fallbacks},
			want: []string{"A", "ChatGPT", "Midjourney"},
		},
		{
			name: "backfill skips present names",
			in:   []model.Tool{tool("chatgpt", "https://chatgpt.example.com", "a")},
			opts: Options{MinResults: 3, MaxResults: 5, Fallbacks: fallbacks},
			want: []string{"chatgpt", "Midjourney", "Notion AI"},
		},
		{
			name: "backfill skips present urls",
			in:   []model.Tool{tool("MJ", "https://midjourney.com", "a")},
			opts: Options{MinResults: 2, MaxResults: 5, Fallbacks: fallbacks},
			want: []string{"MJ", "ChatGPT"},
		},
		{
			name: "backfill exhausted",
			in:   []model.Tool{tool("A", "https://a.io", "a")},
			opts: Options{MinResults: 10, MaxResults: 10, Fallbacks: fallbacks},
			want: []string{"A", "ChatGPT", "Midjourney", "Notion AI"},
		},
		{
			name: "min capped by max",
			in:   []model.Tool{tool("A", "https://a.io", "a")},
			opts: Options{MinResults: 5, MaxResults: 2, Fallbacks: fallbacks},
			want: []string{"A", "ChatGPT"},
		},
		{
			name: "empty input not backfilled",
			opts: Options{MinResults: 3, MaxResults: 5, Fallbacks: fallbacks},
			want: []string{},
		},
		{
			name: "empty input backfilled",
			opts: Options{MinResults: 2, MaxResults: 5, Fallbacks: fallbacks, BackfillEmpty: true},
			want: []string{"ChatGPT", "Midjourney"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, names(Finalize(tt.in, tt.opts)))
		})
	}
}

func TestFinalize_Bounds(t *testing.T) {
	t.Parallel()

	for n := 0; n < 12; n++ {
		var in []model.Tool
		for i := 0; i < n; i++ {
			// groups of three share a URL
			in = append(in, tool(fmt.Sprintf("T%d", i), fmt.Sprintf("https://t%d.io", i-i%3), ""))
		}
		got := Finalize(in, Options{MinResults: 3, MaxResults: 5, Fallbacks: fallbacks})

		assert.LessOrEqual(t, len(got), 5)
		if n > 0 {
			assert.GreaterOrEqual(t, len(got), 3)
		}
		seen := make(map[string]bool)
		for _, g := range got {
			assert.False(t, seen[g.URL], "duplicate url %s", g.URL)
			seen[g.URL] = true
		}
	}
}

func TestBackfill_DoesNotAliasInput(t *testing.T) {
	t.Parallel()

	in := make([]model.Tool, 1, 4)
	in[0] = tool("A", "https://a.io", "a")
	got := Backfill(in, fallbacks, 3)

	require.Len(t, got, 3)
	assert.Len(t, in, 1)
	assert.Empty(t, in[:2][1].Name)
}
