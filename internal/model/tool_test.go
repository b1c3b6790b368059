package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePricing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want PricingTier
	}{
		{"Free", PricingFree},
		{"freemium", PricingFreemium},
		{"**Paid**", PricingPaid},
		{"", PricingUnknown},
		{"Free tier available, paid upgrades", PricingFreemium},
		{"Free and paid plans", PricingFreemium},
		{"$20/month", PricingSubscription},
		{"Subscription-based", PricingSubscription},
		{"Enterprise, contact sales", PricingEnterprise},
		{"One-time purchase", PricingPaid},
		{"Starts at $9", PricingPaid},
		{"Open source", PricingFree},
		{"Not listed", PricingUnknown},
		{"Pay as you go", PricingTier("Pay as you go")},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizePricing(tt.raw))
		})
	}
}

func TestAllPricingTiers(t *testing.T) {
	t.Parallel()

	tiers := AllPricingTiers()
	assert.Len(t, tiers, 6)
	assert.Contains(t, tiers, PricingUnknown)
}

func TestTool_Identity(t *testing.T) {
	t.Parallel()

	a := Tool{Name: "Midjourney", URL: "https://midjourney.com"}
	b := Tool{Name: "  midjourney ", URL: "https://midjourney.com/pricing"}

	assert.Equal(t, "https://midjourney.com", a.Key())
	assert.Equal(t, NameKey(a.Name), NameKey(b.Name))
	assert.NotEqual(t, NameKey(a.Name), NameKey("Leonardo AI"))
}

func TestTool_HasDescription(t *testing.T) {
	t.Parallel()

	assert.False(t, Tool{}.HasDescription())
	assert.False(t, Tool{Description: DescriptionPlaceholder}.HasDescription())
	assert.True(t, Tool{Description: "Generates images."}.HasDescription())
}

func TestSlug(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "leonardo-ai", Slug(" Leonardo   AI "))
	assert.Equal(t, "chatgpt", Slug("ChatGPT"))
}

func TestCloneTools(t *testing.T) {
	t.Parallel()

	assert.Nil(t, CloneTools(nil))

	orig := []Tool{{Name: "A"}}
	cp := CloneTools(orig)
	cp[0].Name = "B"
	assert.Equal(t, "A", orig[0].Name)
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ModeRelaxed, ParseMode("Relaxed"))
	assert.Equal(t, ModeStrict, ParseMode("strict"))
	assert.Equal(t, ModeStrict, ParseMode(""))
	assert.Equal(t, ModeStrict, ParseMode("bogus"))
	assert.True(t, ModeStrict.Valid())
	assert.False(t, Mode("bogus").Valid())
}

func TestNormalizeQuery(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "image generation", NormalizeQuery("  Image \t Generation\n"))
	assert.Equal(t, "image-generation", QuerySlug("Image   Generation"))
	assert.Equal(t, "", NormalizeQuery("   "))
}

func TestCacheEntry_Expired(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	e := CacheEntry{StoredAt: now}

	assert.False(t, e.Expired(now.Add(4*time.Minute), 5*time.Minute))
	assert.True(t, e.Expired(now.Add(5*time.Minute), 5*time.Minute))
}
