package model

import (
	"regexp"
	"strings"
	"time"
)

// DescriptionPlaceholder is used when no description could be extracted.
const DescriptionPlaceholder = "No description available"

// PricingTier is a best-effort categorical pricing label.
type PricingTier string

const (
	PricingFree         PricingTier = "Free"
	PricingFreemium     PricingTier = "Freemium"
	PricingPaid         PricingTier = "Paid"
	PricingSubscription PricingTier = "Subscription"
	PricingEnterprise   PricingTier = "Enterprise"
	PricingUnknown      PricingTier = "Unknown"
)

// AllPricingTiers returns the known pricing vocabulary.
func AllPricingTiers() []PricingTier {
	return []PricingTier{
		PricingFree,
		PricingFreemium,
		PricingPaid,
		PricingSubscription,
		PricingEnterprise,
		PricingUnknown,
	}
}

// pricingRules maps provider wording onto the vocabulary. Order matters:
// "free trial, then paid" should read as Freemium, not Free.
var pricingRules = []struct {
	pattern *regexp.Regexp
	tier    PricingTier
}{
	{regexp.MustCompile(`(?i)\bfreemium\b|\bfree\s+(tier|plan|trial|version)\b|\bfree\s*(and|\+|/|&)\s*paid\b|\bfree\s+with\b`), PricingFreemium},
	{regexp.MustCompile(`(?i)\benterprise\b|\bcustom\s+pricing\b|\bcontact\s+sales\b`), PricingEnterprise},
	{regexp.MustCompile(`(?i)\bsubscription\b|\bper\s+month\b|/\s*mo(nth)?\b|\bmonthly\b|\bannual(ly)?\b`), PricingSubscription},
	{regexp.MustCompile(`(?i)\bpaid\b|\bpremium\b|\bone[- ]time\b|[$€£]\s*\d`), PricingPaid},
	{regexp.MustCompile(`(?i)\bfree\b|\bopen[- ]source\b`), PricingFree},
	{regexp.MustCompile(`(?i)\bunknown\b|\bn/?a\b|\bnot\s+(listed|available|specified)\b`), PricingUnknown},
}

// NormalizePricing maps free-form provider text onto the pricing vocabulary.
// Text that matches no rule is kept verbatim so the label is not lost.
func NormalizePricing(raw string) PricingTier {
	raw = strings.TrimSpace(strings.Trim(raw, "*_ "))
	if raw == "" {
		return PricingUnknown
	}
	for _, tier := range AllPricingTiers() {
		if strings.EqualFold(raw, string(tier)) {
			return tier
		}
	}
	for _, r := range pricingRules {
		if r.pattern.MatchString(raw) {
			return r.tier
		}
	}
	return PricingTier(raw)
}

// Tool is a structured software recommendation extracted from search text.
type Tool struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description" yaml:"description"`
	Pricing     PricingTier `json:"pricing" yaml:"pricing"`
	URL         string      `json:"url" yaml:"url"`
	PricingURL  string      `json:"pricingUrl,omitempty" yaml:"pricing_url,omitempty"`

	// PricingURLGuessed marks a PricingURL synthesized from the homepage
	// origin. It has not been fetched and may not exist.
	PricingURLGuessed bool `json:"pricingUrlGuessed,omitempty" yaml:"pricing_url_guessed,omitempty"`
}

// Key returns the deduplication identity of the tool.
func (t Tool) Key() string {
	return t.URL
}

// HasDescription reports whether the tool carries a real description.
func (t Tool) HasDescription() bool {
	d := strings.TrimSpace(t.Description)
	return d != "" && d != DescriptionPlaceholder
}

// NameKey normalizes a tool name for case-insensitive comparison.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

var slugSpace = regexp.MustCompile(`\s+`)

// Slug derives a tool ID from its name.
func Slug(name string) string {
	return slugSpace.ReplaceAllString(NameKey(name), "-")
}

// SearchHit is a single raw web search result.
type SearchHit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Memory is a resolved query persisted to the memory store.
type Memory struct {
	Query     string    `json:"query"`
	Tools     []Tool    `json:"results"`
	Timestamp time.Time `json:"timestamp"`
}

// CloneTools returns a copy of tools so callers cannot mutate shared state.
func CloneTools(tools []Tool) []Tool {
	if tools == nil {
		return nil
	}
	out := make([]Tool, len(tools))
	copy(out, tools)
	return out
}
