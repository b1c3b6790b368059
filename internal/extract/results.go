package extract

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/toolscout/internal/classify"
	"github.com/sells-group/toolscout/internal/model"
)

// DefaultDescriptionLimit is the snippet length kept as a description.
const DefaultDescriptionLimit = 200

// ResultOptions configures extraction from raw search hits.
type ResultOptions struct {
	Mode model.Mode
	// Target stops extraction once existing plus new tools reach it.
	// Zero or negative means unbounded.
	Target int
	// DescriptionLimit truncates snippets, in runes. Defaults to
	// DefaultDescriptionLimit.
	DescriptionLimit int
}

// titleDelimiters split a page title into the product name and the rest
// ("Leonardo AI | Free AI Art Generator").
var titleDelimiters = regexp.MustCompile(`\s+[-–—|:]\s+|\s*\|\s*|:\s+`)

var (
	freeWords = regexp.MustCompile(`\b(free|freemium|free\s+trial)\b`)
	paidWords = regexp.MustCompile(`\b(paid|premium|enterprise|subscription|subscribe)\b|[$€£]`)
	spaces    = regexp.MustCompile(`\s+`)
)

var titleCaser = cases.Title(language.Und)

// FromResults synthesizes tools from raw search hits, skipping hits already
// present in existing, content pages and unacceptable URLs. Only the new
// tools are returned. Malformed hits are skipped, never reported.
func FromResults(hits []model.SearchHit, existing []model.Tool, opts ResultOptions) []model.Tool {
	log := zap.L().With(zap.String("component", "result_extractor"))

	limit := opts.DescriptionLimit
	if limit <= 0 {
		limit = DefaultDescriptionLimit
	}

	seen := make(map[string]bool, len(existing)+len(hits))
	for _, t := range existing {
		seen[t.URL] = true
	}

	var out []model.Tool
	for _, hit := range hits {
		if opts.Target > 0 && len(existing)+len(out) >= opts.Target {
			break
		}

		u := strings.TrimSpace(hit.URL)
		switch {
		case u == "" || seen[u]:
			continue
		case isContentHit(hit.Title) || IsContentLine(hit.Content):
			log.Debug("skipping content hit", zap.String("url", u))
			continue
		case !classify.IsAcceptableToolURL(u, opts.Mode):
			log.Debug("skipping unacceptable url", zap.String("url", u))
			continue
		}

		name := NameFromTitle(hit.Title)
		if !plausibleName(name) {
			name = NameFromHost(u)
		}
		if name == "" {
			continue
		}
		seen[u] = true

		tool := model.Tool{
			ID:          model.Slug(name),
			Name:        name,
			Description: truncate(hit.Content, limit),
			Pricing:     PricingFromContent(hit.Content),
			URL:         u,
		}
		if classify.IsPricingURL(u) {
			tool.PricingURL = u
		} else if origin := classify.Origin(u); origin != "" {
			tool.PricingURL = origin + "/pricing"
			tool.PricingURLGuessed = true
		}
		out = append(out, tool)
	}

	log.Debug("results extracted", zap.Int("hits", len(hits)), zap.Int("tools", len(out)))
	return out
}

// NameFromTitle returns the leading segment of a page title.
func NameFromTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	parts := titleDelimiters.Split(title, 2)
	return strings.TrimSpace(parts[0])
}

// NameFromHost derives a display name from a URL's first host label
// ("https://www.leonardo.ai/x" -> "Leonardo").
func NameFromHost(rawURL string) string {
	host := classify.Host(rawURL)
	if host == "" {
		return ""
	}
	label := strings.SplitN(host, ".", 2)[0]
	if strings.HasPrefix(host, "app.") {
		label = strings.SplitN(strings.TrimPrefix(host, "app."), ".", 2)[0]
	}
	return titleCaser.String(label)
}

// PricingFromContent guesses a pricing tier from a snippet.
func PricingFromContent(content string) model.PricingTier {
	lower := strings.ToLower(content)
	switch {
	case freeWords.MatchString(lower):
		return model.PricingFreemium
	case paidWords.MatchString(lower):
		return model.PricingPaid
	default:
		return model.PricingUnknown
	}
}

// truncate collapses whitespace and cuts s to limit runes, appending "...".
func truncate(s string, limit int) string {
	s = strings.TrimSpace(spaces.ReplaceAllString(s, " "))
	if s == "" {
		return model.DescriptionPlaceholder
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return strings.TrimSpace(string(r[:limit])) + "..."
}
