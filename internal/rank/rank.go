// Package rank merges, deduplicates, orders and backfills extracted tools.
package rank

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/toolscout/internal/classify"
	"github.com/sells-group/toolscout/internal/model"
)

// Options bounds and backfills a finalized list.
type Options struct {
	// MinResults is the size backfill tries to reach.
	MinResults int
	// MaxResults truncates the ranked list. Zero or negative means unbounded.
	MaxResults int
	// Fallbacks are last-resort tools appended to reach MinResults.
	Fallbacks []model.Tool
	// BackfillEmpty backfills even when no tools were extracted.
	BackfillEmpty bool
}

// Finalize dedupes tools by URL, upgrades same-name tools to pricing pages,
// ranks, truncates to MaxResults and backfills to MinResults. The input
// slice is not modified.
func Finalize(tools []model.Tool, opts Options) []model.Tool {
	extracted := len(tools)

	out := Dedupe(tools)
	out = upgradeByName(out)
	Sort(out)

	if opts.MaxResults > 0 && len(out) > opts.MaxResults {
		out = out[:opts.MaxResults]
	}

	minResults := opts.MinResults
	if opts.MaxResults > 0 && minResults > opts.MaxResults {
		minResults = opts.MaxResults
	}
	if len(out) > 0 || opts.BackfillEmpty {
		out = Backfill(out, opts.Fallbacks, minResults)
	}

	zap.L().Debug("rank: finalized",
		zap.Int("extracted", extracted),
		zap.Int("returned", len(out)),
	)
	return out
}

// Dedupe keeps one tool per URL. The last tool seen for a URL wins, placed
// at the position where that URL first appeared.
func Dedupe(tools []model.Tool) []model.Tool {
	out := make([]model.Tool, 0, len(tools))
	pos := make(map[string]int, len(tools))
	for _, t := range tools {
		if i, ok := pos[t.Key()]; ok {
			out[i] = t
			continue
		}
		pos[t.Key()] = len(out)
		out = append(out, t)
	}
	return out
}

// upgradeByName merges same-name tools when one of them is a pricing page.
// A later pricing page replaces an earlier homepage; a later tool seen
// after the pricing page only fills the blanks of the kept one.
func upgradeByName(tools []model.Tool) []model.Tool {
	out := make([]model.Tool, 0, len(tools))
	byName := make(map[string]int, len(tools))
	for _, t := range tools {
		key := model.NameKey(t.Name)
		i, ok := byName[key]
		if !ok {
			byName[key] = len(out)
			out = append(out, t)
			continue
		}
		if isAcceptablePricingURL(out[i].URL) {
			fillBlanks(&out[i], t)
			continue
		}
		if !betterURL(out[i].URL, t.URL) {
			out = append(out, t)
			continue
		}

		kept := &out[i]
		kept.URL = t.URL
		if t.HasDescription() {
			kept.Description = t.Description
		}
		if knownPricing(t.Pricing) {
			kept.Pricing = t.Pricing
		}
		if kept.PricingURL == "" || kept.PricingURLGuessed {
			kept.PricingURL = t.URL
			kept.PricingURLGuessed = false
		}
	}
	return out
}

func fillBlanks(kept *model.Tool, t model.Tool) {
	if !kept.HasDescription() && t.HasDescription() {
		kept.Description = t.Description
	}
	if !knownPricing(kept.Pricing) && knownPricing(t.Pricing) {
		kept.Pricing = t.Pricing
	}
}

func knownPricing(p model.PricingTier) bool {
	return p != "" && p != model.PricingUnknown
}

func isAcceptablePricingURL(u string) bool {
	return classify.IsPricingURL(u) && classify.IsAcceptableToolURL(u, model.ModeRelaxed)
}

// betterURL reports whether candidate should replace current: candidate is
// an acceptable pricing page and current is not a pricing page.
func betterURL(current, candidate string) bool {
	if current == candidate || classify.IsPricingURL(current) {
		return false
	}
	return isAcceptablePricingURL(candidate)
}

// Sort orders tools in place: pricing-page URLs first, then tools with a
// real description. Ties keep their relative order.
func Sort(tools []model.Tool) {
	sort.SliceStable(tools, func(i, j int) bool {
		pi, pj := classify.IsPricingURL(tools[i].URL), classify.IsPricingURL(tools[j].URL)
		if pi != pj {
			return pi
		}
		di, dj := tools[i].HasDescription(), tools[j].HasDescription()
		return di && !dj
	})
}

// Backfill appends fallbacks until tools reaches min, skipping names and
// URLs already present.
func Backfill(tools, fallbacks []model.Tool, minResults int) []model.Tool {
	if len(tools) >= minResults {
		return tools
	}

	tools = model.CloneTools(tools)
	names := make(map[string]bool, len(tools)+len(fallbacks))
	urls := make(map[string]bool, len(tools)+len(fallbacks))
	for _, t := range tools {
		names[model.NameKey(t.Name)] = true
		urls[t.Key()] = true
	}

	for _, f := range fallbacks {
		if len(tools) >= minResults {
			break
		}
		if names[model.NameKey(f.Name)] || urls[f.Key()] {
			continue
		}
		names[model.NameKey(f.Name)] = true
		urls[f.Key()] = true
		tools = append(tools, f)
	}
	return tools
}
