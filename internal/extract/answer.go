package extract

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/toolscout/internal/classify"
	"github.com/sells-group/toolscout/internal/model"
)

// Options configures answer parsing.
type Options struct {
	Mode model.Mode
	// MaxResults stops the scan once this many tools are collected.
	// Zero or negative means unbounded.
	MaxResults int
}

// field identifies which part of a tool a rule fills.
type field int

const (
	fieldName field = iota
	fieldLinkedName
	fieldDescription
	fieldPricing
	fieldURL
	fieldPricingURL
)

// carriesURL reports whether the field's value is judged by the URL
// classifier instead of the content keyword denylist. Only the host of
// such a value is held to the denylist.
func (f field) carriesURL() bool {
	return f == fieldURL || f == fieldPricingURL
}

// rule is a labeled pattern. The first capture group is the value; linked
// names capture the name and the URL.
type rule struct {
	name    string
	field   field
	pattern *regexp.Regexp
	check   func(value string) bool
	// weak names only start a tool when none is half-read.
	weak bool
}

// lead strips bullets, markdown emphasis/headings and "1." / "1)" numbering.
const lead = `^[\s>#*•\-]*(?:\d{1,2}[.)]\s*)?[*_]*\s*`

// sep matches a label separator, tolerating emphasis on either side.
const sep = `[*_]*\s*:\s*[*_]*\s*`

func labeled(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + lead + `(?:` + label + `)` + sep + `(.+)$`)
}

// answerRules are tried in order; the first match wins. URL-bearing rules
// come first so "Pricing URL:" is never read as a pricing tier.
var answerRules = []rule{
	{name: "pricing_url_label", field: fieldPricingURL, pattern: labeled(`pricing\s+(?:url|link|page)|plans?\s+(?:url|link|page)`)},
	{name: "url_label", field: fieldURL, pattern: labeled(`url|link|homepage|home\s+page|website|official\s+(?:site|website)|site`)},
	{name: "description_label", field: fieldDescription, pattern: labeled(`description|function|summary|what\s+it\s+does|overview`)},
	{name: "pricing_label", field: fieldPricing, pattern: labeled(`pricing(?:\s+model)?|cost|price`)},
	{name: "name_label", field: fieldName, pattern: labeled(`name|tool(?:\s+name)?|product(?:\s+name)?`)},
	{
		name:    "markdown_link_name",
		field:   fieldLinkedName,
		pattern: regexp.MustCompile(lead + `\[([^\]]{2,80})\]\((https?://[^)\s]+)\)`),
	},
	{
		name:    "ai_tool_suffix_name",
		field:   fieldName,
		pattern: regexp.MustCompile(`(?i)` + lead + `([^\-:–—]+?)\s*[*_]*\s*[-–—]\s*(?:an?\s+)?(?:AI[\s-]+(?:tool|app|software|platform)|software)\b`),
	},
	{
		name:    "title_name",
		field:   fieldName,
		pattern: regexp.MustCompile(lead + `([A-Z][\w.+&'·]*(?: [\w.+&'·]+)*?)\s*[*_]*\s*(?:[-|–—].*)?$`),
		check: func(v string) bool {
			return len(strings.Fields(v)) <= maxTitleWords && !strings.HasSuffix(v, ".") && !strings.HasSuffix(v, ",")
		},
		weak: true,
	},
}

// maxTitleWords bounds unlabeled title-cased names.
const maxTitleWords = 4

// urlInText finds the first absolute URL in a value, stopping at markdown
// or quoting punctuation.
var urlInText = regexp.MustCompile(`https?://[^\s<>()\[\]"'` + "`" + `]+`)

// scanState is the parser's position in the awaiting-name → accumulating →
// emit cycle.
type scanState int

const (
	awaitingName scanState = iota
	accumulating
)

// partialTool accumulates fields for the tool currently being read.
type partialTool struct {
	name        string
	description string
	pricing     string
	url         string
	pricingURL  string
}

func (p *partialTool) complete() bool {
	return p.name != "" && p.url != ""
}

// answerParser holds the scan state for one ParseAnswer call.
type answerParser struct {
	opts  Options
	state scanState
	cur   partialTool
	tools []model.Tool
	seen  map[string]bool
	log   *zap.Logger
}

// ParseAnswer extracts tools from a provider's synthesized answer. It scans
// the text once, line by line, and never fails: unparseable text yields
// fewer or zero tools.
func ParseAnswer(text string, opts Options) []model.Tool {
	p := &answerParser{
		opts: opts,
		seen: make(map[string]bool),
		log:  zap.L().With(zap.String("component", "answer_parser")),
	}

	for _, raw := range strings.Split(text, "\n") {
		if p.full() {
			break
		}
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		p.consume(line)
	}

	if !p.full() {
		p.emit()
	}

	p.log.Debug("answer parsed", zap.Int("tools", len(p.tools)))
	return p.tools
}

func (p *answerParser) full() bool {
	return p.opts.MaxResults > 0 && len(p.tools) >= p.opts.MaxResults
}

func (p *answerParser) consume(line string) {
	r, m := matchRule(line, true)
	if r == nil {
		if IsContentLine(line) {
			// A finished tool survives; a half-read one is dropped so the
			// line cannot lend it a name or description.
			p.emit()
			return
		}
		r, m = matchRule(line, false)
	}
	if r == nil {
		return
	}
	if r.field.carriesURL() && IsContentHost(firstURL(m[1])) {
		p.emit()
		return
	}
	if r.weak && p.state == accumulating && !p.cur.complete() {
		return
	}

	switch r.field {
	case fieldName:
		p.begin(cleanValue(m[1]))
	case fieldLinkedName:
		p.begin(cleanValue(m[1]))
		if p.state == accumulating {
			p.cur.url = firstURL(m[2])
		}
	default:
		if p.state != accumulating {
			return
		}
		p.set(r.field, m[1])
	}
}

// matchRule returns the first rule matching line. urlRules selects between
// the URL-bearing rules and the rest.
func matchRule(line string, urlRules bool) (*rule, []string) {
	for i := range answerRules {
		r := &answerRules[i]
		if r.field.carriesURL() != urlRules {
			continue
		}
		m := r.pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if r.check != nil && !r.check(strings.TrimSpace(m[1])) {
			continue
		}
		return r, m
	}
	return nil, nil
}

// begin finalizes the current tool if complete and starts a new one.
func (p *answerParser) begin(name string) {
	p.emit()
	if !plausibleName(name) {
		p.reset()
		return
	}
	p.cur = partialTool{name: name}
	p.state = accumulating
}

func (p *answerParser) set(f field, raw string) {
	switch f {
	case fieldDescription:
		if v := cleanValue(raw); v != "" {
			p.cur.description = v
		}
	case fieldPricing:
		p.cur.pricing = cleanValue(raw)
	case fieldURL:
		if u := firstURL(raw); u != "" {
			p.cur.url = u
		}
	case fieldPricingURL:
		if u := firstURL(raw); u != "" && classify.IsAcceptableToolURL(u, model.ModeRelaxed) {
			p.cur.pricingURL = u
		}
	}
}

// emit appends the current tool if it is complete, acceptable and new,
// then returns to awaiting a name.
func (p *answerParser) emit() {
	defer p.reset()

	if p.state != accumulating || !p.cur.complete() || p.full() {
		return
	}
	if !classify.IsAcceptableToolURL(p.cur.url, p.opts.Mode) {
		p.log.Debug("rejected tool url", zap.String("name", p.cur.name), zap.String("url", p.cur.url))
		return
	}
	if p.seen[p.cur.url] {
		return
	}
	p.seen[p.cur.url] = true

	desc := p.cur.description
	if desc == "" {
		desc = model.DescriptionPlaceholder
	}
	p.tools = append(p.tools, model.Tool{
		ID:          model.Slug(p.cur.name),
		Name:        p.cur.name,
		Description: desc,
		Pricing:     model.NormalizePricing(p.cur.pricing),
		URL:         p.cur.url,
		PricingURL:  p.cur.pricingURL,
	})
}

func (p *answerParser) reset() {
	p.cur = partialTool{}
	p.state = awaitingName
}

// cleanValue trims whitespace and stray markdown emphasis.
func cleanValue(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "*_`"))
}

// firstURL extracts the first URL in s, without trailing punctuation.
func firstURL(s string) string {
	u := urlInText.FindString(s)
	return strings.TrimRight(u, ".,;:!?*_>")
}
