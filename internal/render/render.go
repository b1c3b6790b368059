// Package render writes resolved tools to a terminal or as structured data.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/toolscout/internal/model"
)

// Format selects an output encoding.
type Format string

const (
	FormatCards Format = "cards"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatCards:
		return FormatCards, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", eris.Errorf("render: unknown format %q (want cards, json or yaml)", s)
	}
}

// Result is the structured form of a resolution.
type Result struct {
	Query string       `json:"query" yaml:"query"`
	Tools []model.Tool `json:"tools" yaml:"tools"`
}

// Tools writes the tools resolved for query in format f.
func Tools(w io.Writer, query string, tools []model.Tool, f Format) error {
	res := Result{Query: query, Tools: tools}
	if res.Tools == nil {
		res.Tools = []model.Tool{}
	}

	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(res), "render: encode json")
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return eris.Wrap(err, "render: encode yaml")
		}
		return eris.Wrap(enc.Close(), "render: close yaml encoder")
	default:
		_, err := io.WriteString(w, Cards(query, tools))
		return eris.Wrap(err, "render: write cards")
	}
}

// Cards renders one bordered card per tool under a heading.
func Cards(query string, tools []model.Tool) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("AI tools for %q", query)))
	b.WriteString("\n")

	if len(tools) == 0 {
		b.WriteString(emptyStyle.Render("No tools found."))
		b.WriteString("\n")
		return b.String()
	}
	for _, t := range tools {
		b.WriteString(Card(t))
		b.WriteString("\n")
	}
	return b.String()
}

// Card renders a single tool.
func Card(t model.Tool) string {
	pricing := t.Pricing
	if pricing == "" {
		pricing = model.PricingUnknown
	}
	title := lipgloss.JoinHorizontal(lipgloss.Top,
		nameStyle.Render(t.Name),
		" ",
		badgeStyle(pricing).Render(string(pricing)),
	)

	lines := []string{title, t.Description, linkStyle.Render(t.URL)}
	if t.PricingURL != "" {
		label := "Pricing: " + t.PricingURL
		if t.PricingURLGuessed {
			label += " (unverified)"
		}
		lines = append(lines, mutedStyle.Render(label))
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

// Queries writes a numbered list of recent queries.
func Queries(w io.Writer, queries []string) error {
	if len(queries) == 0 {
		_, err := fmt.Fprintln(w, emptyStyle.Render("No recent searches."))
		return eris.Wrap(err, "render: write queries")
	}
	for i, q := range queries {
		if _, err := fmt.Fprintf(w, "%s%s %s\n", indexStyle.Render(fmt.Sprintf("%d.", i+1)), recentPrefix, q); err != nil {
			return eris.Wrap(err, "render: write queries")
		}
	}
	return nil
}
