package provider

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/toolscout/internal/model"
	"github.com/sells-group/toolscout/pkg/anthropic"
)

const synthesisSystemPrompt = "You pick specific software products out of web search results. Use only tools and URLs that appear in the results. Answer only with the requested labeled blocks."

// maxSnippetRunes bounds each hit's text in the synthesis prompt.
const maxSnippetRunes = 300

// Synthesizer gives a results-only searcher an answer: a Claude model
// reads the hits and writes the labeled blocks ParseAnswer expects. The
// wrapped searcher's name is kept so configuration still selects it.
type Synthesizer struct {
	inner     Searcher
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewSynthesizer wraps inner.
func NewSynthesizer(inner Searcher, client anthropic.Client, model string, maxTokens int64) *Synthesizer {
	return &Synthesizer{inner: inner, client: client, model: model, maxTokens: maxTokens}
}

// Name implements Searcher.
func (s *Synthesizer) Name() string { return s.inner.Name() }

// Search implements Searcher. A failed synthesis leaves the answer empty
// so the hits still reach the fallback extractor.
func (s *Synthesizer) Search(ctx context.Context, query string, limit int) (*Result, error) {
	res, err := s.inner.Search(ctx, query, limit)
	if err != nil || res.Answer != "" || len(res.Hits) == 0 {
		return res, err
	}

	resp, err := s.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		System:    synthesisSystemPrompt,
		Messages:  []anthropic.Message{{Role: "user", Content: SynthesisPrompt(query, limit, res.Hits)}},
	})
	if err != nil {
		zap.L().Warn("provider: answer synthesis failed, using raw hits",
			zap.String("provider", s.inner.Name()),
			zap.Int("hits", len(res.Hits)),
			zap.Error(err),
		)
		return res, nil
	}

	res.Answer = resp.Text
	return res, nil
}

// SynthesisPrompt is EnhancedPrompt followed by the numbered hits the
// model must choose from.
func SynthesisPrompt(query string, n int, hits []model.SearchHit) string {
	var b strings.Builder
	b.WriteString(EnhancedPrompt(query, n))
	b.WriteString("\n\nChoose only from these search results:\n")
	for i, h := range hits {
		fmt.Fprintf(&b, "\n%d. %s\n   %s\n", i+1, strings.TrimSpace(h.Title), h.URL)
		if snippet := truncateRunes(strings.Join(strings.Fields(h.Content), " "), maxSnippetRunes); snippet != "" {
			fmt.Fprintf(&b, "   %s\n", snippet)
		}
	}
	return b.String()
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
