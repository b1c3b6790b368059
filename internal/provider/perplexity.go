package provider

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/toolscout/internal/model"
	"github.com/sells-group/toolscout/pkg/perplexity"
)

const perplexitySystemPrompt = "You recommend specific software products. Answer only with the requested labeled blocks, one block per tool, and never cite articles or reviews as tools."

// Perplexity asks a grounded chat model for tools and returns the pages it
// searched as hits.
type Perplexity struct {
	client perplexity.Client
}

// NewPerplexity wraps a Perplexity client.
func NewPerplexity(client perplexity.Client) *Perplexity {
	return &Perplexity{client: client}
}

// Name implements Searcher.
func (p *Perplexity) Name() string { return NamePerplexity }

// Search implements Searcher.
func (p *Perplexity) Search(ctx context.Context, query string, limit int) (*Result, error) {
	filter := make([]string, 0, len(ExcludedDomains))
	for _, d := range ExcludedDomains {
		filter = append(filter, "-"+d)
	}

	resp, err := p.client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Messages: []perplexity.Message{
			{Role: "system", Content: perplexitySystemPrompt},
			{Role: "user", Content: EnhancedPrompt(query, limit)},
		},
		SearchDomainFilter: filter,
	})
	if err != nil {
		return nil, eris.Wrap(err, "provider: perplexity chat completion")
	}

	out := &Result{Answer: resp.Answer()}
	if len(resp.SearchResults) > 0 {
		out.Hits = make([]model.SearchHit, 0, len(resp.SearchResults))
		for _, r := range resp.SearchResults {
			out.Hits = append(out.Hits, model.SearchHit{
				Title:   r.Title,
				URL:     r.URL,
				Content: r.Snippet,
			})
		}
		return out, nil
	}

	// Older models only return bare citation URLs.
	out.Hits = make([]model.SearchHit, 0, len(resp.Citations))
	for _, c := range resp.Citations {
		out.Hits = append(out.Hits, model.SearchHit{URL: c})
	}
	return out, nil
}
