package provider

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/toolscout/internal/model"
	"github.com/sells-group/toolscout/pkg/tavily"
)

// Tavily returns Tavily's synthesized answer together with its raw hits.
type Tavily struct {
	client tavily.Client
}

// NewTavily wraps a Tavily client.
func NewTavily(client tavily.Client) *Tavily {
	return &Tavily{client: client}
}

// Name implements Searcher.
func (t *Tavily) Name() string { return NameTavily }

// Search implements Searcher.
func (t *Tavily) Search(ctx context.Context, query string, limit int) (*Result, error) {
	resp, err := t.client.Search(ctx, tavily.SearchRequest{
		Query:             EnhancedPrompt(query, limit),
		Topic:             "general",
		IncludeAnswer:     true,
		IncludeRawContent: "markdown",
		ChunksPerSource:   3,
		ExcludeDomains:    ExcludedDomains,
	})
	if err != nil {
		return nil, eris.Wrap(err, "provider: tavily search")
	}

	out := &Result{
		Answer: resp.Answer,
		Hits:   make([]model.SearchHit, 0, len(resp.Results)),
	}
	for _, r := range resp.Results {
		out.Hits = append(out.Hits, model.SearchHit{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Content,
		})
	}
	return out, nil
}
