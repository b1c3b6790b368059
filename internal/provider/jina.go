package provider

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/toolscout/internal/model"
	"github.com/sells-group/toolscout/pkg/jina"
)

// Jina is a results-only provider. Unless wrapped in a Synthesizer, every
// tool comes from the fallback extractor.
type Jina struct {
	client jina.Client
}

// NewJina wraps a Jina search client.
func NewJina(client jina.Client) *Jina {
	return &Jina{client: client}
}

// Name implements Searcher.
func (j *Jina) Name() string { return NameJina }

// Search implements Searcher. limit caps the hits kept; Jina decides how
// many it returns.
func (j *Jina) Search(ctx context.Context, query string, limit int) (*Result, error) {
	resp, err := j.client.Search(ctx, query+" AI tools", jina.WithoutContent())
	if err != nil {
		return nil, eris.Wrap(err, "provider: jina search")
	}

	out := &Result{Hits: make([]model.SearchHit, 0, len(resp.Data))}
	for _, r := range resp.Data {
		out.Hits = append(out.Hits, model.SearchHit{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Snippet(),
		})
	}
	// Hits are filtered downstream, so keep headroom beyond the tool count.
	if limit > 0 && len(out.Hits) > 2*limit {
		out.Hits = out.Hits[:2*limit]
	}
	return out, nil
}
