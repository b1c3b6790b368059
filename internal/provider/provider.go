// Package provider adapts web search and answer APIs to a single Searcher
// interface consumed by the resolver.
package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sells-group/toolscout/internal/model"
)

// Provider names accepted by configuration.
const (
	NameTavily     = "tavily"
	NamePerplexity = "perplexity"
	NameJina       = "jina"

	// NameAuto picks the first registered provider in Preference order.
	NameAuto = "auto"
)

// Preference is the order in which "auto" selects a provider. Answer
// providers come first; Jina only returns raw hits.
var Preference = []string{NameTavily, NamePerplexity, NameJina}

// ExcludedDomains are blog platforms excluded at the provider when it
// supports domain filtering.
var ExcludedDomains = []string{"medium.com", "dev.to", "hashnode.dev"}

// Result is a provider response: an optional synthesized answer plus raw
// web hits.
type Result struct {
	Answer string
	Hits   []model.SearchHit
}

// Searcher queries a web search or answer API for tools matching a need.
type Searcher interface {
	// Name returns the provider identifier (e.g., "tavily").
	Name() string

	// Search asks for up to limit tools for query.
	Search(ctx context.Context, query string, limit int) (*Result, error)
}

// EnhancedPrompt wraps a user query in instructions asking for one labeled
// block per tool, the format ParseAnswer reads.
func EnhancedPrompt(query string, n int) string {
	if n <= 0 {
		n = 6
	}
	return fmt.Sprintf(`List exactly %d specific, currently available AI software tools (not articles, not blogs, not listicles) for the following need: %q. For each tool, provide:
1. Exact tool name (no extra text).
2. One-sentence description of its main function.
3. Pricing model (Free, Freemium, Paid, Subscription, Enterprise).
4. Direct homepage URL (not a blog, not a review, not a listicle).
5. Pricing page URL if available.
Return ONLY actual software tools. Format each tool as:
Name: <tool name>
Description: <one sentence>
Pricing: <pricing model>
URL: <homepage URL>
Pricing URL: <pricing page URL>`, n, query)
}

// Registry holds the configured searchers by name.
type Registry struct {
	mu        sync.RWMutex
	searchers map[string]Searcher
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		searchers: make(map[string]Searcher),
	}
}

// Register adds a searcher to the registry.
func (r *Registry) Register(s Searcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.searchers[s.Name()] = s
}

// Get returns a searcher by name, or nil if not found.
func (r *Registry) Get(name string) Searcher {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.searchers[name]
}

// List returns all registered searcher names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.searchers))
	for name := range r.searchers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select returns the named searcher. "auto" or "" picks the first
// registered searcher in Preference order. The boolean is false when no
// matching searcher is registered, which callers treat as dev mode.
func (r *Registry) Select(name string) (Searcher, bool) {
	if name != "" && name != NameAuto {
		s := r.Get(name)
		return s, s != nil
	}
	for _, n := range Preference {
		if s := r.Get(n); s != nil {
			return s, true
		}
	}
	return nil, false
}
