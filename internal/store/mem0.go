package store

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/toolscout/internal/model"
	"github.com/sells-group/toolscout/pkg/mem0"
)

// Mem0 categories. Every memory carries the search category plus a
// per-query category derived from the query slug.
const (
	CategorySearch      = "ai-tools-search"
	categoryQueryPrefix = "query-"

	// recentScanSize bounds how many memories Recent inspects.
	recentScanSize = 100
)

// QueryCategory returns the per-query Mem0 category for query.
func QueryCategory(query string) string {
	return categoryQueryPrefix + model.QuerySlug(query)
}

// Mem0Store implements Store on the Mem0 hosted memory API. Each saved
// query is one memory whose content is the JSON-encoded model.Memory.
type Mem0Store struct {
	client mem0.Client
	userID string
	now    clock
}

// NewMem0 creates a Mem0-backed store. userID scopes memories when set.
func NewMem0(client mem0.Client, userID string) *Mem0Store {
	return &Mem0Store{client: client, userID: userID, now: utcNow}
}

func (s *Mem0Store) Migrate(context.Context) error { return nil }

func (s *Mem0Store) Close() error { return nil }

func (s *Mem0Store) Save(ctx context.Context, query string, tools []model.Tool) error {
	query = strings.TrimSpace(query)
	mem := model.Memory{
		Query:     query,
		Tools:     tools,
		Timestamp: s.now(),
	}
	content, err := json.Marshal(mem)
	if err != nil {
		return eris.Wrap(err, "mem0 store: marshal memory")
	}

	infer := false
	err = s.client.Add(ctx, mem0.AddRequest{
		Messages:   []mem0.Message{{Role: "user", Content: string(content)}},
		Categories: []string{CategorySearch, QueryCategory(query)},
		Metadata: map[string]any{
			"query":     query,
			"timestamp": mem.Timestamp,
			"tools":     len(tools),
		},
		UserID: s.userID,
		Infer:  &infer,
	})
	if err != nil {
		return eris.Wrap(err, "mem0 store: save")
	}
	return nil
}

func (s *Mem0Store) Recent(ctx context.Context, limit int) ([]string, error) {
	items, err := s.client.Search(ctx, mem0.SearchRequest{
		Query:   CategorySearch,
		Filters: mem0.CategoriesIn(CategorySearch),
		TopK:    recentScanSize,
	})
	if err != nil {
		return nil, eris.Wrap(err, "mem0 store: recent")
	}

	memories := newestFirst(decodeMemories(items))

	limit = recentLimit(limit)
	seen := make(map[string]bool, limit)
	out := make([]string, 0, limit)
	for _, m := range memories {
		key := model.NormalizeQuery(m.Query)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m.Query)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *Mem0Store) Lookup(ctx context.Context, query string) ([]model.Tool, error) {
	items, err := s.client.Search(ctx, mem0.SearchRequest{
		Query:   query,
		Filters: mem0.CategoriesIn(CategorySearch, QueryCategory(query)),
	})
	if err != nil {
		return nil, eris.Wrap(err, "mem0 store: lookup")
	}

	want := model.NormalizeQuery(query)
	for _, m := range newestFirst(decodeMemories(items)) {
		if model.NormalizeQuery(m.Query) == want {
			return m.Tools, nil
		}
	}
	return nil, nil
}

// decodeMemories parses the stored JSON of each item, skipping items that
// were not written by this store.
func decodeMemories(items []mem0.Item) []model.Memory {
	out := make([]model.Memory, 0, len(items))
	for _, it := range items {
		content := it.Content()
		if content == "" {
			continue
		}
		var m model.Memory
		if err := json.Unmarshal([]byte(content), &m); err != nil {
			zap.L().Debug("mem0 store: skipping unparsable memory", zap.String("id", it.ID), zap.Error(err))
			continue
		}
		out = append(out, m)
	}
	return out
}

// newestFirst reorders memories by timestamp, discarding Mem0's relevance
// order.
func newestFirst(memories []model.Memory) []model.Memory {
	sort.SliceStable(memories, func(i, j int) bool {
		return memories[i].Timestamp.After(memories[j].Timestamp)
	})
	return memories
}

var _ Store = (*Mem0Store)(nil)
