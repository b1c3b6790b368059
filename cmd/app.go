package main

import (
	"context"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rotisserie/eris"
	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"

	"github.com/sells-group/toolscout/internal/cache"
	"github.com/sells-group/toolscout/internal/catalog"
	"github.com/sells-group/toolscout/internal/config"
	"github.com/sells-group/toolscout/internal/model"
	"github.com/sells-group/toolscout/internal/provider"
	"github.com/sells-group/toolscout/internal/resolver"
	"github.com/sells-group/toolscout/internal/store"
	"github.com/sells-group/toolscout/internal/telemetry"
	"github.com/sells-group/toolscout/pkg/anthropic"
	"github.com/sells-group/toolscout/pkg/jina"
	"github.com/sells-group/toolscout/pkg/mem0"
	"github.com/sells-group/toolscout/pkg/perplexity"
	"github.com/sells-group/toolscout/pkg/tavily"
)

// recentScan bounds how many stored queries a fuzzy filter looks through.
const recentScan = 100

// appEnv holds the resolver, memory store and metrics registry shared by
// the search, recent, recall and serve commands.
type appEnv struct {
	Resolver *resolver.Resolver
	Store    store.Store
	Registry *prometheus.Registry
	// Cache is the resolver's response cache, reported by /health.
	Cache   *cache.Memory
	Timeout time.Duration
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store == nil {
		return
	}
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("close memory store", zap.Error(err))
	}
}

// initApp validates c and builds the searchers, catalog, cache, metrics,
// resolver and memory store. Callers should defer env.Close().
func initApp(ctx context.Context, c *config.Config) (*appEnv, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	cat, err := catalog.LoadFile(c.Catalog.Path)
	if err != nil {
		return nil, eris.Wrap(err, "load catalog")
	}

	searcher, err := selectSearcher(buildSearchers(c), c.Search.Provider)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mc := cache.NewMemory(c.Search.CacheTTL(), cache.WithMaxEntries(c.Search.CacheMaxEntries))
	res := resolver.New(resolverConfig(c.Search), searcher, cat, mc, telemetry.NewPrometheusMetrics(reg))

	st, err := initStore(ctx, c)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("toolscout initialized",
		zap.String("provider", res.ProviderName()),
		zap.String("store", c.Store.Driver),
		zap.Int("curated", len(cat.Curated)),
	)

	return &appEnv{
		Resolver: res,
		Store:    st,
		Registry: reg,
		Cache:    mc,
		Timeout:  c.Search.Timeout(),
	}, nil
}

func resolverConfig(s config.SearchConfig) resolver.Config {
	return resolver.Config{
		MinResults:          s.MinResults,
		MaxResults:          s.MaxResults,
		Mode:                model.ParseMode(s.Mode),
		FallbackTrigger:     s.FallbackTrigger,
		DescriptionLimit:    s.DescriptionLimit,
		FailOnProviderError: s.FailOnProviderError,
		BackfillEmpty:       s.BackfillEmpty,
	}
}

// buildSearchers registers a provider for every configured API key. With
// an Anthropic key, Jina's hits are condensed into an answer.
func buildSearchers(c *config.Config) *provider.Registry {
	reg := provider.NewRegistry()

	if c.Tavily.Key != "" {
		reg.Register(provider.NewTavily(tavily.NewClient(c.Tavily.Key,
			tavily.WithBaseURL(c.Tavily.BaseURL),
			tavily.WithSearchDepth(c.Tavily.SearchDepth),
			tavily.WithMaxResults(c.Tavily.MaxResults),
			tavily.WithRateLimit(c.Tavily.RatePerSec),
		)))
	}
	if c.Perplexity.Key != "" {
		reg.Register(provider.NewPerplexity(perplexity.NewClient(c.Perplexity.Key,
			perplexity.WithBaseURL(c.Perplexity.BaseURL),
			perplexity.WithModel(c.Perplexity.Model),
		)))
	}
	if c.Jina.Key != "" {
		var opts []jina.Option
		if c.Jina.SearchBaseURL != "" {
			opts = append(opts, jina.WithBaseURL(c.Jina.SearchBaseURL))
		}
		var s provider.Searcher = provider.NewJina(jina.NewClient(c.Jina.Key, opts...))
		if c.Anthropic.Key != "" {
			s = provider.NewSynthesizer(s,
				anthropic.NewClient(c.Anthropic.Key, anthropic.WithBaseURL(c.Anthropic.BaseURL)),
				c.Anthropic.Model,
				c.Anthropic.MaxTokens,
			)
		}
		reg.Register(s)
	}

	return reg
}

// selectSearcher picks the configured provider. With "auto" and no keys it
// returns nil, which puts the resolver in dev mode.
func selectSearcher(reg *provider.Registry, name string) (provider.Searcher, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	s, ok := reg.Select(name)
	if ok {
		zap.L().Info("search provider selected", zap.String("provider", s.Name()))
		return s, nil
	}
	if name != "" && name != provider.NameAuto {
		return nil, eris.Errorf("search provider %q selected but its api key is not set", name)
	}
	zap.L().Warn("no search provider api key set, serving curated and default tools only")
	return nil, nil
}

func initStore(ctx context.Context, c *config.Config) (store.Store, error) {
	driver := strings.ToLower(c.Store.Driver)
	opts := store.Options{
		Driver:      driver,
		DatabaseURL: c.Store.DatabaseURL,
		UserID:      c.Mem0.UserID,
	}
	if driver == store.DriverMem0 {
		opts.Mem0 = mem0.NewClient(c.Mem0.Key, mem0.WithBaseURL(c.Mem0.BaseURL))
	}

	st, err := store.Open(ctx, opts)
	if err != nil {
		return nil, eris.Wrap(err, "init memory store")
	}
	return st, nil
}

func (e *appEnv) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.Timeout)
}

// search resolves query and, when remember is set, records the result.
func (e *appEnv) search(ctx context.Context, query string, remember bool, opts ...resolver.Option) ([]model.Tool, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	tools, err := e.Resolver.Resolve(ctx, query, opts...)
	if err != nil {
		return nil, err
	}
	if remember {
		e.remember(ctx, query, tools)
	}
	return tools, nil
}

// remember saves a resolution. Failures are logged and never fail the
// search.
func (e *appEnv) remember(ctx context.Context, query string, tools []model.Tool) {
	if e.Store == nil || len(tools) == 0 {
		return
	}
	if err := e.Store.Save(ctx, strings.TrimSpace(query), tools); err != nil {
		zap.L().Warn("memory save failed", zap.String("query", query), zap.Error(err))
	}
}

// recall returns the remembered tools for query, resolving (and
// remembering) on a miss. The bool reports whether memory answered.
func (e *appEnv) recall(ctx context.Context, query string) ([]model.Tool, bool, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, false, resolver.ErrInvalidQuery
	}

	if e.Store != nil {
		tools, err := e.Store.Lookup(ctx, query)
		if err != nil {
			zap.L().Warn("memory lookup failed", zap.String("query", query), zap.Error(err))
		}
		if len(tools) > 0 {
			return tools, true, nil
		}
	}

	tools, err := e.search(ctx, query, true)
	return tools, false, err
}

// recent returns up to limit remembered queries, most recent first. A
// non-empty filter fuzzy-matches the queries and orders them by score.
func (e *appEnv) recent(ctx context.Context, limit int, filter string) ([]string, error) {
	if e.Store == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = store.DefaultRecentLimit
	}

	filter = strings.TrimSpace(filter)
	scan := limit
	if filter != "" {
		scan = recentScan
	}

	queries, err := e.Store.Recent(ctx, scan)
	if err != nil {
		return nil, eris.Wrap(err, "load recent searches")
	}
	if filter == "" {
		return queries, nil
	}
	return filterQueries(queries, filter, limit), nil
}

func filterQueries(queries []string, pattern string, limit int) []string {
	matches := fuzzy.Find(pattern, queries)
	out := make([]string, 0, min(len(matches), limit))
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, m.Str)
	}
	return out
}
