// Package resolver turns a free-text need into a bounded, ranked list of
// tools. It checks the cache and the curated catalog before asking a search
// provider, then extracts, ranks and backfills the provider's response.
package resolver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/toolscout/internal/cache"
	"github.com/sells-group/toolscout/internal/catalog"
	"github.com/sells-group/toolscout/internal/extract"
	"github.com/sells-group/toolscout/internal/model"
	"github.com/sells-group/toolscout/internal/provider"
	"github.com/sells-group/toolscout/internal/rank"
	"github.com/sells-group/toolscout/internal/telemetry"
)

// ErrInvalidQuery is returned for empty or whitespace-only queries.
var ErrInvalidQuery = eris.New("resolver: query is empty")

// Config holds the resolver defaults. Per-call Options override the bounds
// and mode.
type Config struct {
	MinResults int
	MaxResults int
	Mode       model.Mode

	// FallbackTrigger runs the results extractor when the answer yields
	// fewer tools than this. Zero means MaxResults.
	FallbackTrigger int

	// DescriptionLimit truncates descriptions taken from search snippets.
	DescriptionLimit int

	// FailOnProviderError surfaces provider errors instead of returning the
	// fallback list.
	FailOnProviderError bool

	// BackfillEmpty backfills with fallback tools even when nothing was
	// extracted.
	BackfillEmpty bool
}

// DefaultConfig returns the defaults used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		MinResults:       3,
		MaxResults:       5,
		Mode:             model.ModeStrict,
		DescriptionLimit: extract.DefaultDescriptionLimit,
		BackfillEmpty:    true,
	}
}

// Option overrides a resolution setting for a single call.
type Option func(*request)

type request struct {
	min  int
	max  int
	mode model.Mode
}

// WithMinResults sets the backfill target.
func WithMinResults(n int) Option {
	return func(r *request) {
		if n >= 0 {
			r.min = n
		}
	}
}

// WithMaxResults caps the returned list.
func WithMaxResults(n int) Option {
	return func(r *request) {
		if n > 0 {
			r.max = n
		}
	}
}

// WithMode sets the URL and content filtering mode.
func WithMode(m model.Mode) Option {
	return func(r *request) {
		if m.Valid() {
			r.mode = m
		}
	}
}

// Resolver resolves queries to tools. It is safe for concurrent use.
type Resolver struct {
	cfg      Config
	searcher provider.Searcher
	catalog  *catalog.Catalog
	cache    cache.Cache
	metrics  telemetry.Metrics
	group    singleflight.Group
}

// New creates a Resolver. A nil searcher puts the resolver in dev mode,
// where the catalog defaults are returned for every uncurated query. Nil
// cache and metrics are replaced by no-op implementations.
func New(
	cfg Config,
	searcher provider.Searcher,
	cat *catalog.Catalog,
	c cache.Cache,
	metrics telemetry.Metrics,
) *Resolver {
	if cat == nil {
		cat = &catalog.Catalog{}
	}
	if c == nil {
		c = cache.Noop{}
	}
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	if !cfg.Mode.Valid() {
		cfg.Mode = model.ModeStrict
	}
	return &Resolver{
		cfg:      cfg,
		searcher: searcher,
		catalog:  cat,
		cache:    c,
		metrics:  metrics,
	}
}

// ProviderName returns the configured searcher name, or "" in dev mode.
func (r *Resolver) ProviderName() string {
	if r.searcher == nil {
		return ""
	}
	return r.searcher.Name()
}

type resolution struct {
	tools   []model.Tool
	outcome telemetry.Outcome
}

// Resolve returns up to MaxResults tools for query. Identical concurrent
// queries share one resolution. The returned slice is a copy.
func (r *Resolver) Resolve(ctx context.Context, query string, opts ...Option) ([]model.Tool, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrInvalidQuery
	}

	req := r.request(opts)
	key := cacheKey(query, req)
	start := time.Now()

	if tools, ok := r.cache.Get(key); ok {
		r.metrics.ObserveResolve(telemetry.OutcomeCacheHit, time.Since(start), len(tools))
		zap.L().Debug("resolver: cache hit", zap.String("query", query), zap.Int("tools", len(tools)))
		return tools, nil
	}

	v, err, shared := r.group.Do(key, func() (any, error) {
		res, err := r.resolve(ctx, query, key, req)
		outcome := res.outcome
		if err != nil {
			outcome = telemetry.OutcomeFailed
		}
		r.metrics.ObserveResolve(outcome, time.Since(start), len(res.tools))
		return res, err
	})
	if err != nil {
		return nil, err
	}
	if shared {
		zap.L().Debug("resolver: shared in-flight resolution", zap.String("query", query))
	}
	return model.CloneTools(v.(resolution).tools), nil
}

func (r *Resolver) request(opts []Option) request {
	req := request{
		min:  r.cfg.MinResults,
		max:  r.cfg.MaxResults,
		mode: r.cfg.Mode,
	}
	for _, o := range opts {
		o(&req)
	}
	return req
}

// cacheKey keeps differently bounded requests for one query apart.
func cacheKey(query string, req request) string {
	return fmt.Sprintf("%s|%d|%d|%s", model.NormalizeQuery(query), req.min, req.max, req.mode)
}

func (r *Resolver) finalize(tools []model.Tool, req request, backfillEmpty bool) []model.Tool {
	return rank.Finalize(tools, rank.Options{
		MinResults:    req.min,
		MaxResults:    req.max,
		Fallbacks:     r.catalog.Fallbacks,
		BackfillEmpty: backfillEmpty,
	})
}

func (r *Resolver) resolve(ctx context.Context, query, key string, req request) (resolution, error) {
	log := zap.L().With(zap.String("component", "resolver"), zap.String("query", query))

	if curated, ok := r.catalog.Lookup(query); ok {
		tools := r.finalize(curated, req, true)
		r.cache.Set(key, tools)
		log.Info("resolver: curated answer", zap.Int("tools", len(tools)))
		return resolution{tools: tools, outcome: telemetry.OutcomeCurated}, nil
	}

	if r.searcher == nil {
		tools := r.finalize(r.catalog.DefaultTools(), req, true)
		r.cache.Set(key, tools)
		log.Info("resolver: no search provider configured, using defaults", zap.Int("tools", len(tools)))
		return resolution{tools: tools, outcome: telemetry.OutcomeFallback}, nil
	}

	searchStart := time.Now()
	res, err := r.searcher.Search(ctx, query, req.max)
	r.metrics.ObserveProvider(r.searcher.Name(), time.Since(searchStart), err)
	if err != nil {
		if r.cfg.FailOnProviderError {
			return resolution{}, eris.Wrapf(err, "resolver: search %s", r.searcher.Name())
		}
		log.Warn("resolver: provider failed, returning fallback tools",
			zap.String("provider", r.searcher.Name()),
			zap.Error(err),
		)
		// Not cached so the next call retries the provider.
		tools := r.finalize(nil, req, true)
		return resolution{tools: tools, outcome: telemetry.OutcomeFallback}, nil
	}

	extracted := r.extract(res, req)
	tools := r.finalize(extracted, req, r.cfg.BackfillEmpty)
	r.cache.Set(key, tools)

	log.Info("resolver: resolved",
		zap.String("provider", r.searcher.Name()),
		zap.Int("extracted", len(extracted)),
		zap.Int("tools", len(tools)),
	)
	return resolution{tools: tools, outcome: telemetry.OutcomeProvider}, nil
}

// extract parses the provider answer and, when it is short, mines the raw
// hits. A strict pass below MinResults is followed by a relaxed pass over
// the same answer.
func (r *Resolver) extract(res *provider.Result, req request) []model.Tool {
	if res == nil {
		return nil
	}

	tools := extract.ParseAnswer(res.Answer, extract.Options{Mode: req.mode, MaxResults: req.max})
	r.metrics.ObserveExtracted(telemetry.SourceAnswer, len(tools))

	if req.mode == model.ModeStrict && len(tools) < req.min && res.Answer != "" {
		relaxed := extract.ParseAnswer(res.Answer, extract.Options{Mode: model.ModeRelaxed, MaxResults: req.max})
		seen := make(map[string]bool, len(tools))
		for _, t := range tools {
			seen[t.Key()] = true
		}
		added := 0
		for _, t := range relaxed {
			if seen[t.Key()] {
				continue
			}
			seen[t.Key()] = true
			tools = append(tools, t)
			added++
		}
		r.metrics.ObserveExtracted(telemetry.SourceAnswerRelaxed, added)
	}

	trigger := r.cfg.FallbackTrigger
	if trigger <= 0 {
		trigger = req.max
	}
	if len(tools) < trigger {
		more := extract.FromResults(res.Hits, tools, extract.ResultOptions{
			Mode:             req.mode,
			Target:           req.max,
			DescriptionLimit: r.cfg.DescriptionLimit,
		})
		r.metrics.ObserveExtracted(telemetry.SourceResults, len(more))
		tools = append(tools, more...)
	}
	return tools
}
