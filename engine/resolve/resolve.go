// Package resolve turns parsed or vision-detected meal items into concrete,
// catalog-backed nutrition records, or safe manual-entry placeholders when
// no candidate is trustworthy. It owns the decision policy, the match cache,
// and the bounded worker pipeline.
package resolve

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/glucolog/mealmatch/engine/domain"
	"github.com/glucolog/mealmatch/engine/parse"
	"github.com/glucolog/mealmatch/engine/score"
)

// DefaultConcurrency is the worker pool ceiling. The effective pool is
// min(Concurrency, itemCount).
const DefaultConcurrency = 4

// Searcher abstracts the external food search backend. Implementations make
// no ordering promise; ranking is entirely the engine's job. A Searcher must
// be safe for concurrent use up to the pipeline's concurrency ceiling.
type Searcher interface {
	Search(ctx context.Context, query string, excludeIDs []string, limit int) ([]domain.NormalizedFood, error)
}

// Options configures the resolution engine. The numeric defaults are hand
// tuned; none of them have been empirically validated.
type Options struct {
	MaxCandidates       int     // per-query retrieval cap
	MinTextScore        float64 // acceptance floor for text relevance
	MacroDistanceMargin float64 // how decisively macro distance must win
	Concurrency         int     // worker pool size
	CacheSize           int     // LRU entry bound
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		MaxCandidates:       15,
		MinTextScore:        score.MinTextScore,
		MacroDistanceMargin: 0.15,
		Concurrency:         DefaultConcurrency,
		CacheSize:           DefaultCacheSize,
	}
}

// Service is the meal item resolution engine.
type Service struct {
	search Searcher
	cache  *MatchCache
	opts   Options
	logger *slog.Logger
	tracer trace.Tracer
}

// New creates a Service. A nil logger falls back to slog.Default().
func New(search Searcher, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = 15
	}
	if opts.MinTextScore <= 0 {
		opts.MinTextScore = score.MinTextScore
	}
	if opts.MacroDistanceMargin <= 0 {
		opts.MacroDistanceMargin = 0.15
	}
	return &Service{
		search: search,
		cache:  NewMatchCache(opts.CacheSize),
		opts:   opts,
		logger: logger,
		tracer: otel.Tracer("mealmatch/resolve"),
	}
}

// ResolveFromText resolves a freeform meal description. It fails only when
// nothing can be parsed from the input; every downstream failure degrades to
// a per-item manual placeholder.
func (s *Service) ResolveFromText(ctx context.Context, description string) ([]domain.SelectedMealItem, error) {
	parsed, err := parse.Parse(description)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "resolve.from_text",
		trace.WithAttributes(attribute.Int("items", len(parsed))))
	defer span.End()

	reqs := make([]request, len(parsed))
	for i, p := range parsed {
		reqs[i] = request{
			query:    p.Name,
			quantity: p.Quantity,
			unit:     p.Unit,
			raw:      p.Raw,
			cacheKey: TextKey(p.Name),
		}
	}
	return s.finish(s.runPipeline(ctx, reqs)), nil
}

// ResolveFromAnalyzed resolves vision-service detections. Empty input yields
// empty output; the batch never errors.
func (s *Service) ResolveFromAnalyzed(ctx context.Context, items []domain.AnalyzedItem) ([]domain.SelectedMealItem, error) {
	if len(items) == 0 {
		return []domain.SelectedMealItem{}, nil
	}

	ctx, span := s.tracer.Start(ctx, "resolve.from_analyzed",
		trace.WithAttributes(attribute.Int("items", len(items))))
	defer span.End()

	reqs := make([]request, len(items))
	for i, raw := range items {
		item := domain.SanitizeAnalyzed(raw)
		est := item
		reqs[i] = request{
			query:    item.DisplayName,
			quantity: item.Quantity,
			unit:     item.Unit,
			raw:      item.DisplayName,
			estimate: &est,
			cacheKey: PhotoKey(item.DisplayName),
		}
	}
	return s.finish(s.runPipeline(ctx, reqs)), nil
}

// resolveOne runs the full per-item pipeline: cache probe, retrieval,
// ranking, decision, cache write. This is the worker body; any failure here
// is isolated to this item.
func (s *Service) resolveOne(ctx context.Context, req request) decision {
	if req.query == "" {
		return decision{item: s.fallback(req), reason: domain.NewResolutionError(req.raw, domain.ErrNoCandidates)}
	}

	if food, ok := s.cache.Get(req.cacheKey); ok {
		return decision{
			item: domain.SelectedMealItem{
				NormalizedFood: food,
				Quantity:       req.quantity,
				Source:         domain.SourceMatched,
				OriginalText:   req.raw,
			},
			matched: true,
		}
	}

	// Cancellation degrades to fallback, keeping partial results usable.
	if ctx.Err() != nil {
		return decision{item: s.fallback(req), reason: ctx.Err()}
	}

	foods, err := s.search.Search(ctx, req.query, nil, s.opts.MaxCandidates)
	if err != nil {
		s.logger.Warn("candidate retrieval failed, falling back to manual entry",
			"query", req.query, "err", err)
		return decision{item: s.fallback(req), reason: err}
	}

	for i, f := range foods {
		foods[i] = domain.SanitizeFood(f)
	}

	d := s.decide(req, score.Rank(foods, req.query))
	if d.matched {
		s.cache.Set(req.cacheKey, d.item.NormalizedFood)
	} else if d.reason != nil && !isPolicyOutcome(d.reason) {
		s.logger.Warn("item degraded to manual entry", "query", req.query, "reason", d.reason)
	}
	return d
}

// finish strips the internal decision wrapper and logs a batch summary.
func (s *Service) finish(decisions []decision) []domain.SelectedMealItem {
	out := make([]domain.SelectedMealItem, len(decisions))
	matched := 0
	for i, d := range decisions {
		out[i] = d.item
		if d.matched {
			matched++
		}
	}
	s.logger.Info("meal resolution complete",
		"items", len(out), "matched", matched, "fallback", len(out)-matched)
	return out
}

// isPolicyOutcome distinguishes normal decision-policy fallbacks from actual
// failures worth a warning.
func isPolicyOutcome(err error) bool {
	return errors.Is(err, domain.ErrNoCandidates) ||
		errors.Is(err, domain.ErrLowTextScore) ||
		errors.Is(err, domain.ErrSparseMacros) ||
		errors.Is(err, domain.ErrUnitMismatch)
}
