package semantic

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/glucolog/mealmatch/engine/domain"
)

// Embedder turns text into a vector. Implemented by pkg/ollama.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// DefaultMinScore is the cosine similarity floor below which a neighbour is
// too far to be worth scoring lexically.
const DefaultMinScore = 0.55

// Searcher adapts the vector store to the retrieval interface the resolver
// consumes: embed the query, then k-NN over stored foods.
type Searcher struct {
	store    *VectorStore
	embed    Embedder
	minScore float32
	logger   *slog.Logger
}

// NewSearcher wires an embedder to a vector store. minScore <= 0 uses
// DefaultMinScore.
func NewSearcher(store *VectorStore, embed Embedder, minScore float32, logger *slog.Logger) *Searcher {
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{store: store, embed: embed, minScore: minScore, logger: logger}
}

// Search embeds the query and returns nearby foods, nearest first.
func (s *Searcher) Search(ctx context.Context, query string, excludeIDs []string, limit int) ([]domain.NormalizedFood, error) {
	if limit <= 0 {
		limit = 15
	}
	vec, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("semantic: embed %q: %w", query, err)
	}

	// Over-fetch a little so exclusions and the score floor don't starve
	// the candidate list.
	hits, err := s.store.Query(ctx, vec, limit+len(excludeIDs))
	if err != nil {
		return nil, err
	}

	skip := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		skip[id] = struct{}{}
	}

	foods := make([]domain.NormalizedFood, 0, len(hits))
	for _, h := range hits {
		if h.Score < s.minScore {
			continue
		}
		if _, ok := skip[h.Food.ExternalID]; ok {
			continue
		}
		foods = append(foods, h.Food)
		if len(foods) == limit {
			break
		}
	}
	s.logger.Debug("semantic search", "query", query, "hits", len(hits), "kept", len(foods))
	return foods, nil
}
