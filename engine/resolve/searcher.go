package resolve

import (
	"context"
	"log/slog"

	"github.com/glucolog/mealmatch/engine/domain"
)

// MultiSearcher chains Searchers in priority order: the first backend that
// yields any candidate wins. A backend error is logged and skipped so a dead
// remote provider cannot mask a healthy local catalog; the error is returned
// only when every backend failed.
type MultiSearcher struct {
	searchers []Searcher
	logger    *slog.Logger
}

// NewMultiSearcher creates a chained searcher. A nil logger falls back to
// slog.Default().
func NewMultiSearcher(logger *slog.Logger, searchers ...Searcher) *MultiSearcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &MultiSearcher{searchers: searchers, logger: logger}
}

// Search implements Searcher.
func (m *MultiSearcher) Search(ctx context.Context, query string, excludeIDs []string, limit int) ([]domain.NormalizedFood, error) {
	var lastErr error
	failures := 0
	for _, s := range m.searchers {
		foods, err := s.Search(ctx, query, excludeIDs, limit)
		if err != nil {
			m.logger.Warn("search backend failed, trying next", "query", query, "err", err)
			lastErr = err
			failures++
			continue
		}
		if len(foods) > 0 {
			return foods, nil
		}
	}
	if failures == len(m.searchers) && lastErr != nil {
		return nil, lastErr
	}
	return nil, nil
}
