package resolve

import (
	"context"
	"sync"
	"sync/atomic"
)

// runPipeline fans the requests out over a fixed worker pool. Workers claim
// indices with an atomic fetch-and-add and write into a pre-allocated results
// slice, so output order always matches input order no matter which worker
// finishes when. The pool size, not a queue, is what bounds load on the
// search backend.
func (s *Service) runPipeline(ctx context.Context, reqs []request) []decision {
	out := make([]decision, len(reqs))
	if len(reqs) == 0 {
		return out
	}

	workers := s.opts.Concurrency
	if workers <= 0 {
		workers = DefaultConcurrency
	}
	if workers > len(reqs) {
		workers = len(reqs)
	}

	var cursor atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(cursor.Add(1)) - 1
				if i >= len(reqs) {
					return
				}
				out[i] = s.resolveOne(ctx, reqs[i])
			}
		}()
	}
	wg.Wait()
	return out
}
