package improvement

import (
	"github.com/sourcegraph/conc/pool"
)

// evaluateAll scores every candidate that has no cached fitness and returns those it
// evaluated, in population order. With more than one worker the evaluations run on a
// bounded goroutine pool; each goroutine writes only to its own candidate and the call
// returns once all of them have finished. ev must be safe for concurrent use and
// observed is shared read-only.
func evaluateAll(candidates []*Candidate, ev Evaluator, observed []float64, workers int) []*Candidate {
	pending := make([]*Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := c.Fitness(); !ok {
			pending = append(pending, c)
		}
	}

	if workers <= 1 || len(pending) <= 1 {
		for _, c := range pending {
			c.Evaluate(ev, observed)
		}
		return pending
	}

	p := pool.New().WithMaxGoroutines(workers)
	for _, c := range pending {
		p.Go(func() {
			c.Evaluate(ev, observed)
		})
	}
	p.Wait()

	return pending
}
