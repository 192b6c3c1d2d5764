package probes

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/probeworks/vigil/internal/domain/health"
)

// Runner executes the registered probe set concurrently and waits for every
// probe to settle. One slow or misbehaving probe never blocks or poisons the
// others; a probe that panics is converted into a synthetic CRITICAL result.
// Results come back flattened in registration order.
type Runner struct {
	log    *zap.Logger
	probes []Probe
}

func NewRunner(log *zap.Logger, probes ...Probe) *Runner {
	return &Runner{
		log:    log.With(zap.String("component", "probes.runner")),
		probes: probes,
	}
}

func (r *Runner) Probes() int { return len(r.probes) }

func (r *Runner) Run(ctx context.Context) []health.CheckResult {
	buckets := make([][]health.CheckResult, len(r.probes))

	var wg sync.WaitGroup
	for i, p := range r.probes {
		wg.Add(1)
		go func(i int, p Probe) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					r.log.Error("probe panicked",
						zap.String("service", p.Service()),
						zap.Any("panic", rec),
					)
					buckets[i] = []health.CheckResult{{
						Service:      p.Service(),
						Category:     p.Category(),
						Status:       health.StatusCritical,
						ErrorMessage: fmt.Sprintf("probe panic: %v", rec),
					}}
				}
			}()
			buckets[i] = p.Check(ctx)
		}(i, p)
	}
	wg.Wait()

	var out []health.CheckResult
	for _, b := range buckets {
		out = append(out, b...)
	}
	return out
}

// forEach runs fn for every index concurrently and waits for all of them.
func forEach(n int, fn func(i int)) {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fn(i)
		}(i)
	}
	wg.Wait()
}
