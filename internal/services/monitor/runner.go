package monitor

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Runner fires the health cycle on a fixed period, plus once immediately at
// startup. A tick that arrives while the previous cycle is still in flight
// is skipped, not queued; cycles never overlap.
type Runner struct {
	Log      *zap.Logger
	UC       *Usecase
	Interval time.Duration

	inFlight atomic.Bool
}

var (
	mCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "monitor_cycles_total", Help: "Health cycles started",
	})
	mSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "monitor_cycles_skipped_total", Help: "Ticks skipped because a cycle was in flight",
	})
	mResults = promauto.NewCounter(prometheus.CounterOpts{
		Name: "monitor_results_total", Help: "Probe results collected",
	})
	mFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "monitor_failures_total", Help: "Degraded probe results in final attempts",
	})
	mErr = promauto.NewCounter(prometheus.CounterOpts{
		Name: "monitor_cycle_errors_total", Help: "Cycles that failed to complete",
	})
	mCycleDur = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "monitor_cycle_duration_seconds", Help: "Health cycle duration",
		Buckets: prometheus.DefBuckets,
	})
)

func New(log *zap.Logger, uc *Usecase, interval time.Duration) *Runner {
	return &Runner{
		Log:      log.With(zap.String("component", "monitor.runner")),
		UC:       uc,
		Interval: interval,
	}
}

func (r *Runner) tick(ctx context.Context) {
	if !r.inFlight.CompareAndSwap(false, true) {
		mSkipped.Inc()
		r.Log.Warn("previous cycle still running, tick skipped")
		return
	}
	defer r.inFlight.Store(false)

	start := time.Now()
	mCycles.Inc()

	results, err := r.UC.Cycle(ctx)
	if err != nil {
		mErr.Inc()
		r.Log.Warn("cycle incomplete", zap.Error(err))
	}
	mResults.Add(float64(len(results)))
	if n := countFailures(results); n > 0 {
		mFailures.Add(float64(n))
		r.Log.Info("cycle finished with degraded services",
			zap.Int("results", len(results)),
			zap.Int("failed", n),
		)
	} else {
		r.Log.Debug("cycle finished", zap.Int("results", len(results)))
	}
	mCycleDur.Observe(time.Since(start).Seconds())
}

func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	r.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// ticks run detached so a slow cycle delays nothing; the
			// in-flight guard keeps cycles from overlapping
			go r.tick(ctx)
		}
	}
}
