package monitor

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/probeworks/vigil/internal/domain/health"
	"github.com/probeworks/vigil/internal/obs"
	"github.com/probeworks/vigil/internal/obs/retry"
)

type ProbeRunner interface {
	Run(ctx context.Context) []health.CheckResult
}

type CycleStore interface {
	PersistResults(ctx context.Context, results []health.CheckResult, at time.Time) error
}

type Alerter interface {
	Process(ctx context.Context, results []health.CheckResult)
}

// Usecase drives one monitoring cycle: run the whole probe set under the
// retry policy, persist the final attempt's results, then evaluate alerts.
// Intermediate failed attempts are neither persisted nor alerted on.
type Usecase struct {
	Log    *zap.Logger
	Probes ProbeRunner
	Store  CycleStore
	Alerts Alerter
	Clock  health.Clock

	Attempts int
	Delay    time.Duration
}

type degradedError struct {
	failures int
}

func (e *degradedError) Error() string {
	return fmt.Sprintf("%d probe(s) degraded", e.failures)
}

func (u *Usecase) Cycle(ctx context.Context) ([]health.CheckResult, error) {
	tr := otel.Tracer("monitor.uc")
	ctxCycle, span := tr.Start(ctx, "monitor.cycle",
		trace.WithAttributes(attribute.Int("retry.attempts", u.Attempts)),
	)
	defer span.End()

	log := obs.WithTrace(ctxCycle, u.Log)

	results := u.runWithRetries(ctxCycle)
	span.SetAttributes(
		attribute.Int("results.total", len(results)),
		attribute.Int("results.failed", countFailures(results)),
	)

	// Results must be durable before any alert fires on them; otherwise the
	// SLA log and the alert history could disagree.
	if err := u.Store.PersistResults(ctxCycle, results, u.Clock.Now()); err != nil {
		span.RecordError(err)
		log.Error("persist cycle results", zap.Error(err))
		return results, fmt.Errorf("persist results: %w", err)
	}

	u.Alerts.Process(ctxCycle, results)
	return results, nil
}

// runWithRetries re-runs the ENTIRE probe set while any probe is degraded,
// up to the attempt ceiling, and keeps only the last attempt's results.
func (u *Usecase) runWithRetries(ctx context.Context) []health.CheckResult {
	var last []health.CheckResult
	_ = retry.Do(ctx, func() error {
		last = u.Probes.Run(ctx)
		if n := countFailures(last); n > 0 {
			return &degradedError{failures: n}
		}
		return nil
	}, retry.CyclePolicy(u.Attempts, u.Delay, u.Log))
	return last
}

func countFailures(results []health.CheckResult) int {
	n := 0
	for _, r := range results {
		if !r.Status.IsHealthy() {
			n++
		}
	}
	return n
}
