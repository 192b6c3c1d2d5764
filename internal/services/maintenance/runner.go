package maintenance

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/probeworks/vigil/internal/domain/health"
	"github.com/probeworks/vigil/internal/domain/sla"
	slasvc "github.com/probeworks/vigil/internal/services/sla"
)

// Runner owns the two long-period cycles: daily log retention and monthly
// SLA generation. A failing run is logged and the job rescheduled; nothing
// here ever takes the process down.
type Runner struct {
	Log       *zap.Logger
	Logs      health.LogRepo
	Generator *slasvc.Generator
	Clock     health.Clock

	Retention time.Duration
}

var (
	mRetentionRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "maintenance_retention_runs_total", Help: "Retention cleanups executed",
	})
	mDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "maintenance_logs_deleted_total", Help: "Log rows removed by retention",
	})
	mSlaRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "maintenance_sla_runs_total", Help: "Monthly SLA generations executed",
	})
	mMaintErr = promauto.NewCounter(prometheus.CounterOpts{
		Name: "maintenance_errors_total", Help: "Failed maintenance runs",
	})
)

func New(log *zap.Logger, logs health.LogRepo, gen *slasvc.Generator, clock health.Clock, retention time.Duration) *Runner {
	return &Runner{
		Log:       log.With(zap.String("component", "maintenance.runner")),
		Logs:      logs,
		Generator: gen,
		Clock:     clock,
		Retention: retention,
	}
}

// Run blocks until ctx is done, driving both jobs off their own timers.
func (r *Runner) Run(ctx context.Context) error {
	go r.loop(ctx, NextDaily, r.runRetention)
	r.loop(ctx, NextMonthly, r.runSla)
	return ctx.Err()
}

func (r *Runner) loop(ctx context.Context, next func(time.Time) time.Time, job func(context.Context)) {
	for {
		wait := time.Until(next(r.Clock.Now()))
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
			job(ctx)
		}
	}
}

func (r *Runner) runRetention(ctx context.Context) {
	mRetentionRuns.Inc()
	cutoff := r.Clock.Now().Add(-r.Retention)

	deleted, err := r.Logs.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		mMaintErr.Inc()
		r.Log.Warn("retention cleanup failed", zap.Error(err))
		return
	}
	mDeleted.Add(float64(deleted))
	r.Log.Info("retention cleanup done",
		zap.Time("cutoff", cutoff),
		zap.Int64("deleted", deleted),
	)
}

// runSla reports on the month BEFORE the one the timer fired in.
func (r *Runner) runSla(ctx context.Context) {
	mSlaRuns.Inc()
	now := r.Clock.Now()
	year, month := sla.PrevMonth(now.Year(), now.Month())

	if _, err := r.Generator.Generate(ctx, year, month); err != nil {
		mMaintErr.Inc()
		r.Log.Warn("sla generation failed",
			zap.Int("year", year),
			zap.Int("month", int(month)),
			zap.Error(err),
		)
	}
}
