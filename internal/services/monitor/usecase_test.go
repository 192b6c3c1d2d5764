package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/probeworks/vigil/internal/domain/health"
)

type scriptedRunner struct {
	script [][]health.CheckResult
	calls  int
}

func (r *scriptedRunner) Run(ctx context.Context) []health.CheckResult {
	i := r.calls
	if i >= len(r.script) {
		i = len(r.script) - 1
	}
	r.calls++
	return r.script[i]
}

type recordingStore struct {
	calls   int
	results []health.CheckResult
	at      time.Time
	err     error
}

func (s *recordingStore) PersistResults(ctx context.Context, results []health.CheckResult, at time.Time) error {
	s.calls++
	s.results = results
	s.at = at
	return s.err
}

type recordingAlerter struct {
	calls   int
	results []health.CheckResult
}

func (a *recordingAlerter) Process(ctx context.Context, results []health.CheckResult) {
	a.calls++
	a.results = results
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func ok(svc string) health.CheckResult {
	return health.CheckResult{Service: svc, Category: health.CategoryAPI, Status: health.StatusOK}
}

func critical(svc string) health.CheckResult {
	return health.CheckResult{Service: svc, Category: health.CategoryDatabase, Status: health.StatusCritical}
}

func newUsecase(r ProbeRunner, s CycleStore, a Alerter) *Usecase {
	return &Usecase{
		Log:      zap.NewNop(),
		Probes:   r,
		Store:    s,
		Alerts:   a,
		Clock:    fixedClock{t: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)},
		Attempts: 3,
		Delay:    time.Millisecond,
	}
}

func TestCycle_HealthySetRunsOnce(t *testing.T) {
	runner := &scriptedRunner{script: [][]health.CheckResult{{ok("a"), ok("b")}}}
	store := &recordingStore{}
	alerter := &recordingAlerter{}

	results, err := newUsecase(runner, store, alerter).Cycle(context.Background())

	require.NoError(t, err)
	require.Equal(t, 1, runner.calls)
	require.Len(t, results, 2)
	require.Equal(t, 1, store.calls)
	require.Equal(t, 1, alerter.calls)
}

func TestCycle_TransientFailureClearsOnRetry(t *testing.T) {
	runner := &scriptedRunner{script: [][]health.CheckResult{
		{critical("db"), ok("api")},
		{critical("db"), ok("api")},
		{ok("db"), ok("api")},
	}}
	store := &recordingStore{}
	alerter := &recordingAlerter{}

	results, err := newUsecase(runner, store, alerter).Cycle(context.Background())

	require.NoError(t, err)
	require.Equal(t, 3, runner.calls)

	// only the final, healthy attempt survives
	require.Equal(t, health.StatusOK, results[0].Status)
	require.Equal(t, 1, store.calls, "intermediate attempts must not be persisted")
	require.Equal(t, results, store.results)
	require.Equal(t, 1, alerter.calls)
}

func TestCycle_ExhaustedRetriesKeepLastAttempt(t *testing.T) {
	runner := &scriptedRunner{script: [][]health.CheckResult{
		{critical("db")},
	}}
	store := &recordingStore{}
	alerter := &recordingAlerter{}

	results, err := newUsecase(runner, store, alerter).Cycle(context.Background())

	require.NoError(t, err)
	require.Equal(t, 3, runner.calls, "whole set retried up to the attempt ceiling")
	require.Len(t, results, 1)
	require.Equal(t, health.StatusCritical, results[0].Status)

	// one persisted batch, one alert evaluation, despite three attempts
	require.Equal(t, 1, store.calls)
	require.Equal(t, 1, alerter.calls)
	require.Equal(t, results, alerter.results)
	require.Equal(t, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC), store.at)
}

func TestCycle_PersistFailureSkipsAlerts(t *testing.T) {
	runner := &scriptedRunner{script: [][]health.CheckResult{{critical("db")}}}
	store := &recordingStore{err: errors.New("connection reset")}
	alerter := &recordingAlerter{}

	results, err := newUsecase(runner, store, alerter).Cycle(context.Background())

	require.Error(t, err)
	require.Contains(t, err.Error(), "persist results")
	require.Len(t, results, 1)
	require.Equal(t, 0, alerter.calls, "alerts must not fire on unpersisted results")
}

func TestCountFailures(t *testing.T) {
	results := []health.CheckResult{
		ok("a"),
		{Service: "b", Status: health.StatusWarning},
		critical("c"),
	}
	require.Equal(t, 2, countFailures(results))
	require.Equal(t, 0, countFailures(nil))
}
