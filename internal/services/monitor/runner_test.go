package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/probeworks/vigil/internal/domain/health"
)

func TestTick_SkipsWhileCycleInFlight(t *testing.T) {
	runner := &scriptedRunner{script: [][]health.CheckResult{{ok("a")}}}
	store := &recordingStore{}
	alerter := &recordingAlerter{}

	r := New(zap.NewNop(), newUsecase(runner, store, alerter), time.Minute)

	r.inFlight.Store(true)
	r.tick(context.Background())
	require.Equal(t, 0, runner.calls, "tick must not start a cycle while one is in flight")

	r.inFlight.Store(false)
	r.tick(context.Background())
	require.Equal(t, 1, runner.calls)
	require.False(t, r.inFlight.Load(), "guard must clear after the cycle settles")
}
