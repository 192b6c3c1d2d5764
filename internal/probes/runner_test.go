package probes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/probeworks/vigil/internal/domain/health"
)

type fakeProbe struct {
	name    string
	results []health.CheckResult
	delay   time.Duration
	panics  bool
	calls   int
}

func (f *fakeProbe) Service() string           { return f.name }
func (f *fakeProbe) Category() health.Category { return health.CategoryAPI }

func (f *fakeProbe) Check(ctx context.Context) []health.CheckResult {
	f.calls++
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.panics {
		panic("boom")
	}
	return f.results
}

func okResult(svc string) health.CheckResult {
	return health.CheckResult{Service: svc, Category: health.CategoryAPI, Status: health.StatusOK}
}

func TestRunner_FlattensInRegistrationOrder(t *testing.T) {
	// the slow probe is registered first; its results must still come first
	slow := &fakeProbe{name: "slow", delay: 50 * time.Millisecond, results: []health.CheckResult{okResult("slow-a"), okResult("slow-b")}}
	fast := &fakeProbe{name: "fast", results: []health.CheckResult{okResult("fast-a")}}

	out := NewRunner(zap.NewNop(), slow, fast).Run(context.Background())

	require.Len(t, out, 3)
	require.Equal(t, "slow-a", out[0].Service)
	require.Equal(t, "slow-b", out[1].Service)
	require.Equal(t, "fast-a", out[2].Service)
}

func TestRunner_PanicBecomesCriticalResult(t *testing.T) {
	bad := &fakeProbe{name: "bad", panics: true}
	good := &fakeProbe{name: "good", results: []health.CheckResult{okResult("good")}}

	out := NewRunner(zap.NewNop(), bad, good).Run(context.Background())

	require.Len(t, out, 2)
	require.Equal(t, "bad", out[0].Service)
	require.Equal(t, health.StatusCritical, out[0].Status)
	require.Equal(t, "probe panic: boom", out[0].ErrorMessage)
	require.Equal(t, health.StatusOK, out[1].Status)
	require.Equal(t, 1, good.calls)
}

func TestRunner_EveryProbeRunsOnce(t *testing.T) {
	probes := make([]Probe, 0, 8)
	fakes := make([]*fakeProbe, 0, 8)
	for i := 0; i < 8; i++ {
		f := &fakeProbe{name: "p", results: []health.CheckResult{okResult("p")}}
		fakes = append(fakes, f)
		probes = append(probes, f)
	}

	r := NewRunner(zap.NewNop(), probes...)
	require.Equal(t, 8, r.Probes())

	out := r.Run(context.Background())
	require.Len(t, out, 8)
	for _, f := range fakes {
		require.Equal(t, 1, f.calls)
	}
}
