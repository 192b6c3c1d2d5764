package maintenance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/probeworks/vigil/internal/domain/health"
	"github.com/probeworks/vigil/internal/domain/sla"
	slasvc "github.com/probeworks/vigil/internal/services/sla"
)

type fakeLogs struct {
	health.LogRepo
	cutoff  time.Time
	deleted int64
	delErr  error
	rows    []*health.LogEntry
}

func (f *fakeLogs) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.deleted, f.delErr
}

func (f *fakeLogs) ListRange(ctx context.Context, from, to time.Time) ([]*health.LogEntry, error) {
	return f.rows, nil
}

type fakeReports struct {
	sla.ReportRepo
	upserts []*sla.Report
}

func (f *fakeReports) Upsert(ctx context.Context, rep *sla.Report) error {
	f.upserts = append(f.upserts, rep)
	return nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newRunner(logs *fakeLogs, reports *fakeReports, now time.Time) *Runner {
	clock := fixedClock{t: now}
	gen := slasvc.NewGenerator(zap.NewNop(), logs, reports, clock)
	return New(zap.NewNop(), logs, gen, clock, 30*24*time.Hour)
}

func TestRunRetention_UsesRetentionCutoff(t *testing.T) {
	now := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	logs := &fakeLogs{deleted: 42}
	r := newRunner(logs, &fakeReports{}, now)

	r.runRetention(context.Background())

	require.Equal(t, now.Add(-30*24*time.Hour), logs.cutoff)
}

func TestRunRetention_FailureIsSwallowed(t *testing.T) {
	logs := &fakeLogs{delErr: errors.New("relation locked")}
	r := newRunner(logs, &fakeReports{}, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC))

	// must not panic or abort the loop
	r.runRetention(context.Background())
}

func TestRunSla_ReportsThePreviousMonth(t *testing.T) {
	now := time.Date(2026, 3, 1, 1, 0, 0, 0, time.UTC)
	reports := &fakeReports{}
	r := newRunner(&fakeLogs{}, reports, now)

	r.runSla(context.Background())

	require.Len(t, reports.upserts, 1)
	require.Equal(t, 2026, reports.upserts[0].Year)
	require.Equal(t, time.February, reports.upserts[0].Month)
}

func TestRunSla_JanuaryWrapsToDecember(t *testing.T) {
	now := time.Date(2027, 1, 1, 1, 0, 0, 0, time.UTC)
	reports := &fakeReports{}
	r := newRunner(&fakeLogs{}, reports, now)

	r.runSla(context.Background())

	require.Len(t, reports.upserts, 1)
	require.Equal(t, 2026, reports.upserts[0].Year)
	require.Equal(t, time.December, reports.upserts[0].Month)
}
