package readapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/probeworks/vigil/internal/domain/health"
	"github.com/probeworks/vigil/internal/domain/sla"
)

type fakeLogs struct {
	health.LogRepo
	since   time.Time
	summary *health.Summary

	limit  int
	status *health.Status
	rows   []*health.LogEntry
}

func (f *fakeLogs) Summary(ctx context.Context, since time.Time) (*health.Summary, error) {
	f.since = since
	return f.summary, nil
}

func (f *fakeLogs) Recent(ctx context.Context, limit int, status *health.Status) ([]*health.LogEntry, error) {
	f.limit = limit
	f.status = status
	return f.rows, nil
}

type fakeReports struct {
	sla.ReportRepo
	reports []*sla.Report
}

func (f *fakeReports) List(ctx context.Context, limit int) ([]*sla.Report, error) {
	return f.reports, nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestServer(logs *fakeLogs, reports *fakeReports) *httptest.Server {
	s := New(zap.NewNop(), logs, reports, fixedClock{t: now})
	return httptest.NewServer(s.Handler())
}

func TestSummary_Uses24hWindow(t *testing.T) {
	logs := &fakeLogs{summary: &health.Summary{
		TotalChecks:  288,
		FailedChecks: 3,
		UptimePct:    98.96,
		AvgLatencyMs: 120,
	}}
	srv := newTestServer(logs, &fakeReports{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/summary")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got health.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, int64(288), got.TotalChecks)
	require.Equal(t, 98.96, got.UptimePct)

	require.Equal(t, now.Add(-24*time.Hour), logs.since)
}

func TestLogs_DefaultsAndFilter(t *testing.T) {
	logs := &fakeLogs{rows: []*health.LogEntry{{
		ID: 7,
		CheckResult: health.CheckResult{
			Service:  "db-connection",
			Category: health.CategoryDatabase,
			Status:   health.StatusCritical,
		},
		TestedAt: now,
	}}}
	srv := newTestServer(logs, &fakeReports{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/logs")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 50, logs.limit)
	require.Nil(t, logs.status)

	resp, err = http.Get(srv.URL + "/api/v1/logs?limit=10&status=CRITICAL")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 10, logs.limit)
	require.NotNil(t, logs.status)
	require.Equal(t, health.StatusCritical, *logs.status)

	var rows []*health.LogEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	require.Len(t, rows, 1)
	require.Equal(t, "db-connection", rows[0].Service)
}

func TestLogs_UnknownStatusIsBadRequest(t *testing.T) {
	srv := newTestServer(&fakeLogs{}, &fakeReports{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/logs?status=bogus")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogs_OverlargeLimitFallsBackToDefault(t *testing.T) {
	logs := &fakeLogs{}
	srv := newTestServer(logs, &fakeReports{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/logs?limit=10000")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, 50, logs.limit)
}

func TestReports_EmptyListIsJSONArray(t *testing.T) {
	srv := newTestServer(&fakeLogs{}, &fakeReports{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/reports")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var raw json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	require.Equal(t, "[]", string(raw))
}

func TestReports_ReturnsStoredReports(t *testing.T) {
	reports := &fakeReports{reports: []*sla.Report{{
		Year:          2026,
		Month:         time.February,
		UptimePercent: 99.12,
		TotalChecks:   8064,
		IncidentsByCategory: map[health.Category]int{
			health.CategoryDatabase: 2,
		},
		GeneratedAt: now,
	}}}
	srv := newTestServer(&fakeLogs{}, reports)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/reports")
	require.NoError(t, err)
	defer resp.Body.Close()

	var got []*sla.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 1)
	require.Equal(t, 99.12, got[0].UptimePercent)
	require.Equal(t, time.February, got[0].Month)
}
