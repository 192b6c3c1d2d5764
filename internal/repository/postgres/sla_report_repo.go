package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/probeworks/vigil/internal/domain/health"
	"github.com/probeworks/vigil/internal/domain/sla"
)

var _ sla.ReportRepo = (*SlaReportRepoImpl)(nil)

type SlaReportRepoImpl struct{ db *DB }

func NewSlaReportRepo(db *DB) *SlaReportRepoImpl { return &SlaReportRepoImpl{db: db} }

const (
	qReportUpsert = `
INSERT INTO sla_reports (year, month, uptime_percent, total_checks, failed_checks, downtime_minutes, avg_latency_ms, incidents, generated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (year, month) DO UPDATE
SET uptime_percent   = EXCLUDED.uptime_percent,
    total_checks     = EXCLUDED.total_checks,
    failed_checks    = EXCLUDED.failed_checks,
    downtime_minutes = EXCLUDED.downtime_minutes,
    avg_latency_ms   = EXCLUDED.avg_latency_ms,
    incidents        = EXCLUDED.incidents,
    generated_at     = EXCLUDED.generated_at;
`
	qReportGet = `
SELECT year, month, uptime_percent, total_checks, failed_checks, downtime_minutes, avg_latency_ms, incidents, generated_at
FROM sla_reports
WHERE year = $1 AND month = $2;
`
	qReportList = `
SELECT year, month, uptime_percent, total_checks, failed_checks, downtime_minutes, avg_latency_ms, incidents, generated_at
FROM sla_reports
ORDER BY year DESC, month DESC
LIMIT $1;
`
)

func (r *SlaReportRepoImpl) Upsert(ctx context.Context, rep *sla.Report) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	incidents, err := json.Marshal(rep.IncidentsByCategory)
	if err != nil {
		return fmt.Errorf("marshal incidents: %w", err)
	}

	if _, err := r.db.Pool.Exec(ctx, qReportUpsert,
		rep.Year, int(rep.Month), rep.UptimePercent, rep.TotalChecks, rep.FailedChecks,
		rep.DowntimeMinutes, rep.AvgLatencyMs, incidents, rep.GeneratedAt,
	); err != nil {
		return fmt.Errorf("upsert sla report: %w", err)
	}
	return nil
}

func (r *SlaReportRepoImpl) Get(ctx context.Context, year int, month time.Month) (*sla.Report, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rep, err := scanReport(r.db.Pool.QueryRow(ctx, qReportGet, year, int(month)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rep, nil
}

func (r *SlaReportRepoImpl) List(ctx context.Context, limit int) ([]*sla.Report, error) {
	if limit <= 0 {
		limit = 24
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qReportList, limit)
	if err != nil {
		return nil, fmt.Errorf("query sla reports: %w", err)
	}
	defer rows.Close()

	out := make([]*sla.Report, 0, limit)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func scanReport(row rowScanner) (*sla.Report, error) {
	var (
		rep       sla.Report
		month     int
		incidents []byte
	)
	if err := row.Scan(
		&rep.Year, &month, &rep.UptimePercent, &rep.TotalChecks, &rep.FailedChecks,
		&rep.DowntimeMinutes, &rep.AvgLatencyMs, &incidents, &rep.GeneratedAt,
	); err != nil {
		return nil, err
	}
	rep.Month = time.Month(month)
	rep.IncidentsByCategory = map[health.Category]int{}
	if len(incidents) > 0 {
		if err := json.Unmarshal(incidents, &rep.IncidentsByCategory); err != nil {
			return nil, fmt.Errorf("unmarshal incidents: %w", err)
		}
	}
	return &rep, nil
}
