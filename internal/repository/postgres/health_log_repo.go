package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/probeworks/vigil/internal/domain/health"
)

var _ health.LogRepo = (*HealthLogRepoImpl)(nil)

type HealthLogRepoImpl struct{ db *DB }

func NewHealthLogRepo(db *DB) *HealthLogRepoImpl { return &HealthLogRepoImpl{db: db} }

const (
	qLogInsert = `
INSERT INTO health_logs (service, category, status, latency_ms, status_code, url, error_message, details, tested_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id;
`
	qLogsRange = `
SELECT id, service, category, status, latency_ms, status_code, url, error_message, details, tested_at
FROM health_logs
WHERE tested_at >= $1 AND tested_at < $2
ORDER BY tested_at;
`
	qLogsRecent = `
SELECT id, service, category, status, latency_ms, status_code, url, error_message, details, tested_at
FROM health_logs
WHERE ($2::text IS NULL OR status = $2)
ORDER BY tested_at DESC
LIMIT $1;
`
	qLogsSummary = `
SELECT count(*),
       count(*) FILTER (WHERE status <> 'OK'),
       COALESCE(round(avg(latency_ms) FILTER (WHERE latency_ms IS NOT NULL)), 0)
FROM health_logs
WHERE tested_at >= $1;
`
	qLogsDelete = `DELETE FROM health_logs WHERE tested_at < $1;`
)

func (r *HealthLogRepoImpl) Insert(ctx context.Context, e *health.LogEntry) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	eq := r.db.execQueryer(ctx)
	if err := eq.QueryRow(ctx, qLogInsert,
		e.Service, e.Category, e.Status, e.LatencyMs, e.StatusCode,
		nullStr(e.URL), nullStr(e.ErrorMessage), nullStr(e.Details), e.TestedAt,
	).Scan(&e.ID); err != nil {
		return fmt.Errorf("insert health log: %w", err)
	}
	return nil
}

func (r *HealthLogRepoImpl) InsertBatch(ctx context.Context, entries []*health.LogEntry) error {
	for _, e := range entries {
		if err := r.Insert(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *HealthLogRepoImpl) ListRange(ctx context.Context, from, to time.Time) ([]*health.LogEntry, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qLogsRange, from, to)
	if err != nil {
		return nil, fmt.Errorf("query health logs: %w", err)
	}
	defer rows.Close()

	var out []*health.LogEntry
	for rows.Next() {
		e, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *HealthLogRepoImpl) Recent(ctx context.Context, limit int, status *health.Status) ([]*health.LogEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var st *string
	if status != nil {
		s := string(*status)
		st = &s
	}

	rows, err := r.db.Pool.Query(ctx, qLogsRecent, limit, st)
	if err != nil {
		return nil, fmt.Errorf("query recent logs: %w", err)
	}
	defer rows.Close()

	out := make([]*health.LogEntry, 0, limit)
	for rows.Next() {
		e, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (r *HealthLogRepoImpl) Summary(ctx context.Context, since time.Time) (*health.Summary, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var s health.Summary
	if err := r.db.Pool.QueryRow(ctx, qLogsSummary, since).Scan(
		&s.TotalChecks, &s.FailedChecks, &s.AvgLatencyMs,
	); err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	if s.TotalChecks == 0 {
		s.UptimePct = 100
	} else {
		s.UptimePct = round2(float64(s.TotalChecks-s.FailedChecks) / float64(s.TotalChecks) * 100)
	}
	return &s, nil
}

func (r *HealthLogRepoImpl) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.Pool.Exec(ctx, qLogsDelete, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old logs: %w", err)
	}
	return cmd.RowsAffected(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLog(row rowScanner) (*health.LogEntry, error) {
	var (
		e        health.LogEntry
		url      *string
		errMsg   *string
		details  *string
		category string
		status   string
	)
	if err := row.Scan(
		&e.ID, &e.Service, &category, &status, &e.LatencyMs, &e.StatusCode,
		&url, &errMsg, &details, &e.TestedAt,
	); err != nil {
		return nil, fmt.Errorf("scan health log: %w", err)
	}
	e.Category = health.Category(category)
	e.Status = health.Status(status)
	e.URL = deref(url)
	e.ErrorMessage = deref(errMsg)
	e.Details = deref(details)
	return &e, nil
}

func nullStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
