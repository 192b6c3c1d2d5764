package sla

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/probeworks/vigil/internal/domain/health"
	"github.com/probeworks/vigil/internal/domain/sla"
)

// Compute derives the monthly report from the log rows of the half-open
// month range. Pure function of its inputs (GeneratedAt excepted), so a
// rerun over an unchanged log set produces identical figures.
func Compute(year int, month time.Month, rows []*health.LogEntry, generatedAt time.Time) *sla.Report {
	rep := &sla.Report{
		Year:                year,
		Month:               month,
		IncidentsByCategory: make(map[health.Category]int, len(health.Categories())),
		GeneratedAt:         generatedAt,
	}
	for _, c := range health.Categories() {
		rep.IncidentsByCategory[c] = 0
	}

	var (
		criticals int64
		latSum    int64
		latCount  int64
	)
	for _, row := range rows {
		rep.TotalChecks++
		if !row.Status.IsHealthy() {
			rep.FailedChecks++
			rep.IncidentsByCategory[row.Category]++
		}
		if row.Status == health.StatusCritical {
			criticals++
		}
		if row.LatencyMs != nil {
			latSum += *row.LatencyMs
			latCount++
		}
	}

	if rep.TotalChecks == 0 {
		rep.UptimePercent = 100
	} else {
		ratio := float64(rep.TotalChecks-rep.FailedChecks) / float64(rep.TotalChecks) * 100
		rep.UptimePercent = math.Round(ratio*100) / 100
	}
	if latCount > 0 {
		rep.AvgLatencyMs = int64(math.Round(float64(latSum) / float64(latCount)))
	}
	rep.DowntimeMinutes = criticals * sla.CheckIntervalMinutes

	return rep
}

// Generator fetches a month of logs, computes the report and upserts it.
// Either the whole computation lands or nothing is written.
type Generator struct {
	log     *zap.Logger
	logs    health.LogRepo
	reports sla.ReportRepo
	clock   health.Clock
}

func NewGenerator(log *zap.Logger, logs health.LogRepo, reports sla.ReportRepo, clock health.Clock) *Generator {
	return &Generator{
		log:     log.With(zap.String("component", "sla.generator")),
		logs:    logs,
		reports: reports,
		clock:   clock,
	}
}

func (g *Generator) Generate(ctx context.Context, year int, month time.Month) (*sla.Report, error) {
	from, to := sla.MonthRange(year, month)

	rows, err := g.logs.ListRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list logs for %d-%02d: %w", year, month, err)
	}

	rep := Compute(year, month, rows, g.clock.Now())
	if err := g.reports.Upsert(ctx, rep); err != nil {
		return nil, fmt.Errorf("upsert report %d-%02d: %w", year, month, err)
	}

	g.log.Info("sla report generated",
		zap.Int("year", year),
		zap.Int("month", int(month)),
		zap.Float64("uptime_percent", rep.UptimePercent),
		zap.Int64("total_checks", rep.TotalChecks),
		zap.Int64("failed_checks", rep.FailedChecks),
	)
	return rep, nil
}
