package sla

import (
	"time"

	"github.com/probeworks/vigil/internal/domain/health"
)

// CheckIntervalMinutes is the assumed width of one monitoring window. The
// downtime figure is an estimate: each CRITICAL log row counts as one full
// interval of downtime.
const CheckIntervalMinutes = 5

// Report is the monthly aggregate, upserted by (Year, Month).
type Report struct {
	Year                int                     `json:"year"`
	Month               time.Month              `json:"month"`
	UptimePercent       float64                 `json:"uptime_percent"`
	TotalChecks         int64                   `json:"total_checks"`
	FailedChecks        int64                   `json:"failed_checks"`
	DowntimeMinutes     int64                   `json:"downtime_minutes"`
	AvgLatencyMs        int64                   `json:"avg_latency_ms"`
	IncidentsByCategory map[health.Category]int `json:"incidents_by_category"`
	GeneratedAt         time.Time               `json:"generated_at"`
}

// MonthRange returns the half-open UTC range [first of month, first of next month).
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

// PrevMonth maps the month a generation cycle fires in to the month it
// reports on. January wraps to December of the prior year.
func PrevMonth(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}
