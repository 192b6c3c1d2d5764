package health

import "time"

type Status string

const (
	StatusOK       Status = "OK"
	StatusWarning  Status = "WARNING"
	StatusCritical Status = "CRITICAL"
)

// Severity orders statuses: OK < WARNING < CRITICAL.
func (s Status) Severity() int {
	switch s {
	case StatusWarning:
		return 1
	case StatusCritical:
		return 2
	default:
		return 0
	}
}

func (s Status) IsHealthy() bool { return s == StatusOK }

func ParseStatus(v string) (Status, bool) {
	switch Status(v) {
	case StatusOK, StatusWarning, StatusCritical:
		return Status(v), true
	}
	return "", false
}

type Category string

const (
	CategoryDatabase  Category = "DATABASE"
	CategoryAPI       Category = "API"
	CategoryAuth      Category = "AUTH"
	CategoryRequests  Category = "REQUESTS"
	CategoryUploads   Category = "UPLOADS"
	CategoryMessaging Category = "MESSAGING"
	CategorySecurity  Category = "SECURITY"
)

// Categories returns the closed enumeration in stable order. SLA breakdowns
// are zero-filled over this list.
func Categories() []Category {
	return []Category{
		CategoryDatabase,
		CategoryAPI,
		CategoryAuth,
		CategoryRequests,
		CategoryUploads,
		CategoryMessaging,
		CategorySecurity,
	}
}

// CheckResult is one health observation produced by a single probe invocation.
// Status is derived solely from what the probe observed.
type CheckResult struct {
	Service      string   `json:"service"`
	Category     Category `json:"category"`
	Status       Status   `json:"status"`
	LatencyMs    *int64   `json:"latency_ms,omitempty"`
	StatusCode   *int     `json:"status_code,omitempty"`
	URL          string   `json:"url,omitempty"`
	ErrorMessage string   `json:"error_message,omitempty"`
	Details      string   `json:"details,omitempty"`
}

// LogEntry is a persisted CheckResult. Rows are append-only and removed only
// by retention cleanup.
type LogEntry struct {
	ID       int64     `json:"id"`
	CheckResult
	TestedAt time.Time `json:"tested_at"`
}

// Summary is the rolling-window projection consumed by the dashboard.
type Summary struct {
	TotalChecks  int64   `json:"total_checks"`
	FailedChecks int64   `json:"failed_checks"`
	UptimePct    float64 `json:"uptime_percent"`
	AvgLatencyMs int64   `json:"avg_latency_ms"`
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

func Latency(d time.Duration) *int64 {
	ms := d.Milliseconds()
	return &ms
}

func Code(c int) *int { return &c }
