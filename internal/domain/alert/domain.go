package alert

import (
	"time"

	"github.com/probeworks/vigil/internal/domain/health"
)

// State is the per-service dedup record. One row per service that has ever
// alerted or recovered; never deleted.
type State struct {
	Service     string     `json:"service"`
	LastAlertAt *time.Time `json:"last_alert_at"`
	FailCount   int        `json:"fail_count"`
	Suppressed  bool       `json:"suppressed"`
}

// Event is a rendered, fired alert as handed to channels and the event sink.
type Event struct {
	Service  string          `json:"service"`
	Category health.Category `json:"category"`
	Status   health.Status   `json:"status"`
	Subject  string          `json:"subject"`
	Body     string          `json:"body"`
	FiredAt  time.Time       `json:"fired_at"`
}
