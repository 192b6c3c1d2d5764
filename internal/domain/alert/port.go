package alert

import (
	"context"
	"time"
)

type StateRepo interface {
	// Get returns ErrNotFound from the storage layer when the service has
	// never alerted; callers treat that as an implicit zero state.
	Get(ctx context.Context, service string) (*State, error)
	// MarkFired records a fired alert: last_alert_at=at, fail_count+1,
	// suppressed cleared. Upserts.
	MarkFired(ctx context.Context, service string, at time.Time) error
	// Reset zeroes fail_count and suppressed but keeps last_alert_at. Upserts.
	Reset(ctx context.Context, service string) error
}

// Channel delivers a rendered alert. Implementations are best-effort; a
// failed delivery is logged by the caller and never retried.
type Channel interface {
	Name() string
	Send(ctx context.Context, subject, body string) error
}

// EventSink receives fired alerts for downstream consumers (event bus).
type EventSink interface {
	AlertFired(ctx context.Context, ev Event) error
}
