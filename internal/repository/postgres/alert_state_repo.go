package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/probeworks/vigil/internal/domain/alert"
)

var _ alert.StateRepo = (*AlertStateRepoImpl)(nil)

type AlertStateRepoImpl struct{ db *DB }

func NewAlertStateRepo(db *DB) *AlertStateRepoImpl { return &AlertStateRepoImpl{db: db} }

const (
	qStateGet = `
SELECT service, last_alert_at, fail_count, suppressed
FROM alert_states
WHERE service = $1;
`
	qStateMarkFired = `
INSERT INTO alert_states (service, last_alert_at, fail_count, suppressed)
VALUES ($1, $2, 1, FALSE)
ON CONFLICT (service) DO UPDATE
SET last_alert_at = EXCLUDED.last_alert_at,
    fail_count    = alert_states.fail_count + 1,
    suppressed    = FALSE;
`
	qStateReset = `
INSERT INTO alert_states (service, last_alert_at, fail_count, suppressed)
VALUES ($1, NULL, 0, FALSE)
ON CONFLICT (service) DO UPDATE
SET fail_count = 0,
    suppressed = FALSE;
`
)

func (r *AlertStateRepoImpl) Get(ctx context.Context, service string) (*alert.State, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var s alert.State
	if err := r.db.Pool.QueryRow(ctx, qStateGet, service).Scan(
		&s.Service, &s.LastAlertAt, &s.FailCount, &s.Suppressed,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get alert state: %w", err)
	}
	return &s, nil
}

func (r *AlertStateRepoImpl) MarkFired(ctx context.Context, service string, at time.Time) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.Pool.Exec(ctx, qStateMarkFired, service, at); err != nil {
		return fmt.Errorf("mark fired: %w", err)
	}
	return nil
}

// Reset keeps last_alert_at: the "has this service ever failed" history
// survives recovery.
func (r *AlertStateRepoImpl) Reset(ctx context.Context, service string) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	if _, err := r.db.Pool.Exec(ctx, qStateReset, service); err != nil {
		return fmt.Errorf("reset alert state: %w", err)
	}
	return nil
}
