package repo

import (
	"context"
	"time"

	"github.com/probeworks/vigil/internal/domain/health"
	"github.com/probeworks/vigil/internal/repository/postgres"
)

// CycleStore persists one cycle's final results atomically: either every
// result of the cycle becomes a log row or none do.
type CycleStore struct {
	Logs health.LogRepo
	Tx   postgres.Transactor
}

func (s CycleStore) PersistResults(ctx context.Context, results []health.CheckResult, at time.Time) error {
	entries := make([]*health.LogEntry, 0, len(results))
	for _, r := range results {
		entries = append(entries, &health.LogEntry{
			CheckResult: r,
			TestedAt:    at,
		})
	}
	return s.Tx.WithTx(ctx, func(txCtx context.Context) error {
		return s.Logs.InsertBatch(txCtx, entries)
	})
}
