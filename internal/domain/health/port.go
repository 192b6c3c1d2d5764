package health

import (
	"context"
	"time"
)

type LogRepo interface {
	Insert(ctx context.Context, e *LogEntry) error
	InsertBatch(ctx context.Context, entries []*LogEntry) error
	ListRange(ctx context.Context, from, to time.Time) ([]*LogEntry, error)
	Recent(ctx context.Context, limit int, status *Status) ([]*LogEntry, error)
	Summary(ctx context.Context, since time.Time) (*Summary, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
