package sla

import (
	"context"
	"time"
)

type ReportRepo interface {
	Upsert(ctx context.Context, r *Report) error
	Get(ctx context.Context, year int, month time.Month) (*Report, error)
	List(ctx context.Context, limit int) ([]*Report, error)
}
