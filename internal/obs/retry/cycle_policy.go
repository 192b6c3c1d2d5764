package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// CyclePolicy drives the whole-probe-set retry loop: a fixed attempt ceiling
// with a constant inter-attempt delay. Transient blips must fail every
// attempt before a cycle reports them.
func CyclePolicy(attempts int, delay time.Duration, log *zap.Logger) Policy {
	return Policy{
		Name:     "monitor_cycle",
		Attempts: attempts,
		Backoff:  Constant{Delay: delay},
		Retryable: func(err error) bool {
			return err != nil
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("probe set degraded, retrying", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Warn("probe set degraded after all attempts", zap.Error(err))
			}
		},
	}
}
