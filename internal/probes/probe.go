package probes

import (
	"context"

	"github.com/probeworks/vigil/internal/domain/health"
)

// Probe is one registered check of a target surface. Bundled probes return
// several results per invocation. A probe encodes every expected failure mode
// (timeout, refusal, bad status) into the result; it never returns an error.
type Probe interface {
	Service() string
	Category() health.Category
	Check(ctx context.Context) []health.CheckResult
}
