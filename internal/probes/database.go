package probes

import (
	"context"
	"fmt"
	"time"

	"github.com/probeworks/vigil/internal/domain/health"
	pg "github.com/probeworks/vigil/internal/repository/postgres"
)

// DatabaseProbe verifies connectivity of the shared pool with a round trip.
type DatabaseProbe struct {
	DB          *pg.DB
	Timeout     time.Duration
	WarnLatency time.Duration
}

func (p *DatabaseProbe) Service() string           { return "db-connection" }
func (p *DatabaseProbe) Category() health.Category { return health.CategoryDatabase }

func (p *DatabaseProbe) Check(ctx context.Context) []health.CheckResult {
	res := health.CheckResult{
		Service:  p.Service(),
		Category: p.Category(),
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	var one int
	err := p.DB.Pool.QueryRow(pctx, `SELECT 1;`).Scan(&one)
	lat := time.Since(start)
	res.LatencyMs = health.Latency(lat)

	if err != nil {
		res.Status = health.StatusCritical
		res.ErrorMessage = fmt.Sprintf("db round trip: %v", err)
		return []health.CheckResult{res}
	}

	warn := p.WarnLatency
	if warn <= 0 {
		warn = 2 * time.Second
	}
	if lat > warn {
		res.Status = health.StatusWarning
		res.ErrorMessage = fmt.Sprintf("slow db response: %dms", lat.Milliseconds())
		return []health.CheckResult{res}
	}

	res.Status = health.StatusOK
	return []health.CheckResult{res}
}
