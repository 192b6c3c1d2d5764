package probes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/probeworks/vigil/internal/domain/health"
)

const xssPayload = `<script>alert('vigil')</script>`

// SecurityProbes bundles the basic security regressions checks. The healthy
// criterion is the absence of a dangerous signal, regardless of HTTP status:
// a reflected script tag, a 500 from a crafted query string, or a 200 from an
// admin endpoint hit without credentials are each CRITICAL.
type SecurityProbes struct {
	C         *Checker
	SearchURL string
	AdminURL  string
}

func (p *SecurityProbes) Service() string           { return "security-probes" }
func (p *SecurityProbes) Category() health.Category { return health.CategorySecurity }

func (p *SecurityProbes) Check(ctx context.Context) []health.CheckResult {
	checks := []func(context.Context) health.CheckResult{
		p.xssEcho,
		p.sqlInjection,
		p.authBypass,
	}
	out := make([]health.CheckResult, len(checks))
	forEach(len(checks), func(i int) {
		out[i] = checks[i](ctx)
	})
	return out
}

func (p *SecurityProbes) xssEcho(ctx context.Context) health.CheckResult {
	target := p.SearchURL + "?q=" + url.QueryEscape(xssPayload)
	res := health.CheckResult{
		Service:  "security-xss-echo",
		Category: health.CategorySecurity,
		URL:      target,
	}

	body, code, lat, err := p.get(ctx, target)
	res.LatencyMs = health.Latency(lat)
	if err != nil {
		res.Status = health.StatusCritical
		res.ErrorMessage = err.Error()
		return res
	}
	res.StatusCode = health.Code(code)

	if strings.Contains(body, xssPayload) {
		res.Status = health.StatusCritical
		res.ErrorMessage = "payload reflected unescaped"
		return res
	}
	res.Status = health.StatusOK
	return res
}

func (p *SecurityProbes) sqlInjection(ctx context.Context) health.CheckResult {
	target := p.SearchURL + "?id=" + url.QueryEscape(`1' OR '1'='1`)
	res := health.CheckResult{
		Service:  "security-sql-injection",
		Category: health.CategorySecurity,
		URL:      target,
	}

	body, code, lat, err := p.get(ctx, target)
	res.LatencyMs = health.Latency(lat)
	if err != nil {
		res.Status = health.StatusCritical
		res.ErrorMessage = err.Error()
		return res
	}
	res.StatusCode = health.Code(code)

	if code >= http.StatusInternalServerError {
		res.Status = health.StatusCritical
		res.ErrorMessage = fmt.Sprintf("crafted query string produced %d", code)
		res.Details = truncate(body, maxDetailBytes)
		return res
	}
	res.Status = health.StatusOK
	return res
}

func (p *SecurityProbes) authBypass(ctx context.Context) health.CheckResult {
	res := health.CheckResult{
		Service:  "security-auth-bypass",
		Category: health.CategorySecurity,
		URL:      p.AdminURL,
	}

	_, code, lat, err := p.get(ctx, p.AdminURL)
	res.LatencyMs = health.Latency(lat)
	if err != nil {
		res.Status = health.StatusCritical
		res.ErrorMessage = err.Error()
		return res
	}
	res.StatusCode = health.Code(code)

	if code >= 200 && code < 300 {
		res.Status = health.StatusCritical
		res.ErrorMessage = "admin surface reachable without credentials"
		return res
	}
	res.Status = health.StatusOK
	return res
}

const maxProbeBody = 64 << 10

func (p *SecurityProbes) get(ctx context.Context, target string) (string, int, time.Duration, error) {
	timeout := p.C.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(rctx, http.MethodGet, target, nil)
	if err != nil {
		return "", 0, 0, err
	}
	if p.C.UserAgent != "" {
		req.Header.Set("User-Agent", p.C.UserAgent)
	}

	start := time.Now()
	resp, err := p.C.Client.Do(req)
	lat := time.Since(start)
	if err != nil {
		return "", 0, lat, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxProbeBody))
	if err != nil {
		return "", resp.StatusCode, lat, nil
	}
	return string(b), resp.StatusCode, lat, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
