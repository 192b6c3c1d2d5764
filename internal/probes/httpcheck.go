package probes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/probeworks/vigil/internal/domain/health"
)

const maxDetailBytes = 500

// Checker issues bounded, timed HTTP requests and classifies the outcome:
// status outside the expected set is CRITICAL, an expected status slower
// than WarnLatency is WARNING, anything else is OK. Transport failures are
// encoded as CRITICAL results, never returned as errors.
type Checker struct {
	Client      *http.Client
	UserAgent   string
	Timeout     time.Duration
	WarnLatency time.Duration
}

type Request struct {
	Service  string
	Category health.Category
	Method   string
	URL      string
	Body     string
	Headers  map[string]string
	Expected []int
}

func (c *Checker) Do(ctx context.Context, req Request) health.CheckResult {
	res := health.CheckResult{
		Service:  req.Service,
		Category: req.Category,
		URL:      req.URL,
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(rctx, req.Method, req.URL, body)
	if err != nil {
		res.Status = health.StatusCritical
		res.ErrorMessage = err.Error()
		return res
	}
	if c.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.UserAgent)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.Client.Do(httpReq)
	lat := time.Since(start)
	res.LatencyMs = health.Latency(lat)
	if err != nil {
		res.Status = health.StatusCritical
		res.ErrorMessage = err.Error()
		return res
	}
	defer resp.Body.Close()

	res.StatusCode = health.Code(resp.StatusCode)

	if !statusIn(resp.StatusCode, req.Expected) {
		res.Status = health.StatusCritical
		res.ErrorMessage = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		res.Details = readDetail(resp.Body)
		return res
	}

	warn := c.WarnLatency
	if warn <= 0 {
		warn = 2 * time.Second
	}
	if lat > warn {
		res.Status = health.StatusWarning
		res.ErrorMessage = fmt.Sprintf("slow response: %dms", lat.Milliseconds())
		return res
	}

	res.Status = health.StatusOK
	return res
}

func statusIn(code int, expected []int) bool {
	for _, e := range expected {
		if code == e {
			return true
		}
	}
	return false
}

func readDetail(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxDetailBytes))
	if err != nil {
		return ""
	}
	return string(b)
}

// Endpoint is one configured API surface checked through the Checker.
type Endpoint struct {
	Service  string
	Category health.Category
	Method   string
	URL      string
	Expected []int
}

// EndpointProbes bundles the configured endpoint list into a single probe.
type EndpointProbes struct {
	C         *Checker
	Endpoints []Endpoint
}

func (p *EndpointProbes) Service() string           { return "api-endpoints" }
func (p *EndpointProbes) Category() health.Category { return health.CategoryAPI }

func (p *EndpointProbes) Check(ctx context.Context) []health.CheckResult {
	out := make([]health.CheckResult, len(p.Endpoints))
	forEach(len(p.Endpoints), func(i int) {
		ep := p.Endpoints[i]
		method := ep.Method
		if method == "" {
			method = http.MethodGet
		}
		expected := ep.Expected
		if len(expected) == 0 {
			expected = []int{http.StatusOK}
		}
		out[i] = p.C.Do(ctx, Request{
			Service:  ep.Service,
			Category: ep.Category,
			Method:   method,
			URL:      ep.URL,
			Expected: expected,
		})
	})
	return out
}
