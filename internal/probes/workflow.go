package probes

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/probeworks/vigil/internal/domain/health"
)

// Workflow probes exercise negative paths: the target is supposed to REJECT
// the request, so the usual meaning of the status code is inverted. A 200 on
// these endpoints is a security regression and therefore CRITICAL; a 4xx
// rejection is the healthy outcome. This inversion is deliberate.

// InvalidLoginProbe submits credentials that must never authenticate.
type InvalidLoginProbe struct {
	C   *Checker
	URL string
}

func (p *InvalidLoginProbe) Service() string           { return "auth-invalid-login" }
func (p *InvalidLoginProbe) Category() health.Category { return health.CategoryAuth }

func (p *InvalidLoginProbe) Check(ctx context.Context) []health.CheckResult {
	form := url.Values{
		"email":    {"probe-invalid@vigil.internal"},
		"password": {"definitely-not-the-password"},
	}
	res := p.C.Do(ctx, Request{
		Service:  p.Service(),
		Category: p.Category(),
		Method:   http.MethodPost,
		URL:      p.URL,
		Body:     form.Encode(),
		Headers:  map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
		Expected: []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity},
	})
	return []health.CheckResult{invert(res, "login endpoint accepted invalid credentials")}
}

// UnauthenticatedSubmitProbe posts a submission without any token attached.
type UnauthenticatedSubmitProbe struct {
	C   *Checker
	URL string
}

func (p *UnauthenticatedSubmitProbe) Service() string           { return "request-unauthenticated" }
func (p *UnauthenticatedSubmitProbe) Category() health.Category { return health.CategoryRequests }

func (p *UnauthenticatedSubmitProbe) Check(ctx context.Context) []health.CheckResult {
	res := p.C.Do(ctx, Request{
		Service:  p.Service(),
		Category: p.Category(),
		Method:   http.MethodPost,
		URL:      p.URL,
		Body:     `{}`,
		Headers:  map[string]string{"Content-Type": "application/json"},
		Expected: []int{http.StatusUnauthorized, http.StatusForbidden},
	})
	return []health.CheckResult{invert(res, "endpoint accepted an unauthenticated request")}
}

// invert rewrites the Checker's classification for negative-path probes:
// a success status means the rejection did not happen.
func invert(res health.CheckResult, msg string) health.CheckResult {
	if res.StatusCode == nil {
		// transport failure, already CRITICAL with the underlying error
		return res
	}
	code := *res.StatusCode
	switch {
	case res.Status == health.StatusOK || res.Status == health.StatusWarning:
		// rejection observed as expected; keep latency-based WARNING
		return res
	case code >= 200 && code < 300:
		res.Status = health.StatusCritical
		res.ErrorMessage = msg
		res.Details = ""
		return res
	default:
		// neither the expected rejection nor an acceptance (e.g. 500)
		res.Status = health.StatusWarning
		res.ErrorMessage = fmt.Sprintf("unexpected status %d on negative-path check", code)
		return res
	}
}
