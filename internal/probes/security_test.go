package probes

import (
	"context"
	"html"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/probeworks/vigil/internal/domain/health"
)

func securityProbe(srv *httptest.Server) *SecurityProbes {
	return &SecurityProbes{
		C:         newChecker(time.Second),
		SearchURL: srv.URL + "/search",
		AdminURL:  srv.URL + "/admin",
	}
}

func byService(t *testing.T, out []health.CheckResult, svc string) health.CheckResult {
	t.Helper()
	for _, r := range out {
		if r.Service == svc {
			return r
		}
	}
	t.Fatalf("no result for %s", svc)
	return health.CheckResult{}
}

func TestSecurityProbes_AllClear(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			// echo the query back escaped, the way a sane template does
			_, _ = w.Write([]byte(html.EscapeString(r.URL.Query().Get("q"))))
		case "/admin":
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	out := securityProbe(srv).Check(context.Background())
	require.Len(t, out, 3)
	for _, r := range out {
		require.Equal(t, health.StatusOK, r.Status, r.Service)
		require.Equal(t, health.CategorySecurity, r.Category)
	}
}

func TestSecurityProbes_ReflectedPayloadIsCritical(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/search" {
			_, _ = w.Write([]byte("results for: " + r.URL.Query().Get("q")))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	out := securityProbe(srv).Check(context.Background())
	res := byService(t, out, "security-xss-echo")
	require.Equal(t, health.StatusCritical, res.Status)
	require.Equal(t, "payload reflected unescaped", res.ErrorMessage)
}

func TestSecurityProbes_CraftedQueryServerErrorIsCritical(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/search" && r.URL.Query().Get("id") != "" {
			http.Error(w, "pq: syntax error at or near \"OR\"", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	out := securityProbe(srv).Check(context.Background())
	res := byService(t, out, "security-sql-injection")
	require.Equal(t, health.StatusCritical, res.Status)
	require.Equal(t, "crafted query string produced 500", res.ErrorMessage)
	require.Contains(t, res.Details, "syntax error")
}

func TestSecurityProbes_OpenAdminIsCritical(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/admin" {
			_, _ = w.Write([]byte("<h1>Dashboard</h1>"))
			return
		}
		_, _ = w.Write([]byte(html.EscapeString(r.URL.Query().Get("q"))))
	}))
	defer srv.Close()

	out := securityProbe(srv).Check(context.Background())
	res := byService(t, out, "security-auth-bypass")
	require.Equal(t, health.StatusCritical, res.Status)
	require.Equal(t, "admin surface reachable without credentials", res.ErrorMessage)
}
