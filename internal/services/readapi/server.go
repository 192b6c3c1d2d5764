package readapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/probeworks/vigil/internal/domain/health"
	"github.com/probeworks/vigil/internal/domain/sla"
)

// Server is the read-only JSON surface consumed by the dashboard and CLI.
// Pure projections over persisted data; nothing here mutates state.
type Server struct {
	log     *zap.Logger
	logs    health.LogRepo
	reports sla.ReportRepo
	clock   health.Clock
}

func New(log *zap.Logger, logs health.LogRepo, reports sla.ReportRepo, clock health.Clock) *Server {
	return &Server{
		log:     log.With(zap.String("component", "readapi")),
		logs:    logs,
		reports: reports,
		clock:   clock,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/summary", s.handleSummary)
	mux.HandleFunc("GET /api/v1/logs", s.handleLogs)
	mux.HandleFunc("GET /api/v1/reports", s.handleReports)
	return mux
}

// Bootstrap starts the API server in the background.
func Bootstrap(addr string, s *Server) *http.Server {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		s.log.Info("read api listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("read api server error", zap.Error(err))
		}
	}()
	return srv
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	since := s.clock.Now().Add(-24 * time.Hour)
	sum, err := s.logs.Summary(r.Context(), since)
	if err != nil {
		s.fail(w, "summary query", err)
		return
	}
	s.respond(w, sum)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	var status *health.Status
	if v := r.URL.Query().Get("status"); v != "" {
		st, ok := health.ParseStatus(v)
		if !ok {
			http.Error(w, "unknown status", http.StatusBadRequest)
			return
		}
		status = &st
	}

	rows, err := s.logs.Recent(r.Context(), limit, status)
	if err != nil {
		s.fail(w, "logs query", err)
		return
	}
	if rows == nil {
		rows = []*health.LogEntry{}
	}
	s.respond(w, rows)
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.reports.List(r.Context(), 24)
	if err != nil {
		s.fail(w, "reports query", err)
		return
	}
	if reports == nil {
		reports = []*sla.Report{}
	}
	s.respond(w, reports)
}

func (s *Server) respond(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("response encode", zap.Error(err))
	}
}

func (s *Server) fail(w http.ResponseWriter, what string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	s.log.Warn(what, zap.Error(err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}
