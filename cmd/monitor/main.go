package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	config "github.com/probeworks/vigil/internal/config/monitor"
	"github.com/probeworks/vigil/internal/domain/alert"
	"github.com/probeworks/vigil/internal/domain/health"
	"github.com/probeworks/vigil/internal/obs"
	"github.com/probeworks/vigil/internal/probes"
	kafkax "github.com/probeworks/vigil/internal/repository/kafka"
	pg "github.com/probeworks/vigil/internal/repository/postgres"
	"github.com/probeworks/vigil/internal/services/alerts"
	"github.com/probeworks/vigil/internal/services/maintenance"
	"github.com/probeworks/vigil/internal/services/monitor"
	monitorrepo "github.com/probeworks/vigil/internal/services/monitor/repo"
	"github.com/probeworks/vigil/internal/services/readapi"
	slasvc "github.com/probeworks/vigil/internal/services/sla"
)

const version = "1.0.0"

func buildProbes(cfg config.ProbesCfg, db *pg.DB) []probes.Probe {
	client := probes.NewHTTPClient(probes.ClientConfig{
		Timeout:         cfg.Timeout,
		UserAgent:       cfg.UserAgent,
		FollowRedirects: cfg.FollowRedirects,
		VerifyTLS:       cfg.VerifyTLS,
	})
	checker := &probes.Checker{
		Client:      client,
		UserAgent:   cfg.UserAgent,
		Timeout:     cfg.Timeout,
		WarnLatency: cfg.WarnLatency,
	}

	endpoints := make([]probes.Endpoint, 0, len(cfg.Endpoints))
	for _, ep := range cfg.Endpoints {
		endpoints = append(endpoints, probes.Endpoint{
			Service:  ep.Service,
			Category: parseCategory(ep.Category),
			Method:   ep.Method,
			URL:      cfg.BaseURL + ep.Path,
			Expected: ep.Expected,
		})
	}

	// registration order is the report order: database first, then the
	// workflow simulations, then the bundled endpoint and security checks
	return []probes.Probe{
		&probes.DatabaseProbe{DB: db, Timeout: cfg.Timeout, WarnLatency: cfg.WarnLatency},
		&probes.InvalidLoginProbe{C: checker, URL: cfg.BaseURL + cfg.LoginPath},
		&probes.UnauthenticatedSubmitProbe{C: checker, URL: cfg.BaseURL + cfg.SubmitPath},
		&probes.EndpointProbes{C: checker, Endpoints: endpoints},
		&probes.SecurityProbes{
			C:         checker,
			SearchURL: cfg.BaseURL + cfg.SearchPath,
			AdminURL:  cfg.BaseURL + cfg.AdminPath,
		},
	}
}

func parseCategory(s string) health.Category {
	for _, c := range health.Categories() {
		if strings.EqualFold(string(c), s) {
			return c
		}
	}
	return health.CategoryAPI
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/monitor.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig("vigil-monitor", cfg.Env, version))
	if err != nil {
		log.Fatal(err)
	}
	l.Info("starting monitor",
		zap.Duration("interval", cfg.Monitor.Interval),
		zap.String("target", cfg.Probes.BaseURL),
		zap.String("metrics_addr", cfg.Monitor.MetricsAddr),
	)

	otelCloser, err := obs.SetupOTel(ctx, cfg.OTEL.AsOTELConfig())
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	db, err := pg.New(ctx, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	ms := obs.BootstrapMetricsServer(cfg.Monitor.MetricsAddr, func(ctx context.Context) error {
		hctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		return db.Pool.Ping(hctx)
	}, l)

	var sink alert.EventSink
	var prod *kafkax.Producer
	if cfg.Kafka.Enable {
		if err := kafkax.EnsureTopic(ctx, cfg.Kafka.Brokers, kafkax.TopicSpec{Name: cfg.Kafka.Topic}, l); err != nil {
			l.Warn("alert topic not confirmed, publishing anyway", zap.Error(err))
		}
		prod = kafkax.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic).WithLogger(l)
		defer func() { _ = prod.Close() }()
		sink = kafkax.NewAlertEventsKafka(prod)
	}

	clock := health.SystemClock{}
	logs := pg.NewHealthLogRepo(db)
	states := pg.NewAlertStateRepo(db)
	reports := pg.NewSlaReportRepo(db)
	transactor := pg.NewTransactor(db, l)

	channels := alerts.BuildChannels(cfg.Alerts, l)
	l.Info("alert channels configured", zap.Int("count", len(channels)))

	notifier := alerts.NewNotifier(l, states, channels, sink, clock, cfg.Monitor.AlertCooldown)

	uc := &monitor.Usecase{
		Log:      l,
		Probes:   probes.NewRunner(l, buildProbes(cfg.Probes, db)...),
		Store:    monitorrepo.CycleStore{Logs: logs, Tx: transactor},
		Alerts:   notifier,
		Clock:    clock,
		Attempts: cfg.Monitor.RetryAttempts,
		Delay:    cfg.Monitor.RetryDelay,
	}
	runner := monitor.New(l, uc, cfg.Monitor.Interval)

	gen := slasvc.NewGenerator(l, logs, reports, clock)
	maint := maintenance.New(l, logs, gen, clock, cfg.Monitor.Retention())

	api := readapi.Bootstrap(cfg.Monitor.APIAddr, readapi.New(l, logs, reports, clock))

	errCh := make(chan error, 2)
	go func() { errCh <- runner.Run(ctx) }()
	go func() { errCh <- maint.Run(ctx) }()

	l.Info("monitor started")

	select {
	case <-ctx.Done():
	case err = <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("runner error", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	shutdownHTTP(shCtx, api)
	l.Info("bye")
}

func shutdownHTTP(ctx context.Context, srv *http.Server) {
	if srv != nil {
		_ = srv.Shutdown(ctx)
	}
}
