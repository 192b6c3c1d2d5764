package alerts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/probeworks/vigil/internal/domain/alert"
	"github.com/probeworks/vigil/internal/domain/health"
	pg "github.com/probeworks/vigil/internal/repository/postgres"
)

// Notifier deduplicates degraded results against per-service alert state and
// fans fired alerts out to every configured channel. A service in cooldown is
// suppressed without touching its state, so a persistently failing service
// produces at most one burst per cooldown window.
type Notifier struct {
	log      *zap.Logger
	states   alert.StateRepo
	channels []alert.Channel
	sink     alert.EventSink
	clock    health.Clock
	cooldown time.Duration
}

var (
	mFired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alerts_fired_total", Help: "Alerts fired (post-dedup)",
	})
	mSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alerts_suppressed_total", Help: "Degraded results suppressed by cooldown",
	})
	mRecovered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alerts_recovered_total", Help: "Alert states reset by a healthy result",
	})
	mSendErrs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alerts_channel_errors_total", Help: "Channel delivery failures",
	})
)

func NewNotifier(
	log *zap.Logger,
	states alert.StateRepo,
	channels []alert.Channel,
	sink alert.EventSink,
	clock health.Clock,
	cooldown time.Duration,
) *Notifier {
	return &Notifier{
		log:      log.With(zap.String("component", "alerts.notifier")),
		states:   states,
		channels: channels,
		sink:     sink,
		clock:    clock,
		cooldown: cooldown,
	}
}

// Process evaluates one cycle's final results. Results must already be
// persisted; callers only invoke this after the log write succeeded.
func (n *Notifier) Process(ctx context.Context, results []health.CheckResult) {
	for _, res := range results {
		if res.Status.IsHealthy() {
			n.recover(ctx, res)
			continue
		}
		n.evaluate(ctx, res)
	}
}

func (n *Notifier) recover(ctx context.Context, res health.CheckResult) {
	if err := n.states.Reset(ctx, res.Service); err != nil {
		n.log.Warn("reset alert state", zap.String("service", res.Service), zap.Error(err))
		return
	}
	mRecovered.Inc()
}

func (n *Notifier) evaluate(ctx context.Context, res health.CheckResult) {
	now := n.clock.Now()

	st, err := n.states.Get(ctx, res.Service)
	if err != nil && !errors.Is(err, pg.ErrNotFound) {
		n.log.Warn("get alert state", zap.String("service", res.Service), zap.Error(err))
		return
	}

	if st != nil && st.LastAlertAt != nil && now.Sub(*st.LastAlertAt) < n.cooldown {
		mSuppressed.Inc()
		n.log.Debug("alert suppressed by cooldown",
			zap.String("service", res.Service),
			zap.Time("last_alert_at", *st.LastAlertAt),
		)
		return
	}

	ev := Render(res, now)
	n.dispatch(ctx, ev)

	if err := n.states.MarkFired(ctx, res.Service, now); err != nil {
		n.log.Warn("mark alert fired", zap.String("service", res.Service), zap.Error(err))
		return
	}
	mFired.Inc()
	n.log.Info("alert fired",
		zap.String("service", res.Service),
		zap.String("status", string(res.Status)),
		zap.Int("channels", len(n.channels)),
	)
}

// dispatch fans the alert out to every channel concurrently. A channel's
// failure is logged and counted, never escalated; the alert still counts as
// fired once all attempts settle.
func (n *Notifier) dispatch(ctx context.Context, ev alert.Event) {
	var wg sync.WaitGroup
	for _, ch := range n.channels {
		wg.Add(1)
		go func(ch alert.Channel) {
			defer wg.Done()
			if err := ch.Send(ctx, ev.Subject, ev.Body); err != nil {
				mSendErrs.Inc()
				n.log.Warn("channel delivery failed",
					zap.String("channel", ch.Name()),
					zap.String("service", ev.Service),
					zap.Error(err),
				)
			}
		}(ch)
	}
	wg.Wait()

	if n.sink != nil {
		if err := n.sink.AlertFired(ctx, ev); err != nil {
			n.log.Warn("alert event publish failed", zap.String("service", ev.Service), zap.Error(err))
		}
	}
}

// Render builds the channel payload, listing only the fields the result has.
func Render(res health.CheckResult, at time.Time) alert.Event {
	subject := fmt.Sprintf("[vigil] %s: %s", res.Status, res.Service)

	var b strings.Builder
	fmt.Fprintf(&b, "Service:  %s\n", res.Service)
	fmt.Fprintf(&b, "Status:   %s\n", res.Status)
	fmt.Fprintf(&b, "Category: %s\n", res.Category)
	fmt.Fprintf(&b, "Time:     %s\n", at.UTC().Format(time.RFC3339))
	if res.URL != "" {
		fmt.Fprintf(&b, "URL:      %s\n", res.URL)
	}
	if res.StatusCode != nil {
		fmt.Fprintf(&b, "HTTP:     %d\n", *res.StatusCode)
	}
	if res.LatencyMs != nil {
		fmt.Fprintf(&b, "Latency:  %dms\n", *res.LatencyMs)
	}
	if res.ErrorMessage != "" {
		fmt.Fprintf(&b, "Error:    %s\n", res.ErrorMessage)
	}

	return alert.Event{
		Service:  res.Service,
		Category: res.Category,
		Status:   res.Status,
		Subject:  subject,
		Body:     b.String(),
		FiredAt:  at.UTC(),
	}
}
