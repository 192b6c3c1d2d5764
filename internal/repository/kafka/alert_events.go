package kafka

import (
	"context"

	"github.com/probeworks/vigil/internal/domain/alert"
)

// AlertEventsKafka publishes fired alerts for downstream consumers
// (dashboards, paging bridges). Delivery is best-effort.
type AlertEventsKafka struct {
	p *Producer
}

func NewAlertEventsKafka(p *Producer) *AlertEventsKafka { return &AlertEventsKafka{p: p} }

var _ alert.EventSink = (*AlertEventsKafka)(nil)

func (e *AlertEventsKafka) AlertFired(ctx context.Context, ev alert.Event) error {
	return e.p.PublishJSON(ctx, []byte(ev.Service), ev)
}
