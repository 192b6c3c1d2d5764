//go:build integration

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/probeworks/vigil/internal/domain/alert"
	"github.com/probeworks/vigil/internal/domain/health"
	rk "github.com/probeworks/vigil/internal/repository/kafka"
)

func TestAlertEvents_PublishAndConsume(t *testing.T) {
	cfg := LoadCfg()
	EnsureTopic(t, cfg.KafkaBootstrap, cfg.AlertTopic)

	producer := rk.NewProducer([]string{cfg.KafkaBootstrap}, cfg.AlertTopic).
		WithLogger(zap.NewNop())
	sink := rk.NewAlertEventsKafka(producer)

	firedAt := time.Now().UTC().Truncate(time.Second)
	ev := alert.Event{
		Service:  "db-connection",
		Category: health.CategoryDatabase,
		Status:   health.StatusCritical,
		Subject:  "[vigil] CRITICAL: db-connection",
		Body:     "Service:  db-connection\n",
		FiredAt:  firedAt,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := sink.AlertFired(ctx, ev); err != nil {
		t.Fatalf("[kafka] publish alert: %v", err)
	}

	var got alert.Event
	group := fmt.Sprintf("it-alerts-%d", time.Now().UnixNano())
	if ok := ReadOneJSON(t, cfg.KafkaBootstrap, cfg.AlertTopic, group, 60*time.Second, &got); !ok {
		t.Fatal("[kafka] no alert event arrived")
	}
	if got.Service != ev.Service || got.Status != ev.Status {
		t.Fatalf("event mismatch: %+v", got)
	}
	if got.Subject != ev.Subject {
		t.Fatalf("subject mismatch: %q", got.Subject)
	}
}
