package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/probeworks/vigil/internal/domain/alert"
)

type WebhookConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func (c WebhookConfig) Configured() bool { return c.URL != "" }

type WebhookChannel struct {
	url    string
	client *http.Client
	log    *zap.Logger
}

var _ alert.Channel = (*WebhookChannel)(nil)

func NewWebhookChannel(cfg WebhookConfig, log *zap.Logger) *WebhookChannel {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookChannel{
		url:    cfg.URL,
		client: &http.Client{Timeout: timeout},
		log:    log.With(zap.String("component", "alerts.webhook")),
	}
}

func (w *WebhookChannel) Name() string { return "webhook" }

func (w *WebhookChannel) Send(ctx context.Context, subject, body string) error {
	payload, err := json.Marshal(map[string]string{
		"subject": subject,
		"body":    body,
		"sent_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook post: status %d", resp.StatusCode)
	}
	w.log.Debug("webhook delivered")
	return nil
}

// ChannelsConfig enumerates the optional channel configurations. A channel
// whose required keys are empty is simply not built.
type ChannelsConfig struct {
	Email    EmailConfig    `mapstructure:"email"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
}

func BuildChannels(cfg ChannelsConfig, log *zap.Logger) []alert.Channel {
	var out []alert.Channel
	if cfg.Email.Configured() {
		out = append(out, NewEmailChannel(cfg.Email, log))
	}
	if cfg.Telegram.Configured() {
		out = append(out, NewTelegramChannel(cfg.Telegram, log))
	}
	if cfg.Webhook.Configured() {
		out = append(out, NewWebhookChannel(cfg.Webhook, log))
	}
	return out
}
