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

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

func (c TelegramConfig) Configured() bool { return c.BotToken != "" && c.ChatID != "" }

type TelegramChannel struct {
	token  string
	chatID string
	client *http.Client
	log    *zap.Logger
}

var _ alert.Channel = (*TelegramChannel)(nil)

func NewTelegramChannel(cfg TelegramConfig, log *zap.Logger) *TelegramChannel {
	return &TelegramChannel{
		token:  cfg.BotToken,
		chatID: cfg.ChatID,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log.With(zap.String("component", "alerts.telegram")),
	}
}

func (t *TelegramChannel) Name() string { return "telegram" }

func (t *TelegramChannel) Send(ctx context.Context, subject, body string) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id": t.chatID,
		"text":    subject + "\n\n" + body,
	})
	if err != nil {
		return err
	}

	url := "https://api.telegram.org/bot" + t.token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram sendMessage: status %d", resp.StatusCode)
	}
	t.log.Debug("telegram message sent")
	return nil
}
