package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildChannels_EmptyConfigBuildsNothing(t *testing.T) {
	out := BuildChannels(ChannelsConfig{}, zap.NewNop())
	require.Empty(t, out)
}

func TestBuildChannels_OnlyConfiguredChannels(t *testing.T) {
	cfg := ChannelsConfig{
		Email: EmailConfig{
			Addr:    "smtp.example.com:587",
			From:    "vigil@example.com",
			To:      "ops@example.com",
			Timeout: 15 * time.Second,
		},
		Webhook: WebhookConfig{URL: "https://hooks.example.com/vigil"},
		// telegram left unconfigured
	}

	out := BuildChannels(cfg, zap.NewNop())
	require.Len(t, out, 2)
	require.Equal(t, "email", out[0].Name())
	require.Equal(t, "webhook", out[1].Name())
}

func TestChannelConfigured(t *testing.T) {
	require.False(t, EmailConfig{Addr: "smtp:25"}.Configured(), "email needs a recipient")
	require.False(t, TelegramConfig{BotToken: "t"}.Configured(), "telegram needs a chat id")
	require.True(t, WebhookConfig{URL: "https://x"}.Configured())
}
