package configs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactedHidesCredentials(t *testing.T) {
	cfg := AppConfig{}
	cfg.Upload.Channels = []ChannelConfig{
		{Name: "primary", BotToken: "123:abc", ChatID: "-100"},
		{Name: "spare"},
	}
	cfg.Auth.Codes = []string{"letmein"}
	cfg.Auth.JWTSecret = "s3cret"
	cfg.Security.Moderation.APIKey = "key"

	out := cfg.Redacted()

	require.Len(t, out.Upload.Channels, 2)
	assert.Equal(t, redactedValue, out.Upload.Channels[0].BotToken)
	assert.Equal(t, "-100", out.Upload.Channels[0].ChatID)
	assert.Empty(t, out.Upload.Channels[1].BotToken)
	assert.Equal(t, []string{redactedValue}, out.Auth.Codes)
	assert.Equal(t, redactedValue, out.Auth.JWTSecret)
	assert.Equal(t, redactedValue, out.Security.Moderation.APIKey)

	// 原配置不受影响
	assert.Equal(t, "123:abc", cfg.Upload.Channels[0].BotToken)
	assert.Equal(t, "letmein", cfg.Auth.Codes[0])
}

func TestInitConfigDefaults(t *testing.T) {
	t.Setenv(EnvPrefix+"_SERVER_PORT", "9191")

	require.NoError(t, InitConfig(t.TempDir()))

	cfg := GetConfig()
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, DefaultHost, cfg.Server.Host)
	assert.Equal(t, DefaultMaxFiles, cfg.Upload.Limits().MaxFiles)

	OverrideDebug()
	assert.True(t, GetConfig().Server.Debug)
}
