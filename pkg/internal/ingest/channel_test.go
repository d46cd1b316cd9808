package ingest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/relayvault/pkg/internal/ingest"
)

func TestSelectChannel(t *testing.T) {
	channels := defaultConfig().upload.Channels

	ch, err := ingest.SelectChannel(channels, "", false, nil)
	require.NoError(t, err)
	assert.Equal(t, "primary", ch.Name)

	ch, err = ingest.SelectChannel(channels, "backup", false, nil)
	require.NoError(t, err)
	assert.Equal(t, "tg.example.com", ch.ProxyURL)

	ch, err = ingest.SelectChannel(channels, "", true, func(n int) int {
		assert.Equal(t, 2, n)

		return 1
	})
	require.NoError(t, err)
	assert.Equal(t, "backup", ch.Name)
}

func TestSelectChannelLoadBalanceCoversAll(t *testing.T) {
	channels := defaultConfig().upload.Channels
	seen := map[string]bool{}

	for range 200 {
		ch, err := ingest.SelectChannel(channels, "", true, nil)
		require.NoError(t, err)

		seen[ch.Name] = true
	}

	assert.Len(t, seen, 2)
}

func TestSelectChannelErrors(t *testing.T) {
	tests := []struct {
		name     string
		channels []ingest.Channel
		pick     string
		wantMsg  string
	}{
		{"none configured", nil, "", "No channel configured"},
		{"unknown name", defaultConfig().upload.Channels, "nope", "Channel not found: nope"},
		{"missing token", []ingest.Channel{{Name: "a", ChatID: "1"}}, "", "misconfigured"},
		{"missing chat", []ingest.Channel{{Name: "a", BotToken: "t"}}, "a", "misconfigured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ingest.SelectChannel(tt.channels, tt.pick, false, nil)
			require.Error(t, err)
			assert.Equal(t, ingest.CodeChannelNotFound, codeOf(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
