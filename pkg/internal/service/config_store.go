package service

import (
	"context"

	"github.com/yeisme/relayvault/pkg/configs"
	"github.com/yeisme/relayvault/pkg/internal/ingest"
)

// ConfigStore 每次调用都读取当前配置，热加载后的频道立即生效.
type ConfigStore struct {
	load func() *configs.AppConfig
}

// NewConfigStore load 为 nil 时使用 configs.GetConfig.
func NewConfigStore(load func() *configs.AppConfig) *ConfigStore {
	if load == nil {
		load = configs.GetConfig
	}

	return &ConfigStore{load: load}
}

// UploadSettings 实现 ingest.ConfigStore.
func (s *ConfigStore) UploadSettings(context.Context) (ingest.UploadSettings, error) {
	cfg := s.load()

	channels := make([]ingest.Channel, 0, len(cfg.Upload.Channels))
	for _, c := range cfg.Upload.Channels {
		channels = append(channels, ingest.Channel{
			Name:     c.Name,
			BotToken: c.BotToken,
			ChatID:   c.ChatID,
			ProxyURL: c.ProxyURL,
		})
	}

	return ingest.UploadSettings{
		Limits:      cfg.Upload.Limits(),
		Channels:    channels,
		LoadBalance: cfg.Upload.LoadBalance,
	}, nil
}

// SecuritySettings 实现 ingest.ConfigStore.
func (s *ConfigStore) SecuritySettings(context.Context) (ingest.SecuritySettings, error) {
	cfg := s.load()

	return ingest.SecuritySettings{
		ModerationEnabled: cfg.Security.Moderation.Enabled && cfg.Security.Moderation.Endpoint != "",
	}, nil
}
