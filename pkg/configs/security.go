package configs

import (
	"time"

	"github.com/spf13/viper"
)

// SecurityConfig 内容安全配置.
type SecurityConfig struct {
	Moderation ModerationConfig `mapstructure:"moderation"`
}

// ModerationConfig 内容审核服务.
type ModerationConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Endpoint string        `mapstructure:"endpoint"` // POST {"url": "..."} -> {"label": "..."}
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (c *SecurityConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("security.moderation.enabled", false)
	v.SetDefault("security.moderation.endpoint", "")
	v.SetDefault("security.moderation.api_key", "")
	v.SetDefault("security.moderation.timeout", "15s")
}
