package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultRelayAPIBase   = "https://api.telegram.org"
	DefaultRelayUserAgent = "relayvault/" + AppVersion
)

// RelayConfig 上游 Bot API 客户端配置.
type RelayConfig struct {
	APIBase   string        `mapstructure:"api_base"   rule:"required,url"`
	Timeout   time.Duration `mapstructure:"timeout"`    // 0 表示不设置客户端超时，由请求 ctx 控制
	UserAgent string        `mapstructure:"user_agent"`
	Debug     bool          `mapstructure:"debug"`      // 打印请求与响应，仅用于排障
}

func (c *RelayConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("relay.api_base", DefaultRelayAPIBase)
	v.SetDefault("relay.timeout", "0s")
	v.SetDefault("relay.user_agent", DefaultRelayUserAgent)
	v.SetDefault("relay.debug", false)
}
