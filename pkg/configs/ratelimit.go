package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultRateLimitEnabled     = false
	DefaultRateLimitRPS         = 5.0
	DefaultRateLimitBurst       = 10
	DefaultRateLimitKey         = "ip"
	DefaultRateLimitMaxKeys     = 10000
	DefaultRateLimitIdleSeconds = 600
)

// RateLimitConfig 入口限流，保护上游 bot 的发送额度.
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
	// Key global | ip | header:<Name>
	Key string `mapstructure:"key"`
	// MaxKeys 按键限流时最多保留的 limiter 数
	MaxKeys     int `mapstructure:"max_keys"`
	IdleSeconds int `mapstructure:"idle_seconds"`
}

// IdleTTL 闲置 limiter 的回收时间.
func (c RateLimitConfig) IdleTTL() time.Duration {
	if c.IdleSeconds <= 0 {
		return DefaultRateLimitIdleSeconds * time.Second
	}

	return time.Duration(c.IdleSeconds) * time.Second
}

func (c *RateLimitConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("rate_limit.enabled", DefaultRateLimitEnabled)
	v.SetDefault("rate_limit.rps", DefaultRateLimitRPS)
	v.SetDefault("rate_limit.burst", DefaultRateLimitBurst)
	v.SetDefault("rate_limit.key", DefaultRateLimitKey)
	v.SetDefault("rate_limit.max_keys", DefaultRateLimitMaxKeys)
	v.SetDefault("rate_limit.idle_seconds", DefaultRateLimitIdleSeconds)
}
