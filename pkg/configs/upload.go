package configs

import (
	"github.com/spf13/viper"
)

const (
	DefaultMaxFiles          = 10               // 单批最多文件数
	MinMaxFiles              = 2                // max_files 可配置下限
	MaxMaxFiles              = 10               // max_files 可配置上限（上游单组上限）
	DefaultMaxTotalSize      = 80 * 1024 * 1024 // 单批总大小上限 80MiB
	DefaultMaxSingleFileSize = 20 * 1024 * 1024 // 单文件大小上限 20MiB
	DefaultLoadBalance       = false            // 未指定频道时是否随机选择
)

// UploadConfig 批量上传的限制与中继频道.
type UploadConfig struct {
	MaxFiles          int             `mapstructure:"max_files"`
	MaxTotalSize      int64           `mapstructure:"max_total_size"`
	MaxSingleFileSize int64           `mapstructure:"max_single_file_size"`
	LoadBalance       bool            `mapstructure:"load_balance"`
	Channels          []ChannelConfig `mapstructure:"channels"             rule:"dive"`
}

// ChannelConfig 单个中继频道.
type ChannelConfig struct {
	Name     string `mapstructure:"name"      rule:"required"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	ProxyURL string `mapstructure:"proxy_url"` // 可选，上游 API 的反向代理域名
}

// UploadLimits 归一化后的上传限制.
type UploadLimits struct {
	MaxFiles          int
	MaxTotalSize      int64
	MaxSingleFileSize int64
}

// Limits 返回归一化后的限制：非正值回退为默认值，文件数钳制到 [2,10].
func (c *UploadConfig) Limits() UploadLimits {
	limits := UploadLimits{
		MaxFiles:          c.MaxFiles,
		MaxTotalSize:      c.MaxTotalSize,
		MaxSingleFileSize: c.MaxSingleFileSize,
	}

	if limits.MaxFiles <= 0 {
		limits.MaxFiles = DefaultMaxFiles
	}

	limits.MaxFiles = min(max(limits.MaxFiles, MinMaxFiles), MaxMaxFiles)

	if limits.MaxTotalSize <= 0 {
		limits.MaxTotalSize = DefaultMaxTotalSize
	}

	if limits.MaxSingleFileSize <= 0 {
		limits.MaxSingleFileSize = DefaultMaxSingleFileSize
	}

	return limits
}

func (c *UploadConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("upload.max_files", DefaultMaxFiles)
	v.SetDefault("upload.max_total_size", DefaultMaxTotalSize)
	v.SetDefault("upload.max_single_file_size", DefaultMaxSingleFileSize)
	v.SetDefault("upload.load_balance", DefaultLoadBalance)
	v.SetDefault("upload.channels", []ChannelConfig{})
}
