package configs

import "github.com/spf13/viper"

// EventsConfig 控制事件发布的开关（全局与分主题）。
type EventsConfig struct {
	Enabled bool             `mapstructure:"enabled"` // 总开关
	File    FileEventsConfig `mapstructure:"file"`
}

// FileEventsConfig 针对中继文件的事件开关。
type FileEventsConfig struct {
	Stored    bool `mapstructure:"stored"`    // 元数据落库后发布
	Moderated bool `mapstructure:"moderated"` // 审核标签回填后发布
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	// 默认关闭：未部署消息队列时不应阻塞启动
	v.SetDefault("events.enabled", false)
	v.SetDefault("events.file.stored", true)
	v.SetDefault("events.file.moderated", false)
}
