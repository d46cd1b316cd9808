package configs

import "github.com/spf13/viper"

// JobsConfig 定时任务配置.
type JobsConfig struct {
	ModerationBackfill CronJobConfig `mapstructure:"moderation_backfill"`
}

// CronJobConfig 单个 cron 任务.
type CronJobConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Cron    string `mapstructure:"cron"    rule:"required"`
	Batch   int    `mapstructure:"batch"   rule:"min=1"` // 单次处理的记录上限
}

func (c *JobsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("jobs.moderation_backfill.enabled", false)
	v.SetDefault("jobs.moderation_backfill.cron", "*/15 * * * *")
	v.SetDefault("jobs.moderation_backfill.batch", 100)
}
