package jobs

// 任务名称.
const (
	JobModerationBackfill = "moderation.backfill"
)
