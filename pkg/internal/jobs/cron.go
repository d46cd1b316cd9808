// Package jobs 注册并实现业务定时任务（基于 scheduler）.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yeisme/relayvault/pkg/configs"
	"github.com/yeisme/relayvault/pkg/internal/ingest"
	"github.com/yeisme/relayvault/pkg/internal/model"
	"github.com/yeisme/relayvault/pkg/internal/storage/kv"
	"github.com/yeisme/relayvault/pkg/log"
	"github.com/yeisme/relayvault/pkg/scheduler"
)

// reservedPrefix 幂等记录、缓存等内部键的前缀.
const reservedPrefix = "manage@"

// Rescorer 对单条记录重新审核.
type Rescorer interface {
	Rescore(ctx context.Context, storageID string, rec *model.FileRecord) error
}

// RegisterCronJobs 按配置注册定时任务:
//   - moderation.backfill 为仍是默认标签的记录补做审核
func RegisterCronJobs(ctx context.Context, sched *scheduler.Scheduler, store kv.KVStore, r Rescorer, cfg configs.JobsConfig) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if store == nil {
		return fmt.Errorf("kv store is nil")
	}

	if mb := cfg.ModerationBackfill; mb.Enabled {
		if err := sched.AddCron(ctx, JobModerationBackfill, mb.Cron, ModerationBackfill(store, r, mb.Batch)); err != nil {
			return err
		}
	}

	return nil
}

// ModerationBackfill 每次最多处理 batch 条 Label 为 None 的记录.
// 审核关闭时直接结束，单条失败不影响其余记录.
func ModerationBackfill(store kv.KVStore, r Rescorer, batch int) scheduler.Job {
	return func(ctx context.Context) error {
		l := log.Component("jobs").With().Str("job", JobModerationBackfill).Logger()

		keys, err := store.Keys(ctx, "")
		if err != nil {
			return fmt.Errorf("list keys: %w", err)
		}

		var (
			done   int
			failed []error
		)

		for _, key := range keys {
			if batch > 0 && done >= batch {
				break
			}

			if strings.HasPrefix(key, reservedPrefix) {
				continue
			}

			rec, ok := pending(ctx, store, key)
			if !ok {
				continue
			}

			done++

			err := r.Rescore(ctx, key, rec)
			if errors.Is(err, ingest.ErrModerationDisabled) {
				l.Debug().Msg("moderation disabled, skip backfill")

				return nil
			}

			if err != nil {
				l.Warn().Err(err).Str("storage_id", key).Msg("rescore failed")
				failed = append(failed, err)
			}
		}

		l.Info().Int("processed", done).Int("failed", len(failed)).Msg("moderation backfill finished")

		if len(failed) > 0 {
			return fmt.Errorf("%d of %d rescore failed: %w", len(failed), done, failed[0])
		}

		return nil
	}
}

// pending 只返回仍为默认标签且可定位的中继记录.
func pending(ctx context.Context, store kv.KVStore, key string) (*model.FileRecord, bool) {
	raw, err := store.Get(ctx, key)
	if err != nil {
		return nil, false
	}

	rec, err := model.DecodeFileRecord(raw)
	if err != nil || rec.UpstreamFileID == "" {
		return nil, false
	}

	return rec, rec.Label == "" || rec.Label == model.LabelNone
}
