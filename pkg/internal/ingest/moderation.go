package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeisme/relayvault/pkg/internal/model"
)

// ErrModerationDisabled 未配置审核服务或审核已关闭.
var ErrModerationDisabled = errors.New("moderation disabled")

// moderate 审核结果只作参考: 失败时记录保持默认标签.
func (o *Orchestrator) moderate(ctx context.Context, storageID, fileURL string) error {
	label, err := o.d.Moderator.Score(ctx, fileURL)
	if err != nil {
		return fmt.Errorf("score %s: %w", storageID, err)
	}

	return o.BackfillLabel(ctx, storageID, label)
}

// BackfillLabel 回填审核标签，这是记录写入后唯一允许的修改.
func (o *Orchestrator) BackfillLabel(ctx context.Context, storageID, label string) error {
	if label == "" || label == model.LabelNone {
		return nil
	}

	raw, err := o.d.Store.Get(ctx, storageID)
	if err != nil {
		return fmt.Errorf("load record %s: %w", storageID, err)
	}

	rec, err := model.DecodeFileRecord(raw)
	if err != nil {
		return err
	}

	if rec.Label == label {
		return nil
	}

	rec.Label = label

	b, err := rec.Encode()
	if err != nil {
		return err
	}

	if err := o.d.Store.Set(ctx, storageID, b, 0); err != nil {
		return fmt.Errorf("backfill label %s: %w", storageID, err)
	}

	if o.d.Notifier != nil {
		if err := o.d.Notifier.FileModerated(ctx, storageID, label); err != nil {
			return fmt.Errorf("notify moderated %s: %w", storageID, err)
		}
	}

	return nil
}

// Rescore 重新审核一条仍为默认标签的记录，供定时任务调用.
func (o *Orchestrator) Rescore(ctx context.Context, storageID string, rec *model.FileRecord) error {
	if o.d.Moderator == nil {
		return ErrModerationDisabled
	}

	sec, err := o.d.Config.SecuritySettings(ctx)
	if err != nil {
		return err
	}

	if !sec.ModerationEnabled {
		return ErrModerationDisabled
	}

	ch, fileURL, err := o.Locate(ctx, rec)
	if err != nil {
		return err
	}

	label, err := o.d.Moderator.Score(ctx, fileURL)
	if err != nil {
		return fmt.Errorf("score %s via %s: %w", storageID, ch.Name, err)
	}

	return o.BackfillLabel(ctx, storageID, label)
}

// Locate 重新按频道名解析记录所在频道以及当前下载地址.
// 频道凭据不随记录保存，因此频道被删除后记录无法再读取.
func (o *Orchestrator) Locate(ctx context.Context, rec *model.FileRecord) (Channel, string, error) {
	settings, err := o.d.Config.UploadSettings(ctx)
	if err != nil {
		return Channel{}, "", err
	}

	ch, err := RecordChannel(settings.Channels, rec)
	if err != nil {
		return Channel{}, "", err
	}

	path, err := o.d.Relay.ResolveFilePath(ctx, ch.Target(), rec.UpstreamFileID)
	if err != nil {
		return Channel{}, "", err
	}

	return ch, o.d.Relay.FileURL(ch.Target(), path), nil
}
