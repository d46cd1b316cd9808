package ingest

import (
	"context"
	"errors"

	"github.com/bytedance/sonic"

	"github.com/yeisme/relayvault/pkg/internal/storage/kv"
	"github.com/yeisme/relayvault/pkg/log"
	"github.com/yeisme/relayvault/pkg/rule"
)

// IdempotencyKeyPrefix 幂等记录键前缀，位于保留命名空间内，不会与用户文件冲突.
const IdempotencyKeyPrefix = rule.ReservedPrefix + "tg_media_group_request@"

// IdempotencyKey 返回 requestId 对应的存储键.
func IdempotencyKey(requestID string) string {
	return IdempotencyKeyPrefix + requestID
}

// Guard 按 requestId 对重试请求去重.
type Guard struct {
	store MetadataStore
}

func NewGuard(store MetadataStore) *Guard {
	return &Guard{store: store}
}

// Lookup 返回已完成请求的响应，未命中返回 nil, nil.
// 存储中的值无法解析或不是成功响应时删除该值并视为未命中.
func (g *Guard) Lookup(ctx context.Context, requestID string) (*Result, error) {
	if requestID == "" {
		return nil, nil
	}

	key := IdempotencyKey(requestID)

	raw, err := g.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return nil, nil
		}

		return nil, internal("idempotency lookup failed", err)
	}

	var cached Result
	if err := sonic.Unmarshal(raw, &cached); err != nil || !cached.Success {
		log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("dropping corrupt idempotency record")

		if err := g.store.Delete(ctx, key); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("key", key).Msg("delete corrupt idempotency record")
		}

		return nil, nil
	}

	cached.Idempotent = true

	return &cached, nil
}

// Commit 保存完整成功的响应，记录不过期.
func (g *Guard) Commit(ctx context.Context, requestID string, res *Result) error {
	if requestID == "" {
		return nil
	}

	stored := *res
	stored.Idempotent = false

	b, err := sonic.Marshal(&stored)
	if err != nil {
		return err
	}

	return g.store.Set(ctx, IdempotencyKey(requestID), b, 0)
}
