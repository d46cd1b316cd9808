package service

import (
	"context"

	ctxPkg "github.com/yeisme/relayvault/pkg/context"
	"github.com/yeisme/relayvault/pkg/configs"
	"github.com/yeisme/relayvault/pkg/internal/ingest"
	"github.com/yeisme/relayvault/pkg/internal/relay"
	nlog "github.com/yeisme/relayvault/pkg/log"
)

// NewIngest 组装批量上传流程，KV 与 MQ 从 context 中获取.
// 未开启的可选能力（审核、归属地）不注入，流程按缺省行为处理.
func NewIngest(c context.Context, rc *relay.Client, cfg *configs.AppConfig, bg *ingest.Background) *ingest.Orchestrator {
	kvc := ctxPkg.GetKVClient(c)
	if kvc == nil {
		nlog.Logger().Fatal().Msg("kv client not initialized")
	}

	d := ingest.Deps{
		Relay:      rc,
		Store:      kvc,
		Config:     NewConfigStore(nil),
		Types:      TypeResolver{},
		IDs:        NewIDBuilder(),
		Dims:       DimensionProber{},
		Notifier:   NewNotifier(ctxPkg.GetMQClient(c), nil),
		Background: bg,
	}

	// 注意 nil 指针不能直接赋给接口字段
	if m := NewModerator(cfg.Security.Moderation); m != nil {
		d.Moderator = m
	}

	if l := NewLocator(cfg.Geo); l != nil {
		d.Locator = l
	}

	return ingest.NewOrchestrator(d)
}
