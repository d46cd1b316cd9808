// Package storage 聚合运行期需要的存储资源：元数据 KV（必需）和事件 MQ（可选）.
//
//	mgr, err := storage.Init(ctx)
//	if err != nil {
//		return err
//	}
//	defer mgr.Close()
//
//	store := mgr.GetKVClient()
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yeisme/relayvault/pkg/configs"
	"github.com/yeisme/relayvault/pkg/internal/storage/kv"
	"github.com/yeisme/relayvault/pkg/internal/storage/mq"
	nlog "github.com/yeisme/relayvault/pkg/log"
)

// Manager 聚合所有存储资源.
type Manager struct {
	KV *kv.Client
	MQ *mq.Client
}

var (
	mgr     *Manager
	mgrErr  error
	mgrOnce sync.Once
)

// Init 初始化默认存储，使用全局配置. 重复调用只返回已初始化实例.
// MQ 仅在 events.enabled 时连接，连接失败只记录日志，事件发布降级为 no-op.
func Init(ctx context.Context) (*Manager, error) {
	mgrOnce.Do(func() {
		cfg := configs.GetConfig()
		m := &Manager{}

		kvc, err := kv.NewKVClient(ctx)
		if err != nil {
			mgrErr = fmt.Errorf("init kv (%s): %w", cfg.KV.Type, err)

			return
		}

		m.KV = kvc

		if cfg.Events.Enabled {
			mqc, err := mq.New(ctx)
			if err != nil {
				nlog.Logger().Warn().Err(err).Msg("mq unavailable, events disabled")
			} else {
				m.MQ = mqc
			}
		}

		mgr = m

		nlog.Logger().Info().
			Str("kv", cfg.KV.Type).
			Bool("mq", m.MQ != nil).
			Msg("storage manager initialized")
	})

	return mgr, mgrErr
}

// NewManager 用已有客户端构造 Manager，主要用于测试.
func NewManager(kvc *kv.Client, mqc *mq.Client) *Manager {
	return &Manager{KV: kvc, MQ: mqc}
}

// GetKVClient 获取 KV 客户端.
func (m *Manager) GetKVClient() *kv.Client {
	return m.KV
}

// GetMQClient 获取 MQ 客户端，未启用时为 nil.
func (m *Manager) GetMQClient() *mq.Client {
	return m.MQ
}

// Close 关闭全部资源.
func (m *Manager) Close() error {
	var errs []error

	if m.MQ != nil {
		errs = append(errs, m.MQ.Close())
	}

	if m.KV != nil {
		errs = append(errs, m.KV.Close())
	}

	return errors.Join(errs...)
}
