// Package context 把存储管理器等运行期资源挂到 context 上，供 handler 和 service 取用.
package context

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/relayvault/pkg/internal/ingest"
	"github.com/yeisme/relayvault/pkg/internal/relay"
	"github.com/yeisme/relayvault/pkg/internal/storage"
	kvc "github.com/yeisme/relayvault/pkg/internal/storage/kv"
	mqc "github.com/yeisme/relayvault/pkg/internal/storage/mq"
)

type ContextKey string

const (
	StorageManagerKey ContextKey = "storageManager"
	OrchestratorKey   ContextKey = "orchestrator"
	RelayClientKey    ContextKey = "relayClient"
)

// WithStorageManager 将 Manager 存储到 context 中.
func WithStorageManager(ctx context.Context, mgr *storage.Manager) context.Context {
	return context.WithValue(ctx, StorageManagerKey, mgr)
}

// GetManager 从 context 中获取 Manager.
func GetManager(ctx context.Context) *storage.Manager {
	if mgr, ok := ctx.Value(StorageManagerKey).(*storage.Manager); ok {
		return mgr
	}

	return nil
}

// WithOrchestrator 将批量上传流程存储到 context 中.
func WithOrchestrator(ctx context.Context, o *ingest.Orchestrator) context.Context {
	return context.WithValue(ctx, OrchestratorKey, o)
}

// GetOrchestrator 从 context 中获取批量上传流程.
func GetOrchestrator(ctx context.Context) *ingest.Orchestrator {
	o, _ := ctx.Value(OrchestratorKey).(*ingest.Orchestrator)

	return o
}

// WithRelayClient 将上游客户端存储到 context 中.
func WithRelayClient(ctx context.Context, rc *relay.Client) context.Context {
	return context.WithValue(ctx, RelayClientKey, rc)
}

// GetRelayClient 从 context 中获取上游客户端.
func GetRelayClient(ctx context.Context) *relay.Client {
	rc, _ := ctx.Value(RelayClientKey).(*relay.Client)

	return rc
}

// GetMQClient 从 context 中获取 MQ 客户端.
func GetMQClient(ctx context.Context) *mqc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetMQClient()
	}

	return nil
}

// GetKVClient 从 context 中获取 KV 客户端.
func GetKVClient(ctx context.Context) *kvc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetKVClient()
	}

	return nil
}

// WithTraceContext 为 logger 附加当前 span 的 trace_id/span_id.
func WithTraceContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return logger.With().
			Str("trace_id", span.SpanContext().TraceID().String()).
			Str("span_id", span.SpanContext().SpanID().String()).
			Logger()
	}

	return logger
}
