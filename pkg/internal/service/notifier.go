package service

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/relayvault/pkg/configs"
	"github.com/yeisme/relayvault/pkg/internal/ingest"
	"github.com/yeisme/relayvault/pkg/internal/storage/mq"
	"github.com/yeisme/relayvault/pkg/log"
	"github.com/yeisme/relayvault/pkg/queue"
)

const producerName = "relayvault"

// Notifier 把文件事件发布到消息队列，未配置 MQ 或事件关闭时什么也不做.
type Notifier struct {
	mq   *mq.Client
	load func() *configs.AppConfig
}

// NewNotifier mqc 可以为 nil.
func NewNotifier(mqc *mq.Client, load func() *configs.AppConfig) *Notifier {
	if load == nil {
		load = configs.GetConfig
	}

	return &Notifier{mq: mqc, load: load}
}

// FileStored 实现 ingest.Notifier.
func (n *Notifier) FileStored(ctx context.Context, ev ingest.StoredEvent) error {
	cfg := n.load().Events
	if n.mq == nil || !cfg.Enabled || !cfg.File.Stored {
		return nil
	}

	return publish(ctx, n.mq, queue.TopicFileStored, ev.StorageID, queue.FileStoredPayload{
		File: queue.FileRef{
			StorageID:   ev.StorageID,
			FileName:    ev.FileName,
			MimeType:    ev.MimeType,
			SizeBytes:   ev.SizeBytes,
			Directory:   ev.Directory,
			ChannelName: ev.Channel,
			MessageID:   ev.MessageID,
		},
		RequestID:    ev.RequestID,
		MediaGroupID: ev.MediaGroupID,
	})
}

// FileModerated 实现 ingest.Notifier.
func (n *Notifier) FileModerated(ctx context.Context, storageID, label string) error {
	cfg := n.load().Events
	if n.mq == nil || !cfg.Enabled || !cfg.File.Moderated {
		return nil
	}

	return publish(ctx, n.mq, queue.TopicFileModerated, storageID+":"+label, queue.FileModeratedPayload{
		StorageID: storageID,
		Label:     label,
	})
}

// publish 事件 ID 由主题和业务键确定，重复发布可被下游去重.
func publish[T any](ctx context.Context, client *mq.Client, topic, key string, payload T) error {
	msg, err := queue.NewWatermillMessage(topic, payload,
		queue.WithEventID(topic+":"+key),
		queue.WithProducer(producerName),
		queue.WithTraceID(traceID(ctx)),
	)
	if err != nil {
		return err
	}

	return client.Publish(ctx, topic, msg)
}

func traceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		return sc.TraceID().String()
	}

	return log.RequestID(ctx)
}
