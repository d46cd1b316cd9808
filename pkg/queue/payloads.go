package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
type EventHeader struct {
	// EventID 事件 ID，同一业务事实应保持确定，便于 JetStream 去重与消费端幂等.
	EventID string `json:"event_id,omitempty"`
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// FileRef 标识一个已中继的文件.
type FileRef struct {
	StorageID   string `json:"storage_id"`
	FileName    string `json:"file_name"`
	MimeType    string `json:"mime_type"`
	SizeBytes   int64  `json:"size_bytes"`
	Directory   string `json:"directory,omitempty"`
	ChannelName string `json:"channel_name"`
	MessageID   int64  `json:"message_id"`
}

// FileStoredPayload rv.file.stored 负载.
type FileStoredPayload struct {
	File         FileRef `json:"file"`
	RequestID    string  `json:"request_id,omitempty"`
	MediaGroupID string  `json:"media_group_id,omitempty"`
}

// FileModeratedPayload rv.file.moderated 负载.
type FileModeratedPayload struct {
	StorageID string `json:"storage_id"`
	Label     string `json:"label"`
}
