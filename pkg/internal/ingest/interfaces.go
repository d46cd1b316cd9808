package ingest

import (
	"context"
	"time"

	"github.com/yeisme/relayvault/pkg/configs"
	"github.com/yeisme/relayvault/pkg/internal/relay"
)

//go:generate mockgen -typed=false -destination=../mock/relay_mock.go -package=mock . Relay

// Relay 上游中继，由 *relay.Client 实现.
type Relay interface {
	SendBatch(ctx context.Context, t relay.Target, attachments []relay.Attachment, media []relay.MediaDescriptor) (*relay.RawResult, error)
	ResolveFilePath(ctx context.Context, t relay.Target, fileID string) (string, error)
	FileURL(t relay.Target, filePath string) string
}

// MetadataStore 元数据与幂等记录所在的键值存储，kv.KVStore 满足该接口.
type MetadataStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// UploadSettings 单次请求读取的上传配置快照.
type UploadSettings struct {
	Limits      configs.UploadLimits
	Channels    []Channel
	LoadBalance bool
}

// SecuritySettings 安全配置快照.
type SecuritySettings struct {
	ModerationEnabled bool
}

// ConfigStore 提供频道与策略配置.
type ConfigStore interface {
	UploadSettings(ctx context.Context) (UploadSettings, error)
	SecuritySettings(ctx context.Context) (SecuritySettings, error)
}

// TypeResolver 根据提示、文件名和内容确定 MIME 类型，无法确定时返回空串.
type TypeResolver interface {
	Resolve(hint, name string, content []byte) string
}

// IDBuilder 生成全局唯一的 storage id.
type IDBuilder interface {
	Build(name, mimeType string) (string, error)
}

// DimensionProber 读取图片宽高.
type DimensionProber interface {
	Probe(header []byte) (width, height int, err error)
}

// Moderator 内容审核，返回标签.
type Moderator interface {
	Score(ctx context.Context, url string) (string, error)
}

// Locator 根据 IP 返回粗略地理位置.
type Locator interface {
	Locate(ctx context.Context, ip string) string
}

// StoredEvent 元数据写入后的通知内容.
type StoredEvent struct {
	StorageID    string
	RequestID    string
	MediaGroupID string
	Channel      string
	FileName     string
	MimeType     string
	SizeBytes    int64
	Directory    string
	MessageID    int64
}

// Notifier 向外部簿记系统发送通知，失败只记录日志.
type Notifier interface {
	FileStored(ctx context.Context, ev StoredEvent) error
	FileModerated(ctx context.Context, storageID, label string) error
}
