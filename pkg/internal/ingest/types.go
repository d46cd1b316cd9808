package ingest

import (
	"github.com/yeisme/relayvault/pkg/internal/model"
	"github.com/yeisme/relayvault/pkg/internal/relay"
)

// RawFile 请求中的单个文件，未经解码.
type RawFile struct {
	Name         string
	MimeTypeHint string
	Content      string // base64，可带 data URL 前缀
	Caption      string
}

// BatchRequest 通过校验的批量上传请求.
type BatchRequest struct {
	Folder      string // 已规范化，不含首尾斜杠
	ChannelName string
	RequestID   string
	Files       []RawFile
}

// MediaType 上游媒体组中的条目类型.
type MediaType string

const (
	MediaPhoto    MediaType = "photo"
	MediaVideo    MediaType = "video"
	MediaAudio    MediaType = "audio"
	MediaDocument MediaType = "document"
)

// PreparedFile 一个请求内独占的已解码文件.
type PreparedFile struct {
	Index         int
	Name          string
	Data          []byte
	MimeType      string
	MediaType     MediaType
	EstimatedSize int64
	StorageID     string
	AttachKey     string
	Caption       string
	Record        model.FileRecord
}

// attachment 转为上游附件.
func (f *PreparedFile) attachment() relay.Attachment {
	return relay.Attachment{Key: f.AttachKey, FileName: f.Name, MimeType: f.MimeType, Data: f.Data}
}

func (f *PreparedFile) descriptor() relay.MediaDescriptor {
	return relay.MediaDescriptor{Type: string(f.MediaType), Media: relay.AttachRef(f.AttachKey), Caption: f.Caption}
}

// Channel 上游频道（只读配置）.
type Channel struct {
	Name     string
	BotToken string
	ChatID   string
	ProxyURL string
}

// Target 上游调用参数.
func (c Channel) Target() relay.Target {
	return relay.Target{BotToken: c.BotToken, ChatID: c.ChatID, ProxyURL: c.ProxyURL}
}

// ResultFile 响应中的单个文件.
type ResultFile struct {
	Name        string `json:"name"`
	StoragePath string `json:"storagePath"`
	StorageID   string `json:"storageId"`
	MessageID   int64  `json:"messageId,omitempty"`
}

// Result 成功响应，同时作为幂等记录的内容.
type Result struct {
	Success      bool         `json:"success"`
	RequestID    string       `json:"requestId,omitempty"`
	ChannelName  string       `json:"channelName"`
	MediaGroupID string       `json:"mediaGroupId,omitempty"`
	Files        []ResultFile `json:"files"`
	Idempotent   bool         `json:"idempotent,omitempty"`
}
