package model

import (
	"fmt"

	"github.com/bytedance/sonic"
)

const (
	LabelNone        = "None"        // 未审核或审核失败时的默认标签
	ListTypeNone     = "None"        // 未加入黑白名单
	ChannelTypeRelay = "TelegramNew" // 媒体组中继写入的记录
)

// FileRecord 单个已中继文件的元数据，以 storage id 为键存入 KV.
// 写入后只允许回填 Label.
type FileRecord struct {
	FileName         string   `json:"fileName"`
	MimeType         string   `json:"mimeType"`
	SizeBytes        int64    `json:"sizeBytes"`
	FileSizeMB       string   `json:"fileSizeMB"`
	UploaderIP       string   `json:"uploaderIp"`
	UploaderLocation string   `json:"uploaderLocation"`
	Timestamp        int64    `json:"timestamp"` // unix 毫秒
	Directory        string   `json:"directory"`
	ListType         string   `json:"listType"`
	Label            string   `json:"label"`
	Tags             []string `json:"tags"`
	Width            int      `json:"width,omitempty"`
	Height           int      `json:"height,omitempty"`

	ChannelType          string `json:"channelType,omitempty"`
	ChannelName          string `json:"channelName,omitempty"`
	UpstreamFileID       string `json:"upstreamFileId,omitempty"`
	UpstreamChatID       string `json:"upstreamChatId,omitempty"`
	UpstreamMessageID    int64  `json:"upstreamMessageId,omitempty"`
	UpstreamMediaGroupID string `json:"upstreamMediaGroupId,omitempty"`
	ProxyURL             string `json:"proxyUrl,omitempty"`
}

// SetSize 同时更新字节数与 MB 展示值.
func (r *FileRecord) SetSize(n int64) {
	r.SizeBytes = n
	r.FileSizeMB = fmt.Sprintf("%.2f", float64(n)/1024/1024)
}

// Encode 编码为存储格式.
func (r *FileRecord) Encode() ([]byte, error) {
	return sonic.Marshal(r)
}

// DecodeFileRecord 解码存储中的记录.
func DecodeFileRecord(b []byte) (*FileRecord, error) {
	var r FileRecord
	if err := sonic.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("decode file record: %w", err)
	}

	return &r, nil
}
