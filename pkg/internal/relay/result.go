package relay

// MediaKind 上游单条消息携带的媒体种类.
type MediaKind int

const (
	MediaNone MediaKind = iota
	MediaPhoto
	MediaVideo
	MediaAudio
	MediaDocument
)

func (k MediaKind) String() string {
	switch k {
	case MediaPhoto:
		return "photo"
	case MediaVideo:
		return "video"
	case MediaAudio:
		return "audio"
	case MediaDocument:
		return "document"
	default:
		return "none"
	}
}

// FileObject 上游文件描述（PhotoSize/Video/Audio/Document 的公共字段）.
type FileObject struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	FileName     string `json:"file_name,omitempty"`
	FileSize     int64  `json:"file_size,omitempty"`
	MimeType     string `json:"mime_type,omitempty"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
}

// Message sendMediaGroup 返回的单条消息.
type Message struct {
	MessageID    int64        `json:"message_id"`
	MediaGroupID string       `json:"media_group_id,omitempty"`
	Photo        []FileObject `json:"photo,omitempty"`
	Video        *FileObject  `json:"video,omitempty"`
	Audio        *FileObject  `json:"audio,omitempty"`
	Document     *FileObject  `json:"document,omitempty"`
}

// Media 按 photo → video → document → audio 的顺序识别消息中的媒体.
// photo 取 file_size 最大的尺寸.
func (m Message) Media() (MediaKind, *FileObject) {
	switch {
	case len(m.Photo) > 0:
		largest := &m.Photo[0]
		for i := range m.Photo[1:] {
			if m.Photo[i+1].FileSize > largest.FileSize {
				largest = &m.Photo[i+1]
			}
		}

		return MediaPhoto, largest
	case m.Video != nil:
		return MediaVideo, m.Video
	case m.Document != nil:
		return MediaDocument, m.Document
	case m.Audio != nil:
		return MediaAudio, m.Audio
	default:
		return MediaNone, nil
	}
}

// RawResult sendMediaGroup 的原始结果，Result 与发送的附件顺序一致.
type RawResult struct {
	OK     bool      `json:"ok"`
	Result []Message `json:"result"`
}

// FileInfo 从结果中提取的单个文件.
type FileInfo struct {
	ID        string
	Name      string
	SizeBytes int64
	MessageID int64
	GroupID   string
	Kind      MediaKind
}

// ExtractBatchFileInfos 依序提取每条消息中的文件.
// 识别不到媒体的消息不产生条目；ID 为空的条目保留，由调用方按位置报错.
func ExtractBatchFileInfos(res *RawResult) []FileInfo {
	if res == nil || !res.OK {
		return nil
	}

	infos := make([]FileInfo, 0, len(res.Result))

	for _, msg := range res.Result {
		kind, obj := msg.Media()
		if kind == MediaNone {
			continue
		}

		name := obj.FileName
		if name == "" {
			name = obj.FileUniqueID
		}

		infos = append(infos, FileInfo{
			ID:        obj.FileID,
			Name:      name,
			SizeBytes: obj.FileSize,
			MessageID: msg.MessageID,
			GroupID:   msg.MediaGroupID,
			Kind:      kind,
		})
	}

	return infos
}
