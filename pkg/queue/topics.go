package queue

// 主题命名：rv.<域>.<动作>.
const (
	TopicFileStored    = "rv.file.stored"    // 元数据记录已写入，文件可检索
	TopicFileModerated = "rv.file.moderated" // 审核标签已回填
)

// Topics 全部主题，供 CLI 订阅与调试.
var Topics = []string{TopicFileStored, TopicFileModerated}
