package queue

import "github.com/ThreeDotsLabs/watermill/message"

// ParseFileStored 解析 rv.file.stored 消息.
func ParseFileStored(msg *message.Message) (Message[FileStoredPayload], error) {
	return ParseWatermillMessage[FileStoredPayload](msg)
}

// ParseFileModerated 解析 rv.file.moderated 消息.
func ParseFileModerated(msg *message.Message) (Message[FileModeratedPayload], error) {
	return ParseWatermillMessage[FileModeratedPayload](msg)
}
