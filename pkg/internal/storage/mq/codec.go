package mq

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
)

type redisEnvelope struct {
	UUID     string            `json:"uuid"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Payload  []byte            `json:"payload"`
}

func encodeRedisMessage(msg *message.Message) ([]byte, error) {
	env := redisEnvelope{UUID: msg.UUID, Metadata: msg.Metadata, Payload: msg.Payload}

	b, err := sonic.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode message %s: %w", msg.UUID, err)
	}

	return b, nil
}

func decodeRedisMessage(b []byte) (*message.Message, error) {
	var env redisEnvelope
	if err := sonic.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}

	msg := message.NewMessage(env.UUID, env.Payload)
	for k, v := range env.Metadata {
		msg.Metadata.Set(k, v)
	}

	return msg, nil
}
