package mq

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"

	"github.com/yeisme/relayvault/pkg/configs"
)

// DefaultChannelBufferSize 订阅通道缓冲区大小.
const DefaultChannelBufferSize = 100

// RedisPublisher 基于 Redis Pub/Sub 的 Publisher.
type RedisPublisher struct {
	client *redis.Client
}

// RedisSubscriber 基于 Redis Pub/Sub 的 Subscriber，不保证投递.
type RedisSubscriber struct {
	client  *redis.Client
	subs    []*redis.PubSub
	mu      sync.Mutex
	closed  bool
	closeCh chan struct{}
	logger  watermill.LoggerAdapter
}

func init() {
	RegisterFactory(configs.MQTypeRedis, redisFactory)
}

func redisFactory(
	ctx context.Context,
	cfg *configs.MQConfig,
	logger watermill.LoggerAdapter) (
	message.Publisher, message.Subscriber, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()

		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}

	pub := &RedisPublisher{client: rdb}
	sub := &RedisSubscriber{client: rdb, closeCh: make(chan struct{}), logger: logger}

	return pub, sub, nil
}

// Publish 实现 message.Publisher，UUID 与 metadata 随 payload 一起编码.
func (p *RedisPublisher) Publish(topic string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		ctx := msg.Context()

		body, err := encodeRedisMessage(msg)
		if err != nil {
			return err
		}

		if err := p.client.Publish(ctx, topic, body).Err(); err != nil {
			return fmt.Errorf("publish %s: %w", topic, err)
		}
	}

	return nil
}

// Close 实现 message.Publisher，连接由 Subscriber 统一关闭.
func (p *RedisPublisher) Close() error {
	return nil
}

// Subscribe 实现 message.Subscriber.
func (s *RedisSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("subscriber closed")
	}

	ps := s.client.Subscribe(ctx, topic)
	s.subs = append(s.subs, ps)

	out := make(chan *message.Message, DefaultChannelBufferSize)

	go func() {
		defer close(out)

		in := ps.Channel()

		for {
			select {
			case <-s.closeCh:
				return
			case <-ctx.Done():
				return
			case raw, ok := <-in:
				if !ok {
					return
				}

				msg, err := decodeRedisMessage([]byte(raw.Payload))
				if err != nil {
					s.logger.Error("drop undecodable message", err, watermill.LogFields{"topic": topic})

					continue
				}

				select {
				case out <- msg:
				case <-s.closeCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close 实现 message.Subscriber.
func (s *RedisSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	close(s.closeCh)

	errs := make([]error, 0, len(s.subs)+1)
	for _, ps := range s.subs {
		errs = append(errs, ps.Close())
	}

	errs = append(errs, s.client.Close())

	return errors.Join(errs...)
}
