// Package mq 基于 Watermill 的消息队列客户端，按 mq.type 选择 NATS（可选 JetStream）或 Redis.
//
//	client, err := mq.New(ctx)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	err = client.Publish(ctx, queue.TopicFileStored, msg)
package mq

import (
	"context"
	"errors"
	"fmt"
	"sync"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yeisme/relayvault/pkg/configs"
	nlog "github.com/yeisme/relayvault/pkg/log"
	appmetrics "github.com/yeisme/relayvault/pkg/metrics"
)

// Factory 定义创建 Publisher + Subscriber 的工厂函数.
type Factory func(ctx context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error)

var factories = map[configs.MQType]Factory{}

// RegisterFactory 注册指定 MQType 的工厂.
func RegisterFactory(t configs.MQType, f Factory) {
	factories[t] = f
}

// RegisteredTypes 返回已注册的 MQ 类型.
func RegisteredTypes() []configs.MQType {
	types := make([]configs.MQType, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}

	return types
}

// Client 封装 watermill Publisher 与 Subscriber.
type Client struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	mqType     configs.MQType
}

// NewClient 用已有的 Publisher/Subscriber 构造客户端，便于测试注入 gochannel.
func NewClient(pub message.Publisher, sub message.Subscriber) *Client {
	return &Client{publisher: pub, subscriber: sub}
}

// Type 返回底层 MQ 类型.
func (c *Client) Type() configs.MQType {
	return c.mqType
}

// Publish 发布一条或多条消息，ctx 会绑定到消息上.
func (c *Client) Publish(ctx context.Context, topic string, msgs ...*message.Message) error {
	if c == nil || c.publisher == nil {
		return fmt.Errorf("mq publisher not initialized")
	}

	for _, m := range msgs {
		m.SetContext(ctx)
	}

	return c.publisher.Publish(topic, msgs...)
}

// Subscribe 订阅主题.
func (c *Client) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if c == nil || c.subscriber == nil {
		return nil, fmt.Errorf("mq subscriber not initialized")
	}

	return c.subscriber.Subscribe(ctx, topic)
}

// Close 关闭资源.
func (c *Client) Close() error {
	var errs []error

	if c.publisher != nil {
		errs = append(errs, c.publisher.Close())
	}

	if c.subscriber != nil {
		errs = append(errs, c.subscriber.Close())
	}

	return errors.Join(errs...)
}

var (
	mqOnce sync.Once
	mqInst *Client
	mqErr  error
)

// New 初始化消息队列（单例）.
func New(ctx context.Context) (*Client, error) {
	mqOnce.Do(func() {
		cfg := configs.GetConfig()
		mqCfg := cfg.MQ

		factory, ok := factories[mqCfg.Type]
		if !ok {
			mqErr = fmt.Errorf("unsupported mq type: %s", mqCfg.Type)

			return
		}

		logger := &zerologAdapter{l: nlog.Logger()}

		pub, sub, err := factory(ctx, &mqCfg, logger)
		if err != nil {
			mqErr = fmt.Errorf("init mq (%s): %w", mqCfg.Type, err)

			return
		}

		if cfg.Metrics.Enabled && mqCfg.Common.EnableMetrics {
			builder := metrics.NewPrometheusMetricsBuilder(appmetrics.GetRegistry(), "relayvault", "mq")

			if pub, err = builder.DecoratePublisher(pub); err != nil {
				mqErr = fmt.Errorf("decorate publisher with metrics: %w", err)

				return
			}

			if sub, err = builder.DecorateSubscriber(sub); err != nil {
				mqErr = fmt.Errorf("decorate subscriber with metrics: %w", err)

				return
			}
		}

		mqInst = &Client{publisher: pub, subscriber: sub, mqType: mqCfg.Type}

		nlog.Logger().Info().Str("type", string(mqCfg.Type)).Msg("mq client initialized")
	})

	return mqInst, mqErr
}
