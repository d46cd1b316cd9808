// Package kv 提供元数据记录使用的键值存储接口和多种后端实现.
//
// 后端通过 RegisterKVFactory 在 init 中注册，按 kv.type 选择:
// memory、redis、nats、groupcache、s3、db.
package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yeisme/relayvault/pkg/configs"
)

// ErrKeyNotFound 键不存在（或已过期）.
var ErrKeyNotFound = errors.New("key not found")

// Client 包装当前配置选择的 KVStore.
type Client struct {
	KVStore
	Type KVType
}

// KVStore 定义键值存储接口.
type KVStore interface {
	// Get 获取键的值，不存在时返回的错误满足 errors.Is(err, ErrKeyNotFound).
	Get(ctx context.Context, key string) ([]byte, error)
	// Set 设置键的值，ttl<=0 表示不过期.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete 删除键，键不存在不视为错误.
	Delete(ctx context.Context, key string) error
	// Exists 检查键是否存在.
	Exists(ctx context.Context, key string) (bool, error)
	// Keys 返回匹配 pattern 的键，pattern 只支持 * 通配，空串表示全部.
	Keys(ctx context.Context, pattern string) ([]string, error)
	// Close 关闭存储连接.
	Close() error
}

// KVType 键值存储类型.
type KVType string

const (
	KVTypeMemory     KVType = configs.KVTypeMemory
	KVTypeRedis      KVType = configs.KVTypeRedis
	KVTypeNATS       KVType = configs.KVTypeNATS
	KVTypeGroupcache KVType = configs.KVTypeGroupcache
	KVTypeS3         KVType = configs.KVTypeS3
	KVTypeDB         KVType = configs.KVTypeDB
)

// KVFactory 定义创建 KVStore 的工厂函数类型.
type KVFactory func(ctx context.Context, config any) (KVStore, error)

var kvFactories = make(map[KVType]KVFactory)

// RegisterKVFactory 注册 KV 工厂函数.
func RegisterKVFactory(kvType KVType, factory KVFactory) {
	kvFactories[kvType] = factory
}

// GetRegisteredKVTypes 返回已注册的 KV 类型列表.
func GetRegisteredKVTypes() []KVType {
	types := make([]KVType, 0, len(kvFactories))
	for kvType := range kvFactories {
		types = append(types, kvType)
	}

	return types
}

// NewKVStore 根据类型创建 KVStore 实例.
func NewKVStore(ctx context.Context, kvType KVType, config any) (KVStore, error) {
	factory, exists := kvFactories[kvType]
	if !exists {
		return nil, fmt.Errorf("unsupported KV type: %s", kvType)
	}

	return factory(ctx, config)
}

// NewKVClient 按全局配置创建 KV 客户端.
func NewKVClient(ctx context.Context) (*Client, error) {
	cfg := configs.GetConfig()
	kvType := KVType(cfg.KV.Type)

	store, err := NewKVStore(ctx, kvType, factoryConfig(cfg, kvType))
	if err != nil {
		return nil, err
	}

	return &Client{KVStore: store, Type: kvType}, nil
}

// factoryConfig 为各后端挑选其工厂需要的配置段.
func factoryConfig(cfg *configs.AppConfig, kvType KVType) any {
	switch kvType {
	case KVTypeRedis:
		return &cfg.KV.Redis
	case KVTypeNATS:
		return &cfg.KV.NATS
	case KVTypeGroupcache:
		return &cfg.KV.Groupcache
	case KVTypeS3:
		return &S3Options{S3: cfg.S3, Prefix: cfg.KV.S3.Prefix}
	case KVTypeDB:
		return &DBOptions{DB: cfg.DB, AutoMigrate: cfg.KV.DB.AutoMigrate}
	default:
		return nil
	}
}

func notFound(key string) error {
	return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
}

// MatchPattern 判断 key 是否匹配只含 * 通配符的 pattern，* 可以匹配包括 / 在内的任意字符.
func MatchPattern(pattern, key string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}

	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return pattern == key
	}

	if !strings.HasPrefix(key, parts[0]) {
		return false
	}

	rest := key[len(parts[0]):]
	last := parts[len(parts)-1]

	for _, mid := range parts[1 : len(parts)-1] {
		idx := strings.Index(rest, mid)
		if idx < 0 {
			return false
		}

		rest = rest[idx+len(mid):]
	}

	return len(rest) >= len(last) && strings.HasSuffix(rest, last)
}
