package kv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	minio "github.com/minio/minio-go/v7"

	"github.com/yeisme/relayvault/pkg/configs"
	s3c "github.com/yeisme/relayvault/pkg/internal/storage/s3"
)

// S3Options kv.type=s3 的工厂参数.
type S3Options struct {
	S3     configs.S3Config
	Prefix string
}

// S3KV 每个键对应一个对象，TTL 使用包装格式惰性过期.
type S3KV struct {
	client *s3c.Client
	prefix string
}

// NewS3KV 连接对象存储并创建 KV 实例.
func NewS3KV(ctx context.Context, config any) (KVStore, error) {
	opts, ok := config.(*S3Options)
	if !ok {
		return nil, fmt.Errorf("invalid S3 KV config")
	}

	client, err := s3c.New(ctx, &opts.S3)
	if err != nil {
		return nil, err
	}

	return &S3KV{client: client, prefix: opts.Prefix}, nil
}

func (s *S3KV) object(key string) string {
	return s.prefix + key
}

// Get 获取键的值.
func (s *S3KV) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.client.Bucket, s.object(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}
	defer obj.Close()

	raw, err := io.ReadAll(obj)
	if err != nil {
		if s3c.IsNotFound(err) {
			return nil, notFound(key)
		}

		return nil, fmt.Errorf("failed to read key: %w", err)
	}

	val, expired, _, err := decodeWithTTL(raw, time.Now())
	if err != nil {
		return nil, err
	}

	if expired {
		_ = s.Delete(ctx, key)

		return nil, notFound(key)
	}

	return val, nil
}

// Set 写入对象.
func (s *S3KV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, _, err := encodeWithTTL(value, ttl)
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, s.client.Bucket, s.object(key), bytes.NewReader(encoded), int64(len(encoded)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}

	return nil
}

// Delete 删除对象.
func (s *S3KV) Delete(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.client.Bucket, s.object(key), minio.RemoveObjectOptions{})
	if err != nil && !s3c.IsNotFound(err) {
		return fmt.Errorf("failed to delete key: %w", err)
	}

	return nil
}

// Exists 检查对象是否存在且未过期.
func (s *S3KV) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.Get(ctx, key)
	if err == nil {
		return true, nil
	}

	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}

	return false, err
}

// Keys 列出前缀下的对象并按 pattern 过滤，不检查 TTL.
func (s *S3KV) Keys(ctx context.Context, pattern string) ([]string, error) {
	listPrefix := s.prefix
	if idx := strings.IndexByte(pattern, '*'); idx > 0 {
		listPrefix += pattern[:idx]
	} else if idx < 0 && pattern != "" {
		listPrefix += pattern
	}

	keys := make([]string, 0)

	for info := range s.client.ListObjects(ctx, s.client.Bucket, minio.ListObjectsOptions{
		Prefix:    listPrefix,
		Recursive: true,
	}) {
		if info.Err != nil {
			return nil, fmt.Errorf("failed to list keys: %w", info.Err)
		}

		key := strings.TrimPrefix(info.Key, s.prefix)
		if MatchPattern(pattern, key) {
			keys = append(keys, key)
		}
	}

	return keys, nil
}

// Close 关闭客户端.
func (s *S3KV) Close() error {
	return s.client.Close()
}

func init() {
	RegisterKVFactory(KVTypeS3, NewS3KV)
}
