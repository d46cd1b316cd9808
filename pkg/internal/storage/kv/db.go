package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeisme/relayvault/pkg/configs"
	"github.com/yeisme/relayvault/pkg/internal/model"
	dbc "github.com/yeisme/relayvault/pkg/internal/storage/db"
)

// DBOptions kv.type=db 的工厂参数.
type DBOptions struct {
	DB          configs.DBConfig
	AutoMigrate bool
}

// DBKV 基于 GORM 数据表的 KV 实现，TTL 保存在 expires_at 列.
type DBKV struct {
	db     *gorm.DB
	closer func() error
}

// NewDBKV 按配置连接数据库并创建 KV 实例.
func NewDBKV(ctx context.Context, config any) (KVStore, error) {
	opts, ok := config.(*DBOptions)
	if !ok {
		return nil, fmt.Errorf("invalid DB KV config")
	}

	client, err := dbc.New(ctx, &opts.DB)
	if err != nil {
		return nil, err
	}

	store, err := NewDBKVFromGorm(ctx, client.DB, opts.AutoMigrate)
	if err != nil {
		return nil, err
	}

	return store, nil
}

// NewDBKVFromGorm 基于已有的 *gorm.DB 创建 KV 实例.
func NewDBKVFromGorm(ctx context.Context, gdb *gorm.DB, autoMigrate bool) (*DBKV, error) {
	if autoMigrate {
		if err := gdb.WithContext(ctx).AutoMigrate(&model.KVEntry{}); err != nil {
			return nil, fmt.Errorf("migrate kv_entries: %w", err)
		}
	}

	store := &DBKV{db: gdb}
	store.closer = func() error {
		sqlDB, err := gdb.DB()
		if err != nil {
			return err
		}

		return sqlDB.Close()
	}

	return store, nil
}

func (d *DBKV) find(ctx context.Context, key string) (*model.KVEntry, error) {
	var entry model.KVEntry

	err := d.db.WithContext(ctx).Where("entry_key = ?", key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(key)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	if entry.Expired(time.Now()) {
		_ = d.Delete(ctx, key)

		return nil, notFound(key)
	}

	return &entry, nil
}

// Get 获取键的值.
func (d *DBKV) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := d.find(ctx, key)
	if err != nil {
		return nil, err
	}

	return entry.Value, nil
}

// Set 插入或覆盖键的值.
func (d *DBKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	entry := model.KVEntry{Key: key, Value: value}
	if ttl > 0 {
		exp := time.Now().Add(ttl)
		entry.ExpiresAt = &exp
	}

	err := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}

	return nil
}

// Delete 删除键.
func (d *DBKV) Delete(ctx context.Context, key string) error {
	if err := d.db.WithContext(ctx).Where("entry_key = ?", key).Delete(&model.KVEntry{}).Error; err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}

	return nil
}

// Exists 检查键是否存在.
func (d *DBKV) Exists(ctx context.Context, key string) (bool, error) {
	_, err := d.find(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}

	return err == nil, err
}

// Keys 把 * 通配转换为 LIKE 查询.
func (d *DBKV) Keys(ctx context.Context, pattern string) ([]string, error) {
	q := d.db.WithContext(ctx).Model(&model.KVEntry{}).
		Where("expires_at IS NULL OR expires_at > ?", time.Now())

	if pattern != "" && pattern != "*" {
		q = q.Where("entry_key LIKE ? ESCAPE '!'", likePattern(pattern))
	}

	var keys []string
	if err := q.Order("entry_key").Pluck("entry_key", &keys).Error; err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	return keys, nil
}

func likePattern(pattern string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_", "*", "%")

	return r.Replace(pattern)
}

// Close 关闭底层连接.
func (d *DBKV) Close() error {
	return d.closer()
}

func init() {
	RegisterKVFactory(KVTypeDB, NewDBKV)
}
