// Package model 定义 GORM 数据模型.
package model

import (
	"time"
)

// KVEntry kv.type=db 时一条键值记录，元数据与幂等记录都保存在此表.
type KVEntry struct {
	Key   string `gorm:"column:entry_key;primaryKey;size:512" json:"key"`
	Value []byte `gorm:"not null"                             json:"value"`
	// ExpiresAt 为空表示不过期
	ExpiresAt *time.Time `gorm:"index" json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName 固定表名.
func (KVEntry) TableName() string {
	return "kv_entries"
}

// Expired 判断记录在 now 时刻是否已过期.
func (e *KVEntry) Expired(now time.Time) bool {
	return e.ExpiresAt != nil && !now.Before(*e.ExpiresAt)
}
