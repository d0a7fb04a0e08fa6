package models

import (
	"time"

	"gorm.io/gorm"
)

// EsimProfile eSIM Profile 表
type EsimProfile struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                // 主键
	ICCID          string         `gorm:"column:iccid;type:varchar(32);uniqueIndex;not null" json:"iccid"` // ICCID
	UserID         *uint          `gorm:"index" json:"user_id"`                                // 归属用户ID（未分配时为空）
	BundleID       *uint          `gorm:"index" json:"bundle_id"`                              // 当前套餐ID
	Status         string         `gorm:"type:varchar(24);index;not null" json:"status"`       // 状态
	DataUsedMB     int64          `gorm:"not null;default:0" json:"data_used_mb"`              // 已用流量（MB）
	LastSyncedAt   *time.Time     `gorm:"index" json:"last_synced_at"`                         // 最近一次用量同步时间
	ActivatedAt    *time.Time     `json:"activated_at"`                                        // 激活时间
	ExpiresAt      *time.Time     `gorm:"index" json:"expires_at"`                             // 过期时间
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                             // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                             // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                      // 软删除时间
	User           *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`             // 用户信息
	Bundle         *Bundle        `gorm:"foreignKey:BundleID" json:"bundle,omitempty"`         // 套餐信息
}

// TableName 指定表名
func (EsimProfile) TableName() string {
	return "esim_profiles"
}
