package models

import (
	"time"

	"gorm.io/gorm"
)

// PromotionUsage 促销码使用记录表（只追加）
type PromotionUsage struct {
	ID          uint           `gorm:"primarykey" json:"id"`                         // 主键
	PromotionID uint           `gorm:"index;not null" json:"promotion_id"`           // 促销码ID
	UserID      uint           `gorm:"index;not null" json:"user_id"`                // 用户ID
	BundleID    *uint          `gorm:"index" json:"bundle_id"`                       // 套餐ID（推荐码场景可为空）
	OrderID     *uint          `gorm:"index" json:"order_id"`                        // 订单ID
	Amount      Money          `gorm:"type:decimal(20,2);not null" json:"amount"`    // 优惠金额
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                      // 使用时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                               // 软删除时间
	Promotion   *Promotion     `gorm:"foreignKey:PromotionID" json:"promotion,omitempty"` // 促销码信息
	Bundle      *Bundle        `gorm:"foreignKey:BundleID" json:"bundle,omitempty"`  // 套餐信息
	User        *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`      // 用户信息
}

// TableName 指定表名
func (PromotionUsage) TableName() string {
	return "promotion_usages"
}
