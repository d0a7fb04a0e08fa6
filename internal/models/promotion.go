package models

import (
	"time"

	"gorm.io/gorm"
)

// Promotion 促销/推荐码表
type Promotion struct {
	ID         uint           `gorm:"primarykey" json:"id"`                              // 主键
	Code       string         `gorm:"type:varchar(32);uniqueIndex;not null" json:"code"` // 码值（大写字母数字与连字符）
	Name       string         `gorm:"type:varchar(160);not null" json:"name"`            // 名称
	Type       string         `gorm:"type:varchar(16);index;not null" json:"type"`       // 类型（PROMOTION/REFERRAL）
	Amount     Money          `gorm:"type:decimal(20,2);not null" json:"amount"`         // 优惠金额
	BundleCode *string        `gorm:"type:varchar(64);index" json:"bundle_code"`         // 适用套餐编码（为空表示全部套餐）
	RuleID     uint           `gorm:"index;not null" json:"rule_id"`                     // 规则ID
	ValidFrom  *time.Time     `gorm:"index" json:"valid_from"`                           // 生效时间（含当天起点）
	ValidTo    *time.Time     `gorm:"index" json:"valid_to"`                             // 失效时间（含当天终点）
	IsActive   bool           `gorm:"not null;default:true" json:"is_active"`            // 是否启用
	TimesUsed  int            `gorm:"not null;default:0" json:"times_used"`              // 已使用次数
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                           // 创建时间
	UpdatedAt  time.Time      `gorm:"index" json:"updated_at"`                           // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                                    // 软删除时间
	Rule       *PromotionRule `gorm:"foreignKey:RuleID" json:"rule,omitempty"`           // 规则信息
}

// TableName 指定表名
func (Promotion) TableName() string {
	return "promotions"
}

// IsExpired 判断促销码在给定时间点是否已过期
func (p Promotion) IsExpired(now time.Time) bool {
	if p.ValidTo == nil || p.ValidTo.IsZero() {
		return false
	}
	return p.ValidTo.Before(now)
}
