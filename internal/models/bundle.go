package models

import (
	"time"

	"gorm.io/gorm"
)

// Bundle eSIM 套餐表
type Bundle struct {
	ID           uint           `gorm:"primarykey" json:"id"`                                    // 主键
	Code         string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`       // 套餐编码
	Name         string         `gorm:"type:varchar(160);not null" json:"name"`                  // 名称
	Description  string         `gorm:"type:text" json:"description"`                            // 描述
	Price        Money          `gorm:"type:decimal(20,2);not null" json:"price"`                // 售价
	Currency     string         `gorm:"type:varchar(16);not null;default:'EUR'" json:"currency"` // 币种
	DataAmountMB int64          `gorm:"not null;default:0" json:"data_amount_mb"`                // 流量额度（MB，-1 表示不限量）
	ValidityDays int            `gorm:"not null;default:0" json:"validity_days"`                 // 有效天数
	Countries    JSON           `gorm:"type:text" json:"countries"`                              // 覆盖国家 JSON
	IsActive     bool           `gorm:"not null;default:true" json:"is_active"`                  // 是否上架
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                                 // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                          // 软删除时间
	Tags         []BundleTag    `gorm:"foreignKey:BundleID" json:"tags,omitempty"`               // 标签
}

// TableName 指定表名
func (Bundle) TableName() string {
	return "bundles"
}

// BundleTag 套餐标签表
type BundleTag struct {
	ID       uint   `gorm:"primarykey" json:"id"`                      // 主键
	BundleID uint   `gorm:"index;not null" json:"bundle_id"`           // 套餐ID
	Tag      string `gorm:"type:varchar(64);index;not null" json:"tag"` // 标签
}

// TableName 指定表名
func (BundleTag) TableName() string {
	return "bundle_tags"
}
