package models

import (
	"time"

	"gorm.io/gorm"
)

// Partner 渠道伙伴表
type Partner struct {
	ID          uint           `gorm:"primarykey" json:"id"`                              // 主键
	Name        string         `gorm:"type:varchar(120);not null" json:"name"`            // 名称
	CodePrefix  string         `gorm:"type:varchar(2);uniqueIndex;not null" json:"code_prefix"` // 代金券码前缀（固定 2 个字母）
	ContactInfo JSON           `gorm:"type:text" json:"contact_info"`                     // 联系方式 JSON
	IsActive    bool           `gorm:"not null;default:true" json:"is_active"`            // 是否启用
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                           // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                           // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                    // 软删除时间
}

// TableName 指定表名
func (Partner) TableName() string {
	return "partners"
}
