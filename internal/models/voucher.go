package models

import (
	"time"

	"gorm.io/gorm"
)

// Voucher 代金券表
type Voucher struct {
	ID         uint           `gorm:"primarykey" json:"id"`                              // 主键
	Code       string         `gorm:"type:varchar(32);uniqueIndex;not null" json:"code"` // 券码（伙伴前缀 + 随机字符）
	Amount     Money          `gorm:"type:decimal(20,2);not null" json:"amount"`         // 面额
	PartnerID  *uint          `gorm:"index" json:"partner_id"`                           // 伙伴ID（可为空）
	IsUsed     bool           `gorm:"not null;default:false;index" json:"is_used"`       // 是否已使用
	IsActive   bool           `gorm:"not null;default:true;index" json:"is_active"`      // 是否启用
	Exported   bool           `gorm:"not null;default:false;index" json:"exported"`      // 是否已导出
	ExportedAt *time.Time     `gorm:"index" json:"exported_at"`                          // 导出时间
	ExpiredAt  *time.Time     `gorm:"index" json:"expired_at"`                           // 过期时间
	UsedBy     *uint          `gorm:"index" json:"used_by"`                              // 使用用户ID
	UsedAt     *time.Time     `json:"used_at"`                                           // 使用时间
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                           // 创建时间
	UpdatedAt  time.Time      `gorm:"index" json:"updated_at"`                           // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                                    // 软删除时间
	Partner    *Partner       `gorm:"foreignKey:PartnerID" json:"partner,omitempty"`     // 伙伴信息
}

// TableName 指定表名
func (Voucher) TableName() string {
	return "vouchers"
}
