package models

import (
	"time"

	"gorm.io/gorm"
)

// User 终端用户表
type User struct {
	ID          uint           `gorm:"primarykey" json:"id"`              // 主键
	Email       string         `gorm:"uniqueIndex;not null" json:"email"` // 邮箱
	DisplayName string         `gorm:"default:''" json:"display_name"`    // 昵称
	Phone       string         `gorm:"default:''" json:"phone"`           // 手机号
	Locale      string         `gorm:"default:'en-US'" json:"locale"`     // 语言偏好
	Status      string         `gorm:"default:'active'" json:"status"`    // 账号状态
	ReferralID  string         `gorm:"index;default:''" json:"referral_id"` // 用户自己的推荐码
	LastLoginAt *time.Time     `json:"last_login_at"`                     // 最后登录时间
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`           // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`           // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                    // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
