package models

import (
	"time"

	"gorm.io/gorm"
)

// UserOrder 用户订单表
type UserOrder struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                    // 主键
	OrderNo        string         `gorm:"type:varchar(48);uniqueIndex;not null" json:"order_no"`   // 订单号
	UserID         uint           `gorm:"index;not null" json:"user_id"`                           // 用户ID
	BundleID       uint           `gorm:"index;not null" json:"bundle_id"`                         // 套餐ID
	Amount         Money          `gorm:"type:decimal(20,2);not null" json:"amount"`               // 实付金额
	Currency       string         `gorm:"type:varchar(16);not null;default:'EUR'" json:"currency"` // 币种
	Status         string         `gorm:"type:varchar(24);index;not null" json:"status"`           // 状态
	PromotionCode  string         `gorm:"type:varchar(32);index;default:''" json:"promotion_code"` // 使用的促销码
	PaymentRef     string         `gorm:"type:varchar(80);default:''" json:"payment_ref"`          // 外部支付引用
	RefundReason   string         `gorm:"type:text" json:"refund_reason"`                          // 退款原因
	RefundedAt     *time.Time     `gorm:"index" json:"refunded_at"`                                // 退款时间
	RefundedByID   *uint          `gorm:"index" json:"refunded_by_id"`                             // 操作退款的管理员ID
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                 // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                          // 软删除时间
	User           *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`                 // 用户信息
	Bundle         *Bundle        `gorm:"foreignKey:BundleID" json:"bundle,omitempty"`             // 套餐信息
}

// TableName 指定表名
func (UserOrder) TableName() string {
	return "user_orders"
}
