package models

import "time"

// Currency 币种汇率表（相对默认币种）
type Currency struct {
	ID        uint      `gorm:"primarykey" json:"id"`                            // 主键
	Code      string    `gorm:"type:varchar(16);uniqueIndex;not null" json:"code"` // 币种代码
	Rate      Money     `gorm:"type:decimal(20,2);not null" json:"rate"`         // 对默认币种汇率
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`                         // 更新时间
}

// TableName 指定表名
func (Currency) TableName() string {
	return "currencies"
}
