package models

import (
	"time"

	"gorm.io/gorm"
)

// PromotionRuleAction 促销规则动作参照表
type PromotionRuleAction struct {
	ID   uint   `gorm:"primarykey" json:"id"`                   // 主键
	Name string `gorm:"type:varchar(80);not null" json:"name"` // 动作名称
}

// TableName 指定表名
func (PromotionRuleAction) TableName() string {
	return "promotion_rule_actions"
}

// PromotionRuleEvent 促销规则触发事件参照表
type PromotionRuleEvent struct {
	ID   uint   `gorm:"primarykey" json:"id"`                   // 主键
	Name string `gorm:"type:varchar(80);not null" json:"name"` // 事件名称
}

// TableName 指定表名
func (PromotionRuleEvent) TableName() string {
	return "promotion_rule_events"
}

// PromotionRule 促销规则表（定义触发事件、动作与受益方）
type PromotionRule struct {
	ID              uint                 `gorm:"primarykey" json:"id"`                                      // 主键
	ActionID        uint                 `gorm:"index;not null" json:"promotion_rule_action_id"`            // 动作ID
	EventID         uint                 `gorm:"index;not null" json:"promotion_rule_event_id"`             // 事件ID
	MaxUsage        int                  `gorm:"not null;default:0" json:"max_usage"`                       // 单码最大使用次数（0 表示不限制）
	Beneficiary     int                  `gorm:"not null;default:0" json:"beneficiary"`                     // 受益方（0=被推荐人 1=推荐人 2=双方）
	RuleDescription string               `gorm:"type:text" json:"rule_description"`                         // 描述
	CreatedAt       time.Time            `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt       time.Time            `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt       gorm.DeletedAt       `gorm:"index" json:"-"`                                            // 软删除时间
	Action          *PromotionRuleAction `gorm:"foreignKey:ActionID" json:"action,omitempty"`               // 动作信息
	Event           *PromotionRuleEvent  `gorm:"foreignKey:EventID" json:"event,omitempty"`                 // 事件信息
}

// TableName 指定表名
func (PromotionRule) TableName() string {
	return "promotion_rules"
}
