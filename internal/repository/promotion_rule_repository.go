package repository

import (
	"errors"

	"github.com/esim-backoffice/internal/models"

	"gorm.io/gorm"
)

// PromotionRuleRepository 促销规则数据访问接口
type PromotionRuleRepository interface {
	GetByID(id uint) (*models.PromotionRule, error)
	ListAll() ([]models.PromotionRule, error)
	Create(rule *models.PromotionRule) error
	Update(rule *models.PromotionRule) error
	Delete(id uint) error
	CountPromotions(ruleID uint) (int64, error)
	ListActions() ([]models.PromotionRuleAction, error)
	ListEvents() ([]models.PromotionRuleEvent, error)
	WithTx(tx *gorm.DB) *GormPromotionRuleRepository
}

// GormPromotionRuleRepository GORM 实现
type GormPromotionRuleRepository struct {
	db *gorm.DB
}

// NewPromotionRuleRepository 创建促销规则仓库
func NewPromotionRuleRepository(db *gorm.DB) *GormPromotionRuleRepository {
	return &GormPromotionRuleRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPromotionRuleRepository) WithTx(tx *gorm.DB) *GormPromotionRuleRepository {
	if tx == nil {
		return r
	}
	return &GormPromotionRuleRepository{db: tx}
}

// GetByID 根据ID获取促销规则
func (r *GormPromotionRuleRepository) GetByID(id uint) (*models.PromotionRule, error) {
	var rule models.PromotionRule
	if err := r.db.Preload("Action").Preload("Event").First(&rule, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

// ListAll 获取全部促销规则
func (r *GormPromotionRuleRepository) ListAll() ([]models.PromotionRule, error) {
	var rules []models.PromotionRule
	if err := r.db.Preload("Action").Preload("Event").Order("id").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// Create 创建促销规则
func (r *GormPromotionRuleRepository) Create(rule *models.PromotionRule) error {
	return r.db.Create(rule).Error
}

// Update 更新促销规则
func (r *GormPromotionRuleRepository) Update(rule *models.PromotionRule) error {
	return r.db.Save(rule).Error
}

// Delete 删除促销规则
func (r *GormPromotionRuleRepository) Delete(id uint) error {
	return r.db.Delete(&models.PromotionRule{}, id).Error
}

// CountPromotions 统计引用该规则的促销数量
func (r *GormPromotionRuleRepository) CountPromotions(ruleID uint) (int64, error) {
	var total int64
	err := r.db.Model(&models.Promotion{}).Where("rule_id = ?", ruleID).Count(&total).Error
	return total, err
}

// ListActions 获取全部规则动作
func (r *GormPromotionRuleRepository) ListActions() ([]models.PromotionRuleAction, error) {
	var actions []models.PromotionRuleAction
	if err := r.db.Order("id").Find(&actions).Error; err != nil {
		return nil, err
	}
	return actions, nil
}

// ListEvents 获取全部规则事件
func (r *GormPromotionRuleRepository) ListEvents() ([]models.PromotionRuleEvent, error) {
	var events []models.PromotionRuleEvent
	if err := r.db.Order("id").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
