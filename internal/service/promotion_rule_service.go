package service

import (
	"strings"

	"github.com/esim-backoffice/internal/constants"
	"github.com/esim-backoffice/internal/models"
	"github.com/esim-backoffice/internal/repository"
)

// PromotionRuleService 促销规则服务
type PromotionRuleService struct {
	repo repository.PromotionRuleRepository
}

// NewPromotionRuleService 创建促销规则服务
func NewPromotionRuleService(repo repository.PromotionRuleRepository) *PromotionRuleService {
	return &PromotionRuleService{repo: repo}
}

// SaveRuleInput 创建/更新规则输入
type SaveRuleInput struct {
	ActionID        uint
	EventID         uint
	MaxUsage        int
	Beneficiary     int
	RuleDescription string
}

// ListRules 获取全部规则
func (s *PromotionRuleService) ListRules() ([]models.PromotionRule, error) {
	if s == nil || s.repo == nil {
		return nil, ErrPromotionRuleFetchFailed
	}
	rules, err := s.repo.ListAll()
	if err != nil {
		return nil, ErrPromotionRuleFetchFailed
	}
	return rules, nil
}

// GetRule 获取规则详情
func (s *PromotionRuleService) GetRule(id uint) (*models.PromotionRule, error) {
	if s == nil || s.repo == nil || id == 0 {
		return nil, ErrPromotionRuleInvalid
	}
	rule, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrPromotionRuleFetchFailed
	}
	if rule == nil {
		return nil, ErrPromotionRuleNotFound
	}
	return rule, nil
}

// CreateRule 创建规则
func (s *PromotionRuleService) CreateRule(input SaveRuleInput) (*models.PromotionRule, error) {
	if s == nil || s.repo == nil {
		return nil, ErrPromotionRuleCreateFailed
	}
	if err := validateRuleInput(input); err != nil {
		return nil, err
	}
	rule := &models.PromotionRule{
		ActionID:        input.ActionID,
		EventID:         input.EventID,
		MaxUsage:        input.MaxUsage,
		Beneficiary:     input.Beneficiary,
		RuleDescription: strings.TrimSpace(input.RuleDescription),
	}
	if err := s.repo.Create(rule); err != nil {
		return nil, ErrPromotionRuleCreateFailed
	}
	return s.GetRule(rule.ID)
}

// UpdateRule 更新规则
func (s *PromotionRuleService) UpdateRule(id uint, input SaveRuleInput) (*models.PromotionRule, error) {
	if s == nil || s.repo == nil || id == 0 {
		return nil, ErrPromotionRuleInvalid
	}
	if err := validateRuleInput(input); err != nil {
		return nil, err
	}
	rule, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrPromotionRuleFetchFailed
	}
	if rule == nil {
		return nil, ErrPromotionRuleNotFound
	}

	rule.ActionID = input.ActionID
	rule.EventID = input.EventID
	rule.MaxUsage = input.MaxUsage
	rule.Beneficiary = input.Beneficiary
	rule.RuleDescription = strings.TrimSpace(input.RuleDescription)
	if err := s.repo.Update(rule); err != nil {
		return nil, ErrPromotionRuleUpdateFailed
	}
	return s.GetRule(id)
}

// DeleteRule 删除规则。仍被促销引用的规则拒绝删除。
func (s *PromotionRuleService) DeleteRule(id uint) error {
	if s == nil || s.repo == nil || id == 0 {
		return ErrPromotionRuleInvalid
	}
	rule, err := s.repo.GetByID(id)
	if err != nil {
		return ErrPromotionRuleFetchFailed
	}
	if rule == nil {
		return ErrPromotionRuleNotFound
	}
	count, err := s.repo.CountPromotions(id)
	if err != nil {
		return ErrPromotionRuleFetchFailed
	}
	if count > 0 {
		return ErrPromotionRuleInUse
	}
	if err := s.repo.Delete(id); err != nil {
		return ErrPromotionRuleDeleteFailed
	}
	return nil
}

// ListActions 获取全部规则动作
func (s *PromotionRuleService) ListActions() ([]models.PromotionRuleAction, error) {
	if s == nil || s.repo == nil {
		return nil, ErrPromotionRuleFetchFailed
	}
	actions, err := s.repo.ListActions()
	if err != nil {
		return nil, ErrPromotionRuleFetchFailed
	}
	return actions, nil
}

// ListEvents 获取全部规则事件
func (s *PromotionRuleService) ListEvents() ([]models.PromotionRuleEvent, error) {
	if s == nil || s.repo == nil {
		return nil, ErrPromotionRuleFetchFailed
	}
	events, err := s.repo.ListEvents()
	if err != nil {
		return nil, ErrPromotionRuleFetchFailed
	}
	return events, nil
}

func validateRuleInput(input SaveRuleInput) error {
	if input.ActionID == 0 || input.EventID == 0 {
		return ErrPromotionRuleInvalid
	}
	if input.MaxUsage < 0 {
		return ErrPromotionRuleInvalid
	}
	switch input.Beneficiary {
	case constants.BeneficiaryReferred, constants.BeneficiaryReferrer, constants.BeneficiaryBoth:
		return nil
	default:
		return ErrPromotionRuleInvalid
	}
}
