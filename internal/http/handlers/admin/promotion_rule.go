package admin

import (
	"errors"

	"github.com/esim-backoffice/internal/http/response"
	"github.com/esim-backoffice/internal/service"

	"github.com/gin-gonic/gin"
)

// SaveRuleRequest 创建/更新规则请求
type SaveRuleRequest struct {
	ActionID        uint   `json:"action_id" binding:"required"`
	EventID         uint   `json:"event_id" binding:"required"`
	MaxUsage        int    `json:"max_usage"`
	Beneficiary     int    `json:"beneficiary"`
	RuleDescription string `json:"rule_description"`
}

// GetPromotionRules 获取规则列表
func (h *Handler) GetPromotionRules(c *gin.Context) {
	rules, err := h.PromotionRuleService.ListRules()
	if err != nil {
		respondError(c, response.CodeInternal, "获取规则列表失败", err)
		return
	}
	response.Success(c, rules)
}

// GetPromotionRule 获取规则详情
func (h *Handler) GetPromotionRule(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "请求参数错误", nil)
		return
	}

	rule, err := h.PromotionRuleService.GetRule(id)
	if err != nil {
		if errors.Is(err, service.ErrPromotionRuleNotFound) {
			respondError(c, response.CodeNotFound, "规则不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "获取规则失败", err)
		return
	}
	response.Success(c, rule)
}

// CreatePromotionRule 创建规则
func (h *Handler) CreatePromotionRule(c *gin.Context) {
	var req SaveRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	rule, err := h.PromotionRuleService.CreateRule(service.SaveRuleInput{
		ActionID:        req.ActionID,
		EventID:         req.EventID,
		MaxUsage:        req.MaxUsage,
		Beneficiary:     req.Beneficiary,
		RuleDescription: req.RuleDescription,
	})
	if err != nil {
		if errors.Is(err, service.ErrPromotionRuleInvalid) {
			respondError(c, response.CodeBadRequest, "规则参数不合法", nil)
			return
		}
		respondError(c, response.CodeInternal, "创建规则失败", err)
		return
	}
	response.Success(c, rule)
}

// UpdatePromotionRule 更新规则
func (h *Handler) UpdatePromotionRule(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "请求参数错误", nil)
		return
	}
	var req SaveRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	rule, err := h.PromotionRuleService.UpdateRule(id, service.SaveRuleInput{
		ActionID:        req.ActionID,
		EventID:         req.EventID,
		MaxUsage:        req.MaxUsage,
		Beneficiary:     req.Beneficiary,
		RuleDescription: req.RuleDescription,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPromotionRuleNotFound):
			respondError(c, response.CodeNotFound, "规则不存在", nil)
		case errors.Is(err, service.ErrPromotionRuleInvalid):
			respondError(c, response.CodeBadRequest, "规则参数不合法", nil)
		default:
			respondError(c, response.CodeInternal, "更新规则失败", err)
		}
		return
	}
	response.Success(c, rule)
}

// DeletePromotionRule 删除规则
func (h *Handler) DeletePromotionRule(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "请求参数错误", nil)
		return
	}

	if err := h.PromotionRuleService.DeleteRule(id); err != nil {
		switch {
		case errors.Is(err, service.ErrPromotionRuleNotFound):
			respondError(c, response.CodeNotFound, "规则不存在", nil)
		case errors.Is(err, service.ErrPromotionRuleInUse):
			respondError(c, response.CodeConflict, "规则已被促销引用，不允许删除", nil)
		default:
			respondError(c, response.CodeInternal, "删除规则失败", err)
		}
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// GetPromotionRuleActions 获取规则动作枚举
func (h *Handler) GetPromotionRuleActions(c *gin.Context) {
	actions, err := h.PromotionRuleService.ListActions()
	if err != nil {
		respondError(c, response.CodeInternal, "获取规则动作失败", err)
		return
	}
	response.Success(c, actions)
}

// GetPromotionRuleEvents 获取规则事件枚举
func (h *Handler) GetPromotionRuleEvents(c *gin.Context) {
	events, err := h.PromotionRuleService.ListEvents()
	if err != nil {
		respondError(c, response.CodeInternal, "获取规则事件失败", err)
		return
	}
	response.Success(c, events)
}
