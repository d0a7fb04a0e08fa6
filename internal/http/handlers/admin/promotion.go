package admin

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/esim-backoffice/internal/http/response"
	"github.com/esim-backoffice/internal/models"
	"github.com/esim-backoffice/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreatePromotionRequest 创建促销请求
type CreatePromotionRequest struct {
	Code       string `json:"code"`
	Name       string `json:"name" binding:"required"`
	Type       string `json:"type" binding:"required"`
	Amount     string `json:"amount" binding:"required"`
	BundleCode string `json:"bundle_code"`
	RuleID     uint   `json:"rule_id" binding:"required"`
	ValidFrom  string `json:"valid_from"`
	ValidTo    string `json:"valid_to"`
}

// UpdatePromotionRequest 更新促销请求
type UpdatePromotionRequest struct {
	Name      *string `json:"name"`
	Amount    *string `json:"amount"`
	IsActive  *bool   `json:"is_active"`
	ValidFrom *string `json:"valid_from"`
	ValidTo   *string `json:"valid_to"`
}

// BulkGeneratePromotionsRequest 批量生成促销请求
type BulkGeneratePromotionsRequest struct {
	Count      int    `json:"count" binding:"required"`
	CodeLength int    `json:"code_length"`
	NamePrefix string `json:"name_prefix"`
	Type       string `json:"type" binding:"required"`
	Amount     string `json:"amount" binding:"required"`
	BundleCode string `json:"bundle_code"`
	RuleID     uint   `json:"rule_id" binding:"required"`
	ValidFrom  string `json:"valid_from"`
	ValidTo    string `json:"valid_to"`
}

// BulkUpdateValidityRequest 批量调整有效期请求
type BulkUpdateValidityRequest struct {
	Selection bulkSelectionRequest `json:"selection"`
	ValidFrom string               `json:"valid_from"`
	ValidTo   string               `json:"valid_to"`
}

// BulkExpirePromotionsRequest 批量过期请求
type BulkExpirePromotionsRequest struct {
	Selection bulkSelectionRequest `json:"selection"`
}

// GetPromotions 获取促销列表
func (h *Handler) GetPromotions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	ruleID, err := parseQueryUint(c, "rule_id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	isActive, err := parseQueryBool(c, "is_active")
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	validFrom, err := parseQueryTime(c, "valid_from")
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	validTo, err := parseQueryTime(c, "valid_to")
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	createdFrom, err := parseQueryTime(c, "created_from")
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	createdTo, err := parseQueryTime(c, "created_to")
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	promotions, total, err := h.PromotionAdminService.ListPromotions(service.PromotionListInput{
		Code:        strings.TrimSpace(c.Query("code")),
		Search:      strings.TrimSpace(c.Query("search")),
		Type:        strings.TrimSpace(strings.ToLower(c.Query("type"))),
		BundleCode:  strings.TrimSpace(c.Query("bundle_code")),
		RuleID:      ruleID,
		IsActive:    isActive,
		ValidFrom:   validFrom,
		ValidTo:     validTo,
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
		Page:        page,
		PageSize:    pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "获取促销列表失败", err)
		return
	}

	response.SuccessWithPage(c, promotions, response.NewPagination(page, pageSize, total))
}

// GetPromotion 获取促销详情
func (h *Handler) GetPromotion(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "请求参数错误", nil)
		return
	}

	promotion, err := h.PromotionAdminService.GetPromotion(id)
	if err != nil {
		if errors.Is(err, service.ErrPromotionNotFound) {
			respondError(c, response.CodeNotFound, "促销不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "获取促销失败", err)
		return
	}
	response.Success(c, promotion)
}

// CreatePromotion 创建促销
func (h *Handler) CreatePromotion(c *gin.Context) {
	var req CreatePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		respondError(c, response.CodeBadRequest, "金额格式错误", err)
		return
	}
	validFrom, err := parseTimeNullable(strings.TrimSpace(req.ValidFrom))
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	validTo, err := parseTimeNullable(strings.TrimSpace(req.ValidTo))
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	var bundleCode *string
	if code := strings.TrimSpace(req.BundleCode); code != "" {
		bundleCode = &code
	}

	promotion, err := h.PromotionAdminService.CreatePromotion(service.CreatePromotionInput{
		Code:       req.Code,
		Name:       req.Name,
		Type:       req.Type,
		Amount:     models.NewMoneyFromDecimal(amount),
		BundleCode: bundleCode,
		RuleID:     req.RuleID,
		ValidFrom:  validFrom,
		ValidTo:    validTo,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPromotionCodeExists):
			respondError(c, response.CodeConflict, "促销码已存在", nil)
		case errors.Is(err, service.ErrPromotionRuleNotFound):
			respondError(c, response.CodeBadRequest, "规则不存在", nil)
		case errors.Is(err, service.ErrBundleNotFound):
			respondError(c, response.CodeBadRequest, "套餐不存在", nil)
		case errors.Is(err, service.ErrPromotionInvalid):
			respondError(c, response.CodeBadRequest, "促销参数不合法", nil)
		default:
			respondError(c, response.CodeInternal, "创建促销失败", err)
		}
		return
	}
	response.Success(c, promotion)
}

// UpdatePromotion 更新促销
func (h *Handler) UpdatePromotion(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "请求参数错误", nil)
		return
	}
	var req UpdatePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	input := service.UpdatePromotionInput{
		Name:     req.Name,
		IsActive: req.IsActive,
	}
	if req.Amount != nil {
		amount, err := decimal.NewFromString(strings.TrimSpace(*req.Amount))
		if err != nil {
			respondError(c, response.CodeBadRequest, "金额格式错误", err)
			return
		}
		money := models.NewMoneyFromDecimal(amount)
		input.Amount = &money
	}
	if req.ValidFrom != nil {
		parsed, err := parseTimeNullable(strings.TrimSpace(*req.ValidFrom))
		if err != nil {
			respondError(c, response.CodeBadRequest, "请求参数错误", err)
			return
		}
		input.ValidFrom = parsed
	}
	if req.ValidTo != nil {
		if strings.TrimSpace(*req.ValidTo) == "" {
			input.ClearTo = true
		} else {
			parsed, err := parseTimeNullable(strings.TrimSpace(*req.ValidTo))
			if err != nil {
				respondError(c, response.CodeBadRequest, "请求参数错误", err)
				return
			}
			input.ValidTo = parsed
		}
	}

	promotion, err := h.PromotionAdminService.UpdatePromotion(id, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPromotionNotFound):
			respondError(c, response.CodeNotFound, "促销不存在", nil)
		case errors.Is(err, service.ErrPromotionInvalid):
			respondError(c, response.CodeBadRequest, "促销参数不合法", nil)
		default:
			respondError(c, response.CodeInternal, "更新促销失败", err)
		}
		return
	}
	response.Success(c, promotion)
}

// DeletePromotion 删除促销
func (h *Handler) DeletePromotion(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "请求参数错误", nil)
		return
	}

	if err := h.PromotionAdminService.DeletePromotion(id); err != nil {
		switch {
		case errors.Is(err, service.ErrPromotionNotFound):
			respondError(c, response.CodeNotFound, "促销不存在", nil)
		case errors.Is(err, service.ErrPromotionInvalid):
			respondError(c, response.CodeBadRequest, "已被使用的促销不允许删除", nil)
		default:
			respondError(c, response.CodeInternal, "删除促销失败", err)
		}
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// BulkGeneratePromotions 批量生成促销码
func (h *Handler) BulkGeneratePromotions(c *gin.Context) {
	var req BulkGeneratePromotionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		respondError(c, response.CodeBadRequest, "金额格式错误", err)
		return
	}
	validFrom, err := parseTimeNullable(strings.TrimSpace(req.ValidFrom))
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	validTo, err := parseTimeNullable(strings.TrimSpace(req.ValidTo))
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	var bundleCode *string
	if code := strings.TrimSpace(req.BundleCode); code != "" {
		bundleCode = &code
	}

	promotions, result, err := h.PromotionAdminService.BulkGeneratePromotions(service.BulkGeneratePromotionsInput{
		Count:      req.Count,
		CodeLength: req.CodeLength,
		NamePrefix: req.NamePrefix,
		Type:       req.Type,
		Amount:     models.NewMoneyFromDecimal(amount),
		BundleCode: bundleCode,
		RuleID:     req.RuleID,
		ValidFrom:  validFrom,
		ValidTo:    validTo,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPromotionInvalid):
			respondError(c, response.CodeBadRequest, "批量生成参数不合法", nil)
		case errors.Is(err, service.ErrPromotionRuleNotFound):
			respondError(c, response.CodeBadRequest, "规则不存在", nil)
		case errors.Is(err, service.ErrBundleNotFound):
			respondError(c, response.CodeBadRequest, "套餐不存在", nil)
		case errors.Is(err, service.ErrPromotionCodeSpace):
			respondError(c, response.CodeConflict, "促销码空间不足", nil)
		default:
			respondError(c, response.CodeInternal, "批量生成失败", err)
		}
		return
	}

	requestLog(c).Infow("promotion_bulk_generated",
		"count", req.Count,
		"successful", result.Successful,
	)
	response.Success(c, gin.H{
		"promotions": promotions,
		"result":     result,
	})
}

// BulkUpdatePromotionValidity 批量调整有效期
func (h *Handler) BulkUpdatePromotionValidity(c *gin.Context) {
	var req BulkUpdateValidityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	selection, err := req.Selection.toSelection()
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	validFrom, err := parseTimeNullable(strings.TrimSpace(req.ValidFrom))
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	validTo, err := parseTimeNullable(strings.TrimSpace(req.ValidTo))
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	result, err := h.PromotionAdminService.BulkUpdateValidity(service.BulkValidityInput{
		Selection: selection,
		ValidFrom: validFrom,
		ValidTo:   validTo,
	})
	if err != nil {
		respondBulkSelectionError(c, err, "批量调整有效期失败")
		return
	}

	requestLog(c).Infow("promotion_bulk_validity_updated", "successful", result.Successful)
	response.Success(c, result)
}

// BulkExpirePromotions 批量立即过期
func (h *Handler) BulkExpirePromotions(c *gin.Context) {
	var req BulkExpirePromotionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	selection, err := req.Selection.toSelection()
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	result, err := h.PromotionAdminService.BulkExpirePromotions(selection)
	if err != nil {
		respondBulkSelectionError(c, err, "批量过期失败")
		return
	}

	requestLog(c).Infow("promotion_bulk_expired", "successful", result.Successful)
	response.Success(c, result)
}

// ExportPromotions 导出促销码 CSV
func (h *Handler) ExportPromotions(c *gin.Context) {
	var req bulkSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	selection, err := req.toSelection()
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	if err := selection.Validate(); err != nil {
		respondBulkSelectionError(c, err, "导出参数不合法")
		return
	}

	filename := fmt.Sprintf("promotions_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Status(http.StatusOK)

	rows, err := h.PromotionAdminService.ExportPromotions(selection, c.Writer)
	if err != nil {
		// 响应头已发出，只能记录日志
		requestLog(c).Errorw("promotion_export_failed", "error", err)
		return
	}
	requestLog(c).Infow("promotion_export_completed", "rows", rows)
}

func respondBulkSelectionError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrSelectionInvalid):
		respondError(c, response.CodeBadRequest, "ID 列表与筛选条件不能同时提供", nil)
	case errors.Is(err, service.ErrSelectionEmpty):
		respondError(c, response.CodeBadRequest, "未指定批量操作目标", nil)
	default:
		respondError(c, response.CodeInternal, fallback, err)
	}
}
