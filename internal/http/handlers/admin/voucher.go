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

// BulkGenerateVouchersRequest 批量生成代金券请求
type BulkGenerateVouchersRequest struct {
	Count     int    `json:"count" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
	PartnerID uint   `json:"partner_id" binding:"required"`
	ExpiredAt string `json:"expired_at"`
}

// VoucherIDsRequest 按 ID 列表批量操作请求
type VoucherIDsRequest struct {
	IDs []uint `json:"ids" binding:"required"`
}

// ExportVouchersRequest 导出代金券请求
type ExportVouchersRequest struct {
	Code        string `json:"code"`
	PartnerID   uint   `json:"partner_id"`
	IsUsed      *bool  `json:"is_used"`
	IsActive    *bool  `json:"is_active"`
	Exported    *bool  `json:"exported"`
	ExpiredFrom string `json:"expired_from"`
	ExpiredTo   string `json:"expired_to"`
	CreatedFrom string `json:"created_from"`
	CreatedTo   string `json:"created_to"`
}

// GetVouchers 获取代金券列表
func (h *Handler) GetVouchers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	partnerID, err := parseQueryUint(c, "partner_id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	isUsed, err := parseQueryBool(c, "is_used")
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	isActive, err := parseQueryBool(c, "is_active")
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	exported, err := parseQueryBool(c, "exported")
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	expiredFrom, err := parseQueryTime(c, "expired_from")
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	expiredTo, err := parseQueryTime(c, "expired_to")
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

	vouchers, total, err := h.VoucherService.ListVouchers(service.VoucherListInput{
		Code:        strings.TrimSpace(c.Query("code")),
		PartnerID:   partnerID,
		IsUsed:      isUsed,
		IsActive:    isActive,
		Exported:    exported,
		ExpiredFrom: expiredFrom,
		ExpiredTo:   expiredTo,
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
		Page:        page,
		PageSize:    pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "获取代金券列表失败", err)
		return
	}

	response.SuccessWithPage(c, vouchers, response.NewPagination(page, pageSize, total))
}

// GetVoucher 获取代金券详情
func (h *Handler) GetVoucher(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "请求参数错误", nil)
		return
	}

	voucher, err := h.VoucherService.GetVoucher(id)
	if err != nil {
		if errors.Is(err, service.ErrVoucherNotFound) {
			respondError(c, response.CodeNotFound, "代金券不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "获取代金券失败", err)
		return
	}
	response.Success(c, voucher)
}

// BulkGenerateVouchers 批量生成代金券
func (h *Handler) BulkGenerateVouchers(c *gin.Context) {
	var req BulkGenerateVouchersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		respondError(c, response.CodeBadRequest, "金额格式错误", err)
		return
	}
	expiredAt, err := parseTimeNullable(strings.TrimSpace(req.ExpiredAt))
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	vouchers, result, err := h.VoucherService.BulkGenerateVouchers(service.BulkGenerateVouchersInput{
		Count:     req.Count,
		Amount:    models.NewMoneyFromDecimal(amount),
		PartnerID: req.PartnerID,
		ExpiredAt: expiredAt,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrVoucherInvalid):
			respondError(c, response.CodeBadRequest, "批量生成参数不合法", nil)
		case errors.Is(err, service.ErrPartnerNotFound):
			respondError(c, response.CodeBadRequest, "合作伙伴不存在", nil)
		case errors.Is(err, service.ErrVoucherCodeSpace):
			respondError(c, response.CodeConflict, "券码空间不足", nil)
		default:
			respondError(c, response.CodeInternal, "批量生成失败", err)
		}
		return
	}

	requestLog(c).Infow("voucher_bulk_generated",
		"partner_id", req.PartnerID,
		"count", req.Count,
		"successful", result.Successful,
	)
	response.Success(c, gin.H{
		"vouchers": vouchers,
		"result":   result,
	})
}

// BulkExpireVouchers 批量过期代金券
func (h *Handler) BulkExpireVouchers(c *gin.Context) {
	var req VoucherIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	result, err := h.VoucherService.BulkExpireVouchers(req.IDs)
	if err != nil {
		respondBulkSelectionError(c, err, "批量过期失败")
		return
	}

	requestLog(c).Infow("voucher_bulk_expired", "successful", result.Successful)
	response.Success(c, result)
}

// BulkDeleteVouchers 批量删除代金券（已使用或已导出的跳过）
func (h *Handler) BulkDeleteVouchers(c *gin.Context) {
	var req VoucherIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	result, err := h.VoucherService.BulkDeleteVouchers(req.IDs)
	if err != nil {
		respondBulkSelectionError(c, err, "批量删除失败")
		return
	}

	requestLog(c).Infow("voucher_bulk_deleted",
		"successful", result.Successful,
		"failed", result.Failed,
	)
	response.Success(c, result)
}

// ExportVouchers 导出代金券 CSV，导出成功后标记 exported。
func (h *Handler) ExportVouchers(c *gin.Context) {
	var req ExportVouchersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	expiredFrom, err := parseTimeNullable(strings.TrimSpace(req.ExpiredFrom))
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	expiredTo, err := parseTimeNullable(strings.TrimSpace(req.ExpiredTo))
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	createdFrom, err := parseTimeNullable(strings.TrimSpace(req.CreatedFrom))
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(req.CreatedTo))
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	filename := fmt.Sprintf("vouchers_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Status(http.StatusOK)

	rows, err := h.VoucherService.ExportVouchers(service.VoucherListInput{
		Code:        strings.TrimSpace(req.Code),
		PartnerID:   req.PartnerID,
		IsUsed:      req.IsUsed,
		IsActive:    req.IsActive,
		Exported:    req.Exported,
		ExpiredFrom: expiredFrom,
		ExpiredTo:   expiredTo,
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	}, c.Writer)
	if err != nil {
		// 响应头已发出，只能记录日志
		requestLog(c).Errorw("voucher_export_failed", "error", err)
		return
	}
	requestLog(c).Infow("voucher_export_completed", "rows", rows)
}
