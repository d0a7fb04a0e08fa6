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

// SaveBundleRequest 创建/更新套餐请求
type SaveBundleRequest struct {
	Code         string      `json:"code" binding:"required"`
	Name         string      `json:"name" binding:"required"`
	Description  string      `json:"description"`
	Price        string      `json:"price" binding:"required"`
	Currency     string      `json:"currency"`
	DataAmountMB int64       `json:"data_amount_mb"`
	ValidityDays int         `json:"validity_days" binding:"required"`
	Countries    models.JSON `json:"countries"`
	Tags         []string    `json:"tags"`
	IsActive     *bool       `json:"is_active"`
}

// BulkUpdateBundlePriceRequest 批量调价请求
type BulkUpdateBundlePriceRequest struct {
	IDs   []uint `json:"ids" binding:"required"`
	Mode  string `json:"mode" binding:"required"` // fixed / percent
	Value string `json:"value" binding:"required"`
}

// GetBundles 获取套餐列表
func (h *Handler) GetBundles(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	isActive, err := parseQueryBool(c, "is_active")
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	bundles, total, err := h.BundleAdminService.ListBundles(service.BundleListInput{
		Search:   strings.TrimSpace(c.Query("search")),
		Tag:      strings.TrimSpace(strings.ToLower(c.Query("tag"))),
		Country:  strings.TrimSpace(strings.ToUpper(c.Query("country"))),
		IsActive: isActive,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "获取套餐列表失败", err)
		return
	}

	response.SuccessWithPage(c, bundles, response.NewPagination(page, pageSize, total))
}

// GetBundle 获取套餐详情
func (h *Handler) GetBundle(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "请求参数错误", nil)
		return
	}

	bundle, err := h.BundleAdminService.GetBundle(id)
	if err != nil {
		if errors.Is(err, service.ErrBundleNotFound) {
			respondError(c, response.CodeNotFound, "套餐不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "获取套餐失败", err)
		return
	}
	response.Success(c, bundle)
}

func (h *Handler) bindBundleInput(c *gin.Context) (service.SaveBundleInput, bool) {
	var req SaveBundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return service.SaveBundleInput{}, false
	}

	price, err := decimal.NewFromString(strings.TrimSpace(req.Price))
	if err != nil {
		respondError(c, response.CodeBadRequest, "价格格式错误", err)
		return service.SaveBundleInput{}, false
	}

	return service.SaveBundleInput{
		Code:         req.Code,
		Name:         req.Name,
		Description:  req.Description,
		Price:        models.NewMoneyFromDecimal(price),
		Currency:     req.Currency,
		DataAmountMB: req.DataAmountMB,
		ValidityDays: req.ValidityDays,
		Countries:    req.Countries,
		Tags:         req.Tags,
		IsActive:     req.IsActive,
	}, true
}

// CreateBundle 创建套餐
func (h *Handler) CreateBundle(c *gin.Context) {
	input, ok := h.bindBundleInput(c)
	if !ok {
		return
	}

	bundle, err := h.BundleAdminService.CreateBundle(input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBundleCodeExists):
			respondError(c, response.CodeConflict, "套餐编码已存在", nil)
		case errors.Is(err, service.ErrBundleInvalid):
			respondError(c, response.CodeBadRequest, "套餐参数不合法", nil)
		default:
			respondError(c, response.CodeInternal, "创建套餐失败", err)
		}
		return
	}
	response.Success(c, bundle)
}

// UpdateBundle 更新套餐
func (h *Handler) UpdateBundle(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "请求参数错误", nil)
		return
	}
	input, ok := h.bindBundleInput(c)
	if !ok {
		return
	}

	bundle, err := h.BundleAdminService.UpdateBundle(id, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBundleNotFound):
			respondError(c, response.CodeNotFound, "套餐不存在", nil)
		case errors.Is(err, service.ErrBundleCodeExists):
			respondError(c, response.CodeConflict, "套餐编码已存在", nil)
		case errors.Is(err, service.ErrBundleInvalid):
			respondError(c, response.CodeBadRequest, "套餐参数不合法", nil)
		default:
			respondError(c, response.CodeInternal, "更新套餐失败", err)
		}
		return
	}
	response.Success(c, bundle)
}

// DeleteBundle 删除套餐（软删除）
func (h *Handler) DeleteBundle(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "请求参数错误", nil)
		return
	}

	if err := h.BundleAdminService.DeleteBundle(id); err != nil {
		switch {
		case errors.Is(err, service.ErrBundleNotFound):
			respondError(c, response.CodeNotFound, "套餐不存在", nil)
		default:
			respondError(c, response.CodeInternal, "删除套餐失败", err)
		}
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// BulkUpdateBundlePrice 批量调价
func (h *Handler) BulkUpdateBundlePrice(c *gin.Context) {
	var req BulkUpdateBundlePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	value, err := decimal.NewFromString(strings.TrimSpace(req.Value))
	if err != nil {
		respondError(c, response.CodeBadRequest, "调价数值格式错误", err)
		return
	}

	result, err := h.BundleAdminService.BulkUpdatePrice(service.BulkPriceInput{
		IDs:   req.IDs,
		Mode:  req.Mode,
		Value: value,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBundleInvalid):
			respondError(c, response.CodeBadRequest, "调价参数不合法", nil)
		case errors.Is(err, service.ErrSelectionEmpty):
			respondError(c, response.CodeBadRequest, "未指定批量操作目标", nil)
		default:
			respondError(c, response.CodeInternal, "批量调价失败", err)
		}
		return
	}

	requestLog(c).Infow("bundle_bulk_price_updated",
		"mode", req.Mode,
		"successful", result.Successful,
	)
	response.Success(c, result)
}

// GetBundleTags 获取套餐标签列表
func (h *Handler) GetBundleTags(c *gin.Context) {
	tags, err := h.BundleAdminService.ListTags(c.Request.Context())
	if err != nil {
		respondError(c, response.CodeInternal, "获取标签列表失败", err)
		return
	}
	response.Success(c, tags)
}

// ExportBundleRequest 套餐导出请求（空体表示导出全部）
type ExportBundleRequest struct {
	Search   string `json:"search"`
	Tag      string `json:"tag"`
	Country  string `json:"country"`
	IsActive *bool  `json:"is_active"`
}

// ExportBundles 按筛选条件导出套餐 CSV
func (h *Handler) ExportBundles(c *gin.Context) {
	var req ExportBundleRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "请求参数错误", err)
			return
		}
	}

	filename := fmt.Sprintf("bundles_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Status(http.StatusOK)

	rows, err := h.BundleAdminService.ExportBundles(service.BundleListInput{
		Search:   req.Search,
		Tag:      strings.ToLower(strings.TrimSpace(req.Tag)),
		Country:  req.Country,
		IsActive: req.IsActive,
	}, c.Writer)
	if err != nil {
		// 响应头已发出，只能记录日志
		requestLog(c).Errorw("bundle_export_failed", "error", err)
		return
	}
	requestLog(c).Infow("bundle_export_completed", "rows", rows)
}

// RebuildBundleCache 重建套餐目录缓存
func (h *Handler) RebuildBundleCache(c *gin.Context) {
	count, err := h.BundleAdminService.RebuildCatalogCache(c.Request.Context())
	if err != nil {
		respondError(c, response.CodeInternal, "重建缓存失败", err)
		return
	}

	requestLog(c).Infow("bundle_cache_rebuilt", "count", count)
	response.Success(c, gin.H{"count": count})
}
