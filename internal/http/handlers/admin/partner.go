package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/esim-backoffice/internal/http/response"
	"github.com/esim-backoffice/internal/models"
	"github.com/esim-backoffice/internal/service"

	"github.com/gin-gonic/gin"
)

// CreatePartnerRequest 创建合作伙伴请求
type CreatePartnerRequest struct {
	Name        string      `json:"name" binding:"required"`
	CodePrefix  string      `json:"code_prefix" binding:"required"`
	ContactInfo models.JSON `json:"contact_info"`
}

// UpdatePartnerRequest 更新合作伙伴请求
type UpdatePartnerRequest struct {
	Name        *string     `json:"name"`
	ContactInfo models.JSON `json:"contact_info"`
	IsActive    *bool       `json:"is_active"`
}

// GetPartners 获取合作伙伴列表
func (h *Handler) GetPartners(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	isActive, err := parseQueryBool(c, "is_active")
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	partners, total, err := h.PartnerService.ListPartners(service.PartnerListInput{
		Search:   strings.TrimSpace(c.Query("search")),
		IsActive: isActive,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "获取合作伙伴列表失败", err)
		return
	}

	response.SuccessWithPage(c, partners, response.NewPagination(page, pageSize, total))
}

// GetPartner 获取合作伙伴详情
func (h *Handler) GetPartner(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "请求参数错误", nil)
		return
	}

	partner, err := h.PartnerService.GetPartner(id)
	if err != nil {
		if errors.Is(err, service.ErrPartnerNotFound) {
			respondError(c, response.CodeNotFound, "合作伙伴不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "获取合作伙伴失败", err)
		return
	}
	response.Success(c, partner)
}

// CreatePartner 创建合作伙伴
func (h *Handler) CreatePartner(c *gin.Context) {
	var req CreatePartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	partner, err := h.PartnerService.CreatePartner(service.CreatePartnerInput{
		Name:        req.Name,
		CodePrefix:  req.CodePrefix,
		ContactInfo: req.ContactInfo,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPartnerPrefixExists):
			respondError(c, response.CodeConflict, "前缀已被占用", nil)
		case errors.Is(err, service.ErrPartnerInvalid):
			respondError(c, response.CodeBadRequest, "合作伙伴参数不合法", nil)
		default:
			respondError(c, response.CodeInternal, "创建合作伙伴失败", err)
		}
		return
	}
	response.Success(c, partner)
}

// UpdatePartner 更新合作伙伴（前缀不可修改）
func (h *Handler) UpdatePartner(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "请求参数错误", nil)
		return
	}
	var req UpdatePartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	partner, err := h.PartnerService.UpdatePartner(id, service.UpdatePartnerInput{
		Name:        req.Name,
		ContactInfo: req.ContactInfo,
		IsActive:    req.IsActive,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPartnerNotFound):
			respondError(c, response.CodeNotFound, "合作伙伴不存在", nil)
		case errors.Is(err, service.ErrPartnerInvalid):
			respondError(c, response.CodeBadRequest, "合作伙伴参数不合法", nil)
		default:
			respondError(c, response.CodeInternal, "更新合作伙伴失败", err)
		}
		return
	}
	response.Success(c, partner)
}

// DeletePartner 删除合作伙伴
func (h *Handler) DeletePartner(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "请求参数错误", nil)
		return
	}

	if err := h.PartnerService.DeletePartner(id); err != nil {
		switch {
		case errors.Is(err, service.ErrPartnerNotFound):
			respondError(c, response.CodeNotFound, "合作伙伴不存在", nil)
		case errors.Is(err, service.ErrPartnerHasVouchers):
			respondError(c, response.CodeConflict, "名下仍有代金券，不允许删除", nil)
		default:
			respondError(c, response.CodeInternal, "删除合作伙伴失败", err)
		}
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
