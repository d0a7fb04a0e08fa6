package admin

import (
	"strconv"
	"strings"

	"github.com/esim-backoffice/internal/http/response"
	"github.com/esim-backoffice/internal/service"

	"github.com/gin-gonic/gin"
)

// GetPromotionUsages 获取促销使用记录列表
func (h *Handler) GetPromotionUsages(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	promotionID, err := parseQueryUint(c, "promotion_id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	userID, err := parseQueryUint(c, "user_id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	bundleID, err := parseQueryUint(c, "bundle_id")
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

	usages, total, err := h.PromotionUsageService.ListUsages(service.PromotionUsageListInput{
		PromotionID: promotionID,
		Code:        strings.TrimSpace(c.Query("code")),
		UserID:      userID,
		BundleID:    bundleID,
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
		Page:        page,
		PageSize:    pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "获取使用记录失败", err)
		return
	}

	response.SuccessWithPage(c, usages, response.NewPagination(page, pageSize, total))
}
