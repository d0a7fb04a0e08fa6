package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/esim-backoffice/internal/http/response"
	"github.com/esim-backoffice/internal/service"

	"github.com/gin-gonic/gin"
)

// UpdateUserRequest 更新用户请求
type UpdateUserRequest struct {
	DisplayName *string `json:"display_name"`
	Phone       *string `json:"phone"`
	Locale      *string `json:"locale"`
	Status      *string `json:"status"`
}

// BulkUpdateUserStatusRequest 批量更新用户状态请求
type BulkUpdateUserStatusRequest struct {
	IDs    []uint `json:"ids" binding:"required"`
	Status string `json:"status" binding:"required"`
}

// GetUsers 获取用户列表
func (h *Handler) GetUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

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
	lastLoginFrom, err := parseQueryTime(c, "last_login_from")
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	lastLoginTo, err := parseQueryTime(c, "last_login_to")
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	users, total, err := h.UserAdminService.ListUsers(service.UserListInput{
		Keyword:       strings.TrimSpace(c.Query("keyword")),
		Status:        strings.TrimSpace(strings.ToLower(c.Query("status"))),
		CreatedFrom:   createdFrom,
		CreatedTo:     createdTo,
		LastLoginFrom: lastLoginFrom,
		LastLoginTo:   lastLoginTo,
		Page:          page,
		PageSize:      pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "获取用户列表失败", err)
		return
	}

	response.SuccessWithPage(c, users, response.NewPagination(page, pageSize, total))
}

// GetUser 获取用户详情
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "请求参数错误", nil)
		return
	}

	user, err := h.UserAdminService.GetUser(id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, response.CodeNotFound, "用户不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "获取用户失败", err)
		return
	}
	response.Success(c, user)
}

// UpdateUser 更新用户资料
func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "请求参数错误", nil)
		return
	}
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	user, err := h.UserAdminService.UpdateUser(id, service.UpdateUserInput{
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		Locale:      req.Locale,
		Status:      req.Status,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, response.CodeNotFound, "用户不存在", nil)
		case errors.Is(err, service.ErrUserInvalid):
			respondError(c, response.CodeBadRequest, "用户参数不合法", nil)
		default:
			respondError(c, response.CodeInternal, "更新用户失败", err)
		}
		return
	}
	response.Success(c, user)
}

// BulkUpdateUserStatus 批量启用/停用用户
func (h *Handler) BulkUpdateUserStatus(c *gin.Context) {
	var req BulkUpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	result, err := h.UserAdminService.BulkUpdateStatus(req.IDs, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserInvalid):
			respondError(c, response.CodeBadRequest, "状态不合法", nil)
		case errors.Is(err, service.ErrSelectionEmpty):
			respondError(c, response.CodeBadRequest, "未指定批量操作目标", nil)
		default:
			respondError(c, response.CodeInternal, "批量更新失败", err)
		}
		return
	}

	requestLog(c).Infow("user_bulk_status_updated",
		"status", req.Status,
		"successful", result.Successful,
	)
	response.Success(c, result)
}
