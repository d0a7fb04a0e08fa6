package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/esim-backoffice/internal/http/response"
	"github.com/esim-backoffice/internal/service"

	"github.com/gin-gonic/gin"
)

// GetEsimProfiles 获取 eSIM Profile 列表
func (h *Handler) GetEsimProfiles(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

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
	syncedFrom, err := parseQueryTime(c, "synced_from")
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	syncedTo, err := parseQueryTime(c, "synced_to")
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	profiles, total, err := h.EsimService.ListProfiles(service.EsimProfileListInput{
		ICCID:      strings.TrimSpace(c.Query("iccid")),
		UserID:     userID,
		BundleID:   bundleID,
		Status:     strings.TrimSpace(strings.ToLower(c.Query("status"))),
		SyncedFrom: syncedFrom,
		SyncedTo:   syncedTo,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "获取 Profile 列表失败", err)
		return
	}

	response.SuccessWithPage(c, profiles, response.NewPagination(page, pageSize, total))
}

// GetEsimProfile 获取 eSIM Profile 详情
func (h *Handler) GetEsimProfile(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "请求参数错误", nil)
		return
	}

	profile, err := h.EsimService.GetProfile(id)
	if err != nil {
		if errors.Is(err, service.ErrEsimProfileNotFound) {
			respondError(c, response.CodeNotFound, "Profile 不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "获取 Profile 失败", err)
		return
	}
	response.Success(c, profile)
}

// SyncEsimProfile 触发单个 Profile 的用量同步
func (h *Handler) SyncEsimProfile(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "请求参数错误", nil)
		return
	}

	if err := h.EsimService.RequestConsumptionSync(id); err != nil {
		switch {
		case errors.Is(err, service.ErrEsimProfileNotFound):
			respondError(c, response.CodeNotFound, "Profile 不存在", nil)
		case errors.Is(err, service.ErrEsimProfileSyncFailed):
			respondError(c, response.CodeInternal, "用量同步失败", err)
		default:
			respondError(c, response.CodeInternal, "用量同步失败", err)
		}
		return
	}

	requestLog(c).Infow("esim_consumption_sync_requested", "profile_id", id)
	response.Success(c, gin.H{"requested": true})
}
