package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/esim-backoffice/internal/http/response"
	"github.com/esim-backoffice/internal/service"

	"github.com/gin-gonic/gin"
)

// RefundOrderRequest 退款请求
type RefundOrderRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// GetOrders 获取订单列表
func (h *Handler) GetOrders(c *gin.Context) {
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

	orders, total, err := h.OrderAdminService.ListOrders(service.OrderListInput{
		OrderNo:     strings.TrimSpace(c.Query("order_no")),
		UserID:      userID,
		BundleID:    bundleID,
		Status:      strings.TrimSpace(strings.ToLower(c.Query("status"))),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
		Page:        page,
		PageSize:    pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "获取订单列表失败", err)
		return
	}

	response.SuccessWithPage(c, orders, response.NewPagination(page, pageSize, total))
}

// GetOrder 获取订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "请求参数错误", nil)
		return
	}

	order, err := h.OrderAdminService.GetOrder(id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "订单不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "获取订单失败", err)
		return
	}
	response.Success(c, order)
}

// RefundOrder 订单退款，同时开具红字单据。
func (h *Handler) RefundOrder(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "请求参数错误", nil)
		return
	}
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req RefundOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	order, creditNote, err := h.OrderAdminService.RefundOrder(service.RefundOrderInput{
		OrderID: id,
		Reason:  req.Reason,
		AdminID: adminID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "订单不存在", nil)
		case errors.Is(err, service.ErrOrderAlreadyRefunded):
			respondError(c, response.CodeConflict, "订单已退款", nil)
		case errors.Is(err, service.ErrOrderNotRefundable):
			respondError(c, response.CodeBadRequest, "当前状态不允许退款", nil)
		case errors.Is(err, service.ErrOrderInvalid):
			respondError(c, response.CodeBadRequest, "退款参数不合法", nil)
		default:
			respondError(c, response.CodeInternal, "退款失败", err)
		}
		return
	}

	requestLog(c).Infow("order_refunded",
		"order_id", order.ID,
		"admin_id", adminID,
	)
	response.Success(c, gin.H{
		"order":       order,
		"credit_note": creditNote,
	})
}
