package admin

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/esim-backoffice/internal/http/response"
	"github.com/esim-backoffice/internal/service"

	"github.com/gin-gonic/gin"
)

// ResendFinancialDocumentRequest 重发单据请求
type ResendFinancialDocumentRequest struct {
	Email string `json:"email"`
}

// ExportFinancialDocumentsRequest 导出单据请求
type ExportFinancialDocumentsRequest struct {
	DocumentNo string `json:"document_no"`
	Type       string `json:"type"`
	OrderID    uint   `json:"order_id"`
	IssuedFrom string `json:"issued_from"`
	IssuedTo   string `json:"issued_to"`
}

// GetFinancialDocuments 获取财务单据列表
func (h *Handler) GetFinancialDocuments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	orderID, err := parseQueryUint(c, "order_id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	issuedFrom, err := parseQueryTime(c, "issued_from")
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	issuedTo, err := parseQueryTime(c, "issued_to")
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	documents, total, err := h.FinancialService.ListDocuments(service.FinancialDocumentListInput{
		DocumentNo: strings.TrimSpace(c.Query("document_no")),
		Type:       strings.TrimSpace(strings.ToLower(c.Query("type"))),
		OrderID:    orderID,
		IssuedFrom: issuedFrom,
		IssuedTo:   issuedTo,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "获取单据列表失败", err)
		return
	}

	response.SuccessWithPage(c, documents, response.NewPagination(page, pageSize, total))
}

// GetFinancialDocument 获取财务单据详情
func (h *Handler) GetFinancialDocument(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "请求参数错误", nil)
		return
	}

	document, err := h.FinancialService.GetDocument(id)
	if err != nil {
		if errors.Is(err, service.ErrFinancialDocNotFound) {
			respondError(c, response.CodeNotFound, "单据不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "获取单据失败", err)
		return
	}
	response.Success(c, document)
}

// ResendFinancialDocument 重发单据邮件
func (h *Handler) ResendFinancialDocument(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "请求参数错误", nil)
		return
	}
	var req ResendFinancialDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	if err := h.FinancialService.ResendDocument(id, req.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrFinancialDocNotFound):
			respondError(c, response.CodeNotFound, "单据不存在", nil)
		case errors.Is(err, service.ErrFinancialDocInvalid):
			respondError(c, response.CodeBadRequest, "重发请求不合法", nil)
		default:
			respondError(c, response.CodeInternal, "重发失败", err)
		}
		return
	}

	requestLog(c).Infow("financial_document_resend_requested", "document_id", id)
	response.Success(c, gin.H{"requested": true})
}

// ExportFinancialDocuments 导出财务单据 CSV（按行项目展开）
func (h *Handler) ExportFinancialDocuments(c *gin.Context) {
	var req ExportFinancialDocumentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	issuedFrom, err := parseTimeNullable(strings.TrimSpace(req.IssuedFrom))
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	issuedTo, err := parseTimeNullable(strings.TrimSpace(req.IssuedTo))
	if err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	filename := fmt.Sprintf("financial_documents_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Status(http.StatusOK)

	rows, err := h.FinancialService.ExportDocuments(service.FinancialDocumentListInput{
		DocumentNo: strings.TrimSpace(req.DocumentNo),
		Type:       strings.TrimSpace(strings.ToLower(req.Type)),
		OrderID:    req.OrderID,
		IssuedFrom: issuedFrom,
		IssuedTo:   issuedTo,
	}, c.Writer)
	if err != nil {
		// 响应头已发出，只能记录日志
		requestLog(c).Errorw("financial_export_failed", "error", err)
		return
	}
	requestLog(c).Infow("financial_export_completed", "rows", rows)
}
