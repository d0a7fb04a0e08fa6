package admin

import (
	"strings"
	"time"

	"github.com/esim-backoffice/internal/http/response"
	"github.com/esim-backoffice/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// UpsertCurrencyRequest 设置汇率请求
type UpsertCurrencyRequest struct {
	Code string `json:"code" binding:"required"`
	Rate string `json:"rate" binding:"required"`
}

// GetCurrencies 获取币种汇率列表
func (h *Handler) GetCurrencies(c *gin.Context) {
	currencies, err := h.CurrencyRepo.ListAll()
	if err != nil {
		respondError(c, response.CodeInternal, "获取汇率列表失败", err)
		return
	}
	response.Success(c, currencies)
}

// UpsertCurrency 设置币种汇率
func (h *Handler) UpsertCurrency(c *gin.Context) {
	var req UpsertCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if len(code) != 3 {
		respondError(c, response.CodeBadRequest, "币种代码不合法", nil)
		return
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(req.Rate))
	if err != nil || rate.Sign() <= 0 {
		respondError(c, response.CodeBadRequest, "汇率格式错误", err)
		return
	}

	currency := &models.Currency{
		Code:      code,
		Rate:      models.NewMoneyFromDecimal(rate),
		UpdatedAt: time.Now(),
	}
	if err := h.CurrencyRepo.Upsert(currency); err != nil {
		respondError(c, response.CodeInternal, "保存汇率失败", err)
		return
	}

	requestLog(c).Infow("currency_rate_updated", "code", code, "rate", rate.String())
	response.Success(c, currency)
}
