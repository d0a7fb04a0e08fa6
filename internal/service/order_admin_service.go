package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/esim-backoffice/internal/constants"
	"github.com/esim-backoffice/internal/models"
	"github.com/esim-backoffice/internal/repository"

	"gorm.io/gorm"
)

// OrderAdminService 订单后台服务
type OrderAdminService struct {
	repo         repository.OrderRepository
	financialSvc *FinancialService
}

// NewOrderAdminService 创建订单后台服务
func NewOrderAdminService(repo repository.OrderRepository, financialSvc *FinancialService) *OrderAdminService {
	return &OrderAdminService{
		repo:         repo,
		financialSvc: financialSvc,
	}
}

// OrderListInput 订单列表输入
type OrderListInput struct {
	OrderNo     string
	UserID      uint
	BundleID    uint
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PageSize    int
}

// RefundOrderInput 退款输入
type RefundOrderInput struct {
	OrderID uint
	Reason  string
	AdminID uint
}

// ListOrders 获取订单列表
func (s *OrderAdminService) ListOrders(input OrderListInput) ([]models.UserOrder, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, ErrOrderFetchFailed
	}
	orders, total, err := s.repo.List(repository.OrderListFilter{
		OrderNo:     strings.TrimSpace(input.OrderNo),
		UserID:      input.UserID,
		BundleID:    input.BundleID,
		Status:      strings.TrimSpace(strings.ToLower(input.Status)),
		CreatedFrom: input.CreatedFrom,
		CreatedTo:   input.CreatedTo,
		Page:        input.Page,
		PageSize:    input.PageSize,
	})
	if err != nil {
		return nil, 0, ErrOrderFetchFailed
	}
	return orders, total, nil
}

// GetOrder 获取订单详情
func (s *OrderAdminService) GetOrder(id uint) (*models.UserOrder, error) {
	if s == nil || s.repo == nil || id == 0 {
		return nil, ErrOrderInvalid
	}
	order, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// RefundOrder 订单退款。
// 仅已支付/已完成订单可退，退款同时开具红冲单。
func (s *OrderAdminService) RefundOrder(input RefundOrderInput) (*models.UserOrder, *models.FinancialDocument, error) {
	if s == nil || s.repo == nil {
		return nil, nil, ErrOrderRefundFailed
	}
	if input.OrderID == 0 || input.AdminID == 0 {
		return nil, nil, ErrOrderInvalid
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, nil, ErrOrderInvalid
	}

	order, err := s.repo.GetByID(input.OrderID)
	if err != nil {
		return nil, nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, nil, ErrOrderNotFound
	}
	switch order.Status {
	case constants.OrderStatusRefunded:
		return nil, nil, ErrOrderAlreadyRefunded
	case constants.OrderStatusPaid, constants.OrderStatusCompleted:
	default:
		return nil, nil, ErrOrderNotRefundable
	}

	now := time.Now()
	var creditNote *models.FinancialDocument
	if err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order.Status = constants.OrderStatusRefunded
		order.RefundReason = reason
		order.RefundedAt = &now
		order.RefundedByID = &input.AdminID
		order.UpdatedAt = now
		if err := repo.Update(order); err != nil {
			return err
		}
		if s.financialSvc != nil {
			doc, err := s.financialSvc.IssueCreditNoteInTx(tx, order, reason)
			if err != nil {
				return err
			}
			creditNote = doc
		}
		return nil
	}); err != nil {
		return nil, nil, ErrOrderRefundFailed
	}
	return order, creditNote, nil
}

// BuildOrderNo 生成订单号
func BuildOrderNo(now time.Time) string {
	return fmt.Sprintf("ORD%s%s", now.Format("20060102150405"), randomCode(6, constants.PromoCodeCharset))
}
