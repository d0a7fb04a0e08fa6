package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/esim-backoffice/internal/constants"
	"github.com/esim-backoffice/internal/models"
	"github.com/esim-backoffice/internal/queue"
	"github.com/esim-backoffice/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DocumentSender 单据投递接口
type DocumentSender interface {
	SendDocument(doc *models.FinancialDocument, email string) error
}

// FinancialService 财务单据服务
type FinancialService struct {
	repo        repository.FinancialDocumentRepository
	queueClient *queue.Client
	sender      DocumentSender
	supplier    SupplierInfo
}

// SupplierInfo 开票方信息
type SupplierInfo struct {
	Name    string
	VAT     string
	Address string
}

// NewFinancialService 创建财务单据服务
func NewFinancialService(repo repository.FinancialDocumentRepository, queueClient *queue.Client, sender DocumentSender, supplier SupplierInfo) *FinancialService {
	return &FinancialService{
		repo:        repo,
		queueClient: queueClient,
		sender:      sender,
		supplier:    supplier,
	}
}

// FinancialDocumentListInput 单据列表输入
type FinancialDocumentListInput struct {
	DocumentNo string
	Type       string
	OrderID    uint
	IssuedFrom *time.Time
	IssuedTo   *time.Time
	Page       int
	PageSize   int
}

// ListDocuments 获取单据列表
func (s *FinancialService) ListDocuments(input FinancialDocumentListInput) ([]models.FinancialDocument, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, ErrFinancialDocFetchFailed
	}
	docs, total, err := s.repo.List(repository.FinancialDocumentListFilter{
		DocumentNo: strings.TrimSpace(strings.ToUpper(input.DocumentNo)),
		Type:       strings.TrimSpace(strings.ToLower(input.Type)),
		OrderID:    input.OrderID,
		IssuedFrom: input.IssuedFrom,
		IssuedTo:   input.IssuedTo,
		Page:       input.Page,
		PageSize:   input.PageSize,
		WithLines:  true,
	})
	if err != nil {
		return nil, 0, ErrFinancialDocFetchFailed
	}
	return docs, total, nil
}

// GetDocument 获取单据详情
func (s *FinancialService) GetDocument(id uint) (*models.FinancialDocument, error) {
	if s == nil || s.repo == nil || id == 0 {
		return nil, ErrFinancialDocInvalid
	}
	doc, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrFinancialDocFetchFailed
	}
	if doc == nil {
		return nil, ErrFinancialDocNotFound
	}
	return doc, nil
}

// IssueInvoice 为已支付订单开具发票
func (s *FinancialService) IssueInvoice(order *models.UserOrder) (*models.FinancialDocument, error) {
	if s == nil || s.repo == nil || order == nil {
		return nil, ErrFinancialDocInvalid
	}
	doc := s.buildDocument(order, constants.FinancialDocTypeInvoice, "", nil)
	if err := s.repo.Create(doc); err != nil {
		return nil, ErrFinancialDocCreateFailed
	}
	return doc, nil
}

// IssueCreditNoteInTx 在事务内为退款订单开具红冲单。
// 红冲单金额为负，关联原发票。
func (s *FinancialService) IssueCreditNoteInTx(tx *gorm.DB, order *models.UserOrder, reason string) (*models.FinancialDocument, error) {
	if s == nil || s.repo == nil || order == nil {
		return nil, ErrFinancialDocInvalid
	}
	repo := s.repo.WithTx(tx)

	invoice, err := repo.GetInvoiceByOrderID(order.ID)
	if err != nil {
		return nil, ErrFinancialDocFetchFailed
	}
	var relatedID *uint
	if invoice != nil {
		id := invoice.ID
		relatedID = &id
	}

	doc := s.buildDocument(order, constants.FinancialDocTypeCreditNote, reason, relatedID)
	if err := repo.Create(doc); err != nil {
		return nil, ErrFinancialDocCreateFailed
	}
	return doc, nil
}

// ResendDocument 投递单据补发任务
func (s *FinancialService) ResendDocument(id uint, email string) error {
	if s == nil || s.repo == nil || id == 0 {
		return ErrFinancialDocInvalid
	}
	doc, err := s.GetDocument(id)
	if err != nil {
		return err
	}
	target := strings.TrimSpace(email)
	if target == "" {
		target = doc.BeneficiaryEmail
	}
	if target == "" {
		return ErrFinancialDocInvalid
	}
	if s.queueClient == nil || !s.queueClient.Enabled() {
		return ErrFinancialDocInvalid
	}
	return s.queueClient.EnqueueFinancialDocResend(queue.FinancialDocResendPayload{
		DocumentID: doc.ID,
		Email:      target,
	}, 0)
}

// DeliverDocument 投递单据到指定邮箱
func (s *FinancialService) DeliverDocument(doc *models.FinancialDocument, email string) error {
	if s == nil || doc == nil {
		return ErrFinancialDocInvalid
	}
	target := strings.TrimSpace(email)
	if target == "" {
		target = doc.BeneficiaryEmail
	}
	if target == "" {
		return ErrFinancialDocInvalid
	}
	if s.sender == nil {
		return ErrFinancialDocDeliverFailed
	}
	if err := s.sender.SendDocument(doc, target); err != nil {
		return fmt.Errorf("%w: %v", ErrFinancialDocDeliverFailed, err)
	}
	return nil
}

// ExportDocuments 流式导出单据 CSV，单据头与明细行平铺为一行一明细。
func (s *FinancialService) ExportDocuments(input FinancialDocumentListInput, w io.Writer) (int64, error) {
	if s == nil || s.repo == nil {
		return 0, ErrFinancialDocFetchFailed
	}
	filter := repository.FinancialDocumentListFilter{
		DocumentNo: strings.TrimSpace(strings.ToUpper(input.DocumentNo)),
		Type:       strings.TrimSpace(strings.ToLower(input.Type)),
		OrderID:    input.OrderID,
		IssuedFrom: input.IssuedFrom,
		IssuedTo:   input.IssuedTo,
	}

	writer := csv.NewWriter(w)
	header := []string{
		"document_no",
		"type",
		"order_id",
		"supplier_name",
		"beneficiary_name",
		"line_description",
		"quantity",
		"unit_price",
		"vat_rate",
		"net_amount",
		"vat_amount",
		"total_amount",
		"currency",
		"issued_at",
	}
	if err := writer.Write(header); err != nil {
		return 0, ErrFinancialDocFetchFailed
	}

	var exported int64
	err := s.repo.IterateByFilter(filter, constants.ExportStreamChunk, func(docs []models.FinancialDocument) error {
		for _, doc := range docs {
			orderID := ""
			if doc.OrderID != nil {
				orderID = strconv.FormatUint(uint64(*doc.OrderID), 10)
			}
			lines := doc.Lines
			if len(lines) == 0 {
				lines = []models.FinancialDocumentLine{{}}
			}
			for _, line := range lines {
				record := []string{
					doc.DocumentNo,
					doc.Type,
					orderID,
					doc.SupplierName,
					doc.BeneficiaryName,
					line.Description,
					strconv.Itoa(line.Quantity),
					line.UnitPrice.String(),
					strconv.Itoa(line.VATRate),
					doc.NetAmount.String(),
					doc.VATAmount.String(),
					doc.TotalAmount.String(),
					doc.Currency,
					doc.IssuedAt.Format(time.RFC3339),
				}
				if err := writer.Write(record); err != nil {
					return err
				}
			}
			exported++
			if exported > constants.FinancialExportMax {
				return ErrFinancialDocInvalid
			}
		}
		writer.Flush()
		return writer.Error()
	})
	if err != nil {
		return 0, ErrFinancialDocFetchFailed
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, ErrFinancialDocFetchFailed
	}
	return exported, nil
}

func (s *FinancialService) buildDocument(order *models.UserOrder, docType, reason string, relatedID *uint) *models.FinancialDocument {
	now := time.Now()
	amount := order.Amount.Decimal
	sign := "INV"
	if docType == constants.FinancialDocTypeCreditNote {
		amount = amount.Neg()
		sign = "CRN"
	}

	beneficiaryName := ""
	beneficiaryEmail := ""
	if order.User != nil {
		beneficiaryName = order.User.DisplayName
		beneficiaryEmail = order.User.Email
	}
	description := fmt.Sprintf("Order %s", order.OrderNo)
	if order.Bundle != nil {
		description = fmt.Sprintf("Order %s - %s", order.OrderNo, order.Bundle.Name)
	}
	if reason != "" {
		description = fmt.Sprintf("%s (refund: %s)", description, reason)
	}

	orderID := order.ID
	return &models.FinancialDocument{
		DocumentNo:       fmt.Sprintf("%s%s%s", sign, now.Format("20060102150405"), randomCode(4, constants.PromoCodeCharset)),
		Type:             docType,
		OrderID:          &orderID,
		RelatedDocID:     relatedID,
		SupplierName:     s.supplier.Name,
		SupplierVAT:      s.supplier.VAT,
		SupplierAddress:  s.supplier.Address,
		BeneficiaryName:  beneficiaryName,
		BeneficiaryEmail: beneficiaryEmail,
		NetAmount:        models.NewMoneyFromDecimal(amount),
		VATAmount:        models.NewMoneyFromDecimal(decimal.Zero),
		TotalAmount:      models.NewMoneyFromDecimal(amount),
		Currency:         order.Currency,
		IssuedAt:         now,
		CreatedAt:        now,
		UpdatedAt:        now,
		Lines: []models.FinancialDocumentLine{
			{
				Description: description,
				Quantity:    1,
				UnitPrice:   models.NewMoneyFromDecimal(amount),
				VATRate:     0,
			},
		},
	}
}
