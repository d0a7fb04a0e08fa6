package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/esim-backoffice/internal/constants"
	"github.com/esim-backoffice/internal/models"
	"github.com/esim-backoffice/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fakeDocumentSender struct {
	sent  []string
	fail  bool
	err   error
	lastN string
}

func (f *fakeDocumentSender) SendDocument(doc *models.FinancialDocument, email string) error {
	if f.fail {
		return f.err
	}
	f.sent = append(f.sent, email)
	f.lastN = doc.DocumentNo
	return nil
}

func setupFinancialServiceTest(t *testing.T, sender DocumentSender) (*FinancialService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.FinancialDocument{}, &models.FinancialDocumentLine{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	models.DB = db
	svc := NewFinancialService(
		repository.NewFinancialDocumentRepository(db),
		nil,
		sender,
		SupplierInfo{Name: "eSIM Backoffice Ltd", VAT: "EU123456789", Address: "1 Example Way"},
	)
	return svc, db
}

func seedDocument(t *testing.T, db *gorm.DB, docNo string, lines int) *models.FinancialDocument {
	t.Helper()
	orderID := uint(1)
	doc := models.FinancialDocument{
		DocumentNo:       docNo,
		Type:             constants.FinancialDocTypeInvoice,
		OrderID:          &orderID,
		SupplierName:     "eSIM Backoffice Ltd",
		BeneficiaryName:  "Jamie Doe",
		BeneficiaryEmail: "jamie@example.com",
		NetAmount:        models.NewMoneyFromDecimal(decimal.NewFromFloat(19.9)),
		VATAmount:        models.NewMoneyFromDecimal(decimal.Zero),
		TotalAmount:      models.NewMoneyFromDecimal(decimal.NewFromFloat(19.9)),
		Currency:         "EUR",
		IssuedAt:         time.Now(),
	}
	for i := 0; i < lines; i++ {
		doc.Lines = append(doc.Lines, models.FinancialDocumentLine{
			Description: fmt.Sprintf("Line %d", i+1),
			Quantity:    1,
			UnitPrice:   models.NewMoneyFromDecimal(decimal.NewFromFloat(19.9)),
		})
	}
	if err := db.Create(&doc).Error; err != nil {
		t.Fatalf("create document failed: %v", err)
	}
	return &doc
}

func TestIssueInvoice(t *testing.T) {
	svc, db := setupFinancialServiceTest(t, nil)

	order := &models.UserOrder{
		ID:       42,
		OrderNo:  "ORD20260828123045ABCDEF",
		Amount:   models.NewMoneyFromDecimal(decimal.NewFromFloat(12.9)),
		Currency: "EUR",
		Status:   constants.OrderStatusPaid,
		User:     &models.User{DisplayName: "Jamie Doe", Email: "jamie@example.com"},
		Bundle:   &models.Bundle{Name: "Europe 5GB"},
	}
	doc, err := svc.IssueInvoice(order)
	if err != nil {
		t.Fatalf("issue invoice failed: %v", err)
	}
	if !strings.HasPrefix(doc.DocumentNo, "INV") {
		t.Fatalf("document no want INV prefix got %s", doc.DocumentNo)
	}
	if doc.SupplierName != "eSIM Backoffice Ltd" {
		t.Fatalf("supplier name not applied: %s", doc.SupplierName)
	}
	if doc.BeneficiaryEmail != "jamie@example.com" {
		t.Fatalf("beneficiary email want jamie@example.com got %s", doc.BeneficiaryEmail)
	}
	if !doc.TotalAmount.Decimal.Equal(decimal.NewFromFloat(12.9)) {
		t.Fatalf("total amount want 12.9 got %s", doc.TotalAmount.Decimal)
	}
	if len(doc.Lines) != 1 || !strings.Contains(doc.Lines[0].Description, "Europe 5GB") {
		t.Fatalf("invoice line missing bundle name: %+v", doc.Lines)
	}

	var count int64
	if err := db.Model(&models.FinancialDocument{}).Count(&count).Error; err != nil {
		t.Fatalf("count documents failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("persisted documents want 1 got %d", count)
	}
}

func TestExportDocumentsFlattensLines(t *testing.T) {
	svc, db := setupFinancialServiceTest(t, nil)
	seedDocument(t, db, "INV0001", 2)
	seedDocument(t, db, "INV0002", 1)

	var buf bytes.Buffer
	exported, err := svc.ExportDocuments(FinancialDocumentListInput{}, &buf)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if exported != 2 {
		t.Fatalf("exported documents want 2 got %d", exported)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse csv failed: %v", err)
	}
	// 表头 + 单据1的两行明细 + 单据2的一行明细
	if len(records) != 4 {
		t.Fatalf("csv rows want 4 got %d", len(records))
	}
	if records[0][0] != "document_no" {
		t.Fatalf("header first column want document_no got %s", records[0][0])
	}
	if records[1][0] != "INV0001" || records[2][0] != "INV0001" {
		t.Fatalf("line rows should repeat document no: %v %v", records[1][0], records[2][0])
	}
	if records[1][5] != "Line 1" || records[2][5] != "Line 2" {
		t.Fatalf("line descriptions mismatch: %v %v", records[1][5], records[2][5])
	}
}

func TestDeliverDocument(t *testing.T) {
	sender := &fakeDocumentSender{}
	svc, db := setupFinancialServiceTest(t, sender)
	doc := seedDocument(t, db, "INV0001", 1)

	if err := svc.DeliverDocument(doc, "override@example.com"); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0] != "override@example.com" {
		t.Fatalf("explicit email not used: %v", sender.sent)
	}

	// 未指定邮箱时回落到受票方邮箱
	if err := svc.DeliverDocument(doc, ""); err != nil {
		t.Fatalf("deliver with fallback failed: %v", err)
	}
	if sender.sent[1] != "jamie@example.com" {
		t.Fatalf("beneficiary fallback want jamie@example.com got %s", sender.sent[1])
	}

	doc.BeneficiaryEmail = ""
	if err := svc.DeliverDocument(doc, "  "); !errors.Is(err, ErrFinancialDocInvalid) {
		t.Fatalf("no target email want ErrFinancialDocInvalid got %v", err)
	}
}

func TestDeliverDocumentSenderFailures(t *testing.T) {
	sendErr := errors.New("gateway timeout")
	sender := &fakeDocumentSender{fail: true, err: sendErr}
	svc, db := setupFinancialServiceTest(t, sender)
	doc := seedDocument(t, db, "INV0001", 1)

	if err := svc.DeliverDocument(doc, "jamie@example.com"); !errors.Is(err, ErrFinancialDocDeliverFailed) {
		t.Fatalf("sender error want ErrFinancialDocDeliverFailed got %v", err)
	}

	noSender, _ := setupFinancialServiceTest(t, nil)
	if err := noSender.DeliverDocument(doc, "jamie@example.com"); !errors.Is(err, ErrFinancialDocDeliverFailed) {
		t.Fatalf("nil sender want ErrFinancialDocDeliverFailed got %v", err)
	}
}

func TestResendDocumentRequiresQueue(t *testing.T) {
	svc, db := setupFinancialServiceTest(t, nil)
	doc := seedDocument(t, db, "INV0001", 1)

	if err := svc.ResendDocument(doc.ID, "jamie@example.com"); !errors.Is(err, ErrFinancialDocInvalid) {
		t.Fatalf("disabled queue want ErrFinancialDocInvalid got %v", err)
	}
	if err := svc.ResendDocument(9999, ""); !errors.Is(err, ErrFinancialDocNotFound) {
		t.Fatalf("missing document want ErrFinancialDocNotFound got %v", err)
	}
}
