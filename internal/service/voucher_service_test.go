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

func setupVoucherServiceTest(t *testing.T) (*VoucherService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Partner{}, &models.Voucher{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	models.DB = db
	svc := NewVoucherService(
		repository.NewVoucherRepository(db),
		repository.NewPartnerRepository(db),
	)
	return svc, db
}

func seedPartner(t *testing.T, db *gorm.DB, prefix string, active bool) *models.Partner {
	t.Helper()
	partner := models.Partner{
		Name:       "Partner " + prefix,
		CodePrefix: prefix,
		IsActive:   active,
	}
	if err := db.Create(&partner).Error; err != nil {
		t.Fatalf("create partner failed: %v", err)
	}
	return &partner
}

func TestGenerateUniqueCodesRejectsOversizedPrefix(t *testing.T) {
	svc, _ := setupVoucherServiceTest(t)

	// 前缀占满整个码长时没有随机位可用，必须拒绝而不是生成重码
	for _, prefix := range []string{
		strings.Repeat("X", constants.VoucherCodeLength),
		strings.Repeat("X", constants.VoucherCodeLength+3),
	} {
		if _, err := svc.generateUniqueCodes(2, prefix); !errors.Is(err, ErrVoucherInvalid) {
			t.Fatalf("prefix %q want ErrVoucherInvalid got %v", prefix, err)
		}
	}
}

func TestBulkGenerateVouchersWithPartnerPrefix(t *testing.T) {
	svc, db := setupVoucherServiceTest(t)
	partner := seedPartner(t, db, "AT", true)

	expires := time.Now().AddDate(0, 6, 0)
	vouchers, result, err := svc.BulkGenerateVouchers(BulkGenerateVouchersInput{
		Count:     30,
		Amount:    models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		PartnerID: partner.ID,
		ExpiredAt: &expires,
	})
	if err != nil {
		t.Fatalf("bulk generate failed: %v", err)
	}
	if result.Successful != 30 {
		t.Fatalf("successful want 30 got %d", result.Successful)
	}

	seen := make(map[string]struct{}, len(vouchers))
	for _, voucher := range vouchers {
		if len(voucher.Code) != constants.VoucherCodeLength {
			t.Fatalf("code length want %d got %q", constants.VoucherCodeLength, voucher.Code)
		}
		if !strings.HasPrefix(voucher.Code, "AT") {
			t.Fatalf("code %q missing partner prefix", voucher.Code)
		}
		if _, dup := seen[voucher.Code]; dup {
			t.Fatalf("duplicate code generated: %s", voucher.Code)
		}
		seen[voucher.Code] = struct{}{}
		if voucher.PartnerID == nil || *voucher.PartnerID != partner.ID {
			t.Fatalf("voucher not linked to partner: %+v", voucher.PartnerID)
		}
		if voucher.ExpiredAt == nil || !voucher.ExpiredAt.Equal(EndOfDay(expires)) {
			t.Fatalf("expired_at want %v got %v", EndOfDay(expires), voucher.ExpiredAt)
		}
	}

	var count int64
	if err := db.Model(&models.Voucher{}).Count(&count).Error; err != nil {
		t.Fatalf("count vouchers failed: %v", err)
	}
	if count != 30 {
		t.Fatalf("persisted count want 30 got %d", count)
	}
}

func TestBulkGenerateVouchersWithoutPartner(t *testing.T) {
	svc, _ := setupVoucherServiceTest(t)

	vouchers, _, err := svc.BulkGenerateVouchers(BulkGenerateVouchersInput{
		Count:  5,
		Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
	})
	if err != nil {
		t.Fatalf("bulk generate failed: %v", err)
	}
	for _, voucher := range vouchers {
		if len(voucher.Code) != constants.VoucherCodeLength {
			t.Fatalf("code length want %d got %q", constants.VoucherCodeLength, voucher.Code)
		}
		if voucher.PartnerID != nil {
			t.Fatalf("partner_id want nil got %v", *voucher.PartnerID)
		}
	}
}

func TestBulkGenerateVouchersRejected(t *testing.T) {
	svc, db := setupVoucherServiceTest(t)
	inactive := seedPartner(t, db, "NH", false)

	cases := []struct {
		name  string
		input BulkGenerateVouchersInput
		want  error
	}{
		{
			name:  "zero count",
			input: BulkGenerateVouchersInput{Count: 0, Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(5))},
			want:  ErrVoucherInvalid,
		},
		{
			name:  "count over cap",
			input: BulkGenerateVouchersInput{Count: constants.VoucherBulkMaxCount + 1, Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(5))},
			want:  ErrVoucherInvalid,
		},
		{
			name:  "zero amount",
			input: BulkGenerateVouchersInput{Count: 5, Amount: models.NewMoneyFromDecimal(decimal.Zero)},
			want:  ErrVoucherInvalid,
		},
		{
			name:  "unknown partner",
			input: BulkGenerateVouchersInput{Count: 5, Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(5)), PartnerID: 9999},
			want:  ErrPartnerNotFound,
		},
		{
			name:  "inactive partner",
			input: BulkGenerateVouchersInput{Count: 5, Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(5)), PartnerID: inactive.ID},
			want:  ErrPartnerInvalid,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := svc.BulkGenerateVouchers(tc.input); !errors.Is(err, tc.want) {
				t.Fatalf("want %v got %v", tc.want, err)
			}
		})
	}

	past := time.Now().AddDate(0, 0, -2)
	_, _, err := svc.BulkGenerateVouchers(BulkGenerateVouchersInput{
		Count:     5,
		Amount:    models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
		ExpiredAt: &past,
	})
	if !errors.Is(err, ErrVoucherInvalid) {
		t.Fatalf("past expiry want ErrVoucherInvalid got %v", err)
	}
}

func TestBulkExpireVouchers(t *testing.T) {
	svc, db := setupVoucherServiceTest(t)

	vouchers := []models.Voucher{
		{Code: "AAAA00000001", Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(5)), IsActive: true},
		{Code: "AAAA00000002", Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(5)), IsActive: true},
	}
	for i := range vouchers {
		if err := db.Create(&vouchers[i]).Error; err != nil {
			t.Fatalf("create voucher failed: %v", err)
		}
	}

	result, err := svc.BulkExpireVouchers([]uint{vouchers[0].ID, vouchers[1].ID, vouchers[0].ID, 0})
	if err != nil {
		t.Fatalf("bulk expire failed: %v", err)
	}
	if result.Successful != 2 {
		t.Fatalf("expired want 2 got %d", result.Successful)
	}

	var got models.Voucher
	if err := db.First(&got, vouchers[0].ID).Error; err != nil {
		t.Fatalf("reload voucher failed: %v", err)
	}
	if got.IsActive {
		t.Fatalf("voucher should be inactive after expire")
	}
	if got.ExpiredAt == nil {
		t.Fatalf("expired_at should be set")
	}

	if _, err := svc.BulkExpireVouchers(nil); !errors.Is(err, ErrSelectionEmpty) {
		t.Fatalf("empty ids want ErrSelectionEmpty got %v", err)
	}
}

func TestBulkDeleteVouchersGuards(t *testing.T) {
	svc, db := setupVoucherServiceTest(t)

	clean := models.Voucher{Code: "BBBB00000001", Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(5)), IsActive: true}
	used := models.Voucher{Code: "BBBB00000002", Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(5)), IsActive: true, IsUsed: true}
	shipped := models.Voucher{Code: "BBBB00000003", Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(5)), IsActive: true, Exported: true}
	for _, voucher := range []*models.Voucher{&clean, &used, &shipped} {
		if err := db.Create(voucher).Error; err != nil {
			t.Fatalf("create voucher failed: %v", err)
		}
	}

	result, err := svc.BulkDeleteVouchers([]uint{clean.ID, used.ID, shipped.ID, 9999})
	if err != nil {
		t.Fatalf("bulk delete failed: %v", err)
	}
	if result.Successful != 1 {
		t.Fatalf("deleted want 1 got %d", result.Successful)
	}
	if result.Failed != 3 {
		t.Fatalf("failed want 3 got %d", result.Failed)
	}

	reasons := make(map[string]bool, len(result.Errors))
	for _, bulkErr := range result.Errors {
		reasons[bulkErr.Reason] = true
	}
	for _, want := range []string{"already used", "already exported", "not found"} {
		if !reasons[want] {
			t.Fatalf("missing failure reason %q in %+v", want, result.Errors)
		}
	}

	var count int64
	if err := db.Model(&models.Voucher{}).Count(&count).Error; err != nil {
		t.Fatalf("count vouchers failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("remaining vouchers want 2 got %d", count)
	}
}

func TestExportVouchersMarksExported(t *testing.T) {
	svc, db := setupVoucherServiceTest(t)
	partner := seedPartner(t, db, "AT", true)

	for i := 0; i < 3; i++ {
		voucher := models.Voucher{
			Code:      fmt.Sprintf("ATEXPORT%04d", i),
			Amount:    models.NewMoneyFromDecimal(decimal.NewFromFloat(12.5)),
			PartnerID: &partner.ID,
			IsActive:  true,
		}
		if err := db.Create(&voucher).Error; err != nil {
			t.Fatalf("create voucher failed: %v", err)
		}
	}

	var buf bytes.Buffer
	exported, err := svc.ExportVouchers(VoucherListInput{PartnerID: partner.ID}, &buf)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if exported != 3 {
		t.Fatalf("exported want 3 got %d", exported)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse csv failed: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("csv rows want 4 (header + 3) got %d", len(records))
	}
	if records[0][2] != "amount" {
		t.Fatalf("header third column want amount got %s", records[0][2])
	}
	if records[1][2] != "12.50" {
		t.Fatalf("amount column want 12.50 got %s", records[1][2])
	}
	if records[1][3] != partner.Name {
		t.Fatalf("partner column want %s got %s", partner.Name, records[1][3])
	}

	var marked int64
	if err := db.Model(&models.Voucher{}).Where("exported = ?", true).Count(&marked).Error; err != nil {
		t.Fatalf("count exported failed: %v", err)
	}
	if marked != 3 {
		t.Fatalf("marked exported want 3 got %d", marked)
	}
}
