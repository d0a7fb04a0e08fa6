package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/esim-backoffice/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupVoucherRepoTest(t *testing.T) (*GormVoucherRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Partner{}, &models.Voucher{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return NewVoucherRepository(db), db
}

func createVoucher(t *testing.T, db *gorm.DB, code string, used, exported bool) *models.Voucher {
	t.Helper()
	voucher := models.Voucher{
		Code:     code,
		Amount:   models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		IsUsed:   used,
		IsActive: true,
		Exported: exported,
	}
	if err := db.Create(&voucher).Error; err != nil {
		t.Fatalf("create voucher failed: %v", err)
	}
	return &voucher
}

func TestVoucherDeleteUnusedUnexported(t *testing.T) {
	repo, db := setupVoucherRepoTest(t)
	clean := createVoucher(t, db, "CLEAN0000001", false, false)
	used := createVoucher(t, db, "USED00000001", true, false)
	shipped := createVoucher(t, db, "SHIP00000001", false, true)

	rows, err := repo.DeleteUnusedUnexported([]uint{clean.ID, used.ID, shipped.ID})
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if rows != 1 {
		t.Fatalf("rows affected want 1 got %d", rows)
	}

	var remaining int64
	if err := db.Model(&models.Voucher{}).Count(&remaining).Error; err != nil {
		t.Fatalf("count vouchers failed: %v", err)
	}
	if remaining != 2 {
		t.Fatalf("remaining want 2 got %d", remaining)
	}
	var gone models.Voucher
	if err := db.First(&gone, clean.ID).Error; err == nil {
		t.Fatalf("clean voucher should be deleted")
	}
}

func TestVoucherMarkExported(t *testing.T) {
	repo, db := setupVoucherRepoTest(t)
	first := createVoucher(t, db, "EXP000000001", false, false)
	second := createVoucher(t, db, "EXP000000002", false, false)

	now := time.Now()
	rows, err := repo.MarkExported([]uint{first.ID, second.ID}, now)
	if err != nil {
		t.Fatalf("mark exported failed: %v", err)
	}
	if rows != 2 {
		t.Fatalf("rows affected want 2 got %d", rows)
	}

	var got models.Voucher
	if err := db.First(&got, first.ID).Error; err != nil {
		t.Fatalf("reload voucher failed: %v", err)
	}
	if !got.Exported || got.ExportedAt == nil {
		t.Fatalf("voucher should be marked exported: %+v", got)
	}
}

func TestVoucherListFilters(t *testing.T) {
	repo, db := setupVoucherRepoTest(t)

	partner := models.Partner{Name: "Aero Travel", CodePrefix: "AT", IsActive: true}
	if err := db.Create(&partner).Error; err != nil {
		t.Fatalf("create partner failed: %v", err)
	}
	linked := createVoucher(t, db, "AT0000000001", false, false)
	if err := db.Model(linked).Update("partner_id", partner.ID).Error; err != nil {
		t.Fatalf("link partner failed: %v", err)
	}
	createVoucher(t, db, "ZZ0000000001", true, false)
	createVoucher(t, db, "ZZ0000000002", false, true)

	vouchers, total, err := repo.List(VoucherListFilter{PartnerID: partner.ID, WithPartner: true})
	if err != nil {
		t.Fatalf("list by partner failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("partner filter total want 1 got %d", total)
	}
	if vouchers[0].Partner == nil || vouchers[0].Partner.Name != "Aero Travel" {
		t.Fatalf("partner not preloaded: %+v", vouchers[0].Partner)
	}

	used := true
	_, total, err = repo.List(VoucherListFilter{IsUsed: &used})
	if err != nil {
		t.Fatalf("list by used failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("used filter total want 1 got %d", total)
	}

	exported := false
	_, total, err = repo.List(VoucherListFilter{Exported: &exported})
	if err != nil {
		t.Fatalf("list by exported failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("unexported filter total want 2 got %d", total)
	}
}

func TestVoucherExistingCodes(t *testing.T) {
	repo, db := setupVoucherRepoTest(t)
	createVoucher(t, db, "DUP000000001", false, false)

	existing, err := repo.ExistingCodes([]string{"DUP000000001", "NEW000000001"})
	if err != nil {
		t.Fatalf("existing codes failed: %v", err)
	}
	if len(existing) != 1 {
		t.Fatalf("existing want 1 got %d", len(existing))
	}
	if _, ok := existing["DUP000000001"]; !ok {
		t.Fatalf("DUP000000001 should be reported as existing")
	}
}

func TestVoucherIterateByFilterChunks(t *testing.T) {
	repo, db := setupVoucherRepoTest(t)
	for i := 0; i < 7; i++ {
		createVoucher(t, db, fmt.Sprintf("IT%010d", i), false, false)
	}

	var batches []int
	err := repo.IterateByFilter(VoucherListFilter{}, 3, func(batch []models.Voucher) error {
		batches = append(batches, len(batch))
		return nil
	})
	if err != nil {
		t.Fatalf("iterate failed: %v", err)
	}
	if len(batches) != 3 || batches[0] != 3 || batches[1] != 3 || batches[2] != 1 {
		t.Fatalf("batch sizes want [3 3 1] got %v", batches)
	}
}
