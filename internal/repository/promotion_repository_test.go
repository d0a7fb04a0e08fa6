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

func setupPromotionRepoTest(t *testing.T) (*GormPromotionRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.PromotionRuleAction{},
		&models.PromotionRuleEvent{},
		&models.PromotionRule{},
		&models.Promotion{},
	); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return NewPromotionRepository(db), db
}

func createPromotion(t *testing.T, db *gorm.DB, code, promoType string, active bool) *models.Promotion {
	t.Helper()
	promotion := models.Promotion{
		Code:     code,
		Name:     "Promo " + code,
		Type:     promoType,
		Amount:   models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
		RuleID:   1,
		IsActive: active,
	}
	if err := db.Create(&promotion).Error; err != nil {
		t.Fatalf("create promotion failed: %v", err)
	}
	return &promotion
}

func TestPromotionExistingCodes(t *testing.T) {
	repo, db := setupPromotionRepoTest(t)
	createPromotion(t, db, "TAKEN1", "PROMOTION", true)
	createPromotion(t, db, "TAKEN2", "PROMOTION", true)

	existing, err := repo.ExistingCodes([]string{"TAKEN1", "TAKEN2", "FREE01"})
	if err != nil {
		t.Fatalf("existing codes failed: %v", err)
	}
	if len(existing) != 2 {
		t.Fatalf("existing want 2 got %d", len(existing))
	}
	if _, ok := existing["TAKEN1"]; !ok {
		t.Fatalf("TAKEN1 should be reported as existing")
	}
	if _, ok := existing["FREE01"]; ok {
		t.Fatalf("FREE01 should not be reported as existing")
	}

	empty, err := repo.ExistingCodes(nil)
	if err != nil {
		t.Fatalf("existing codes with empty input failed: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("empty input want empty map got %v", empty)
	}
}

func TestPromotionListFilters(t *testing.T) {
	repo, db := setupPromotionRepoTest(t)
	createPromotion(t, db, "SPRING01", "PROMOTION", true)
	createPromotion(t, db, "SPRING02", "PROMOTION", false)
	createPromotion(t, db, "REF001", "REFERRAL", true)

	_, total, err := repo.List(PromotionListFilter{Type: "PROMOTION"})
	if err != nil {
		t.Fatalf("list by type failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("type filter total want 2 got %d", total)
	}

	active := true
	_, total, err = repo.List(PromotionListFilter{IsActive: &active})
	if err != nil {
		t.Fatalf("list by active failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("active filter total want 2 got %d", total)
	}

	promotions, total, err := repo.List(PromotionListFilter{Search: "SPRING"})
	if err != nil {
		t.Fatalf("list by search failed: %v", err)
	}
	if total != 2 || len(promotions) != 2 {
		t.Fatalf("search filter want 2 got total=%d len=%d", total, len(promotions))
	}

	_, total, err = repo.List(PromotionListFilter{Code: "REF001"})
	if err != nil {
		t.Fatalf("list by code failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("code filter total want 1 got %d", total)
	}
}

func TestPromotionListPagination(t *testing.T) {
	repo, db := setupPromotionRepoTest(t)
	for i := 0; i < 25; i++ {
		createPromotion(t, db, fmt.Sprintf("PAGE%04d", i), "PROMOTION", true)
	}

	page1, total, err := repo.List(PromotionListFilter{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list page 1 failed: %v", err)
	}
	if total != 25 {
		t.Fatalf("total want 25 got %d", total)
	}
	if len(page1) != 10 {
		t.Fatalf("page 1 size want 10 got %d", len(page1))
	}

	page3, _, err := repo.List(PromotionListFilter{Page: 3, PageSize: 10})
	if err != nil {
		t.Fatalf("list page 3 failed: %v", err)
	}
	if len(page3) != 5 {
		t.Fatalf("page 3 size want 5 got %d", len(page3))
	}
}

func TestPromotionUpdateByFilter(t *testing.T) {
	repo, db := setupPromotionRepoTest(t)
	createPromotion(t, db, "UP001", "PROMOTION", true)
	createPromotion(t, db, "UP002", "PROMOTION", true)
	createPromotion(t, db, "UP003", "REFERRAL", true)

	rows, err := repo.UpdateByFilter(PromotionListFilter{Type: "PROMOTION"}, map[string]interface{}{
		"is_active": false,
	})
	if err != nil {
		t.Fatalf("update by filter failed: %v", err)
	}
	if rows != 2 {
		t.Fatalf("rows affected want 2 got %d", rows)
	}

	var stillActive int64
	if err := db.Model(&models.Promotion{}).Where("is_active = ?", true).Count(&stillActive).Error; err != nil {
		t.Fatalf("count active failed: %v", err)
	}
	if stillActive != 1 {
		t.Fatalf("active want 1 got %d", stillActive)
	}
}

func TestPromotionIterateByFilterChunks(t *testing.T) {
	repo, db := setupPromotionRepoTest(t)
	for i := 0; i < 12; i++ {
		createPromotion(t, db, fmt.Sprintf("IT%04d", i), "PROMOTION", true)
	}

	var batches []int
	var seen int
	err := repo.IterateByFilter(PromotionListFilter{Type: "PROMOTION"}, 5, func(batch []models.Promotion) error {
		batches = append(batches, len(batch))
		seen += len(batch)
		return nil
	})
	if err != nil {
		t.Fatalf("iterate failed: %v", err)
	}
	if seen != 12 {
		t.Fatalf("iterated rows want 12 got %d", seen)
	}
	if len(batches) != 3 || batches[0] != 5 || batches[1] != 5 || batches[2] != 2 {
		t.Fatalf("batch sizes want [5 5 2] got %v", batches)
	}
}

func TestPromotionIncrementTimesUsed(t *testing.T) {
	repo, db := setupPromotionRepoTest(t)
	promotion := createPromotion(t, db, "INC001", "PROMOTION", true)

	if err := repo.IncrementTimesUsed(promotion.ID, 1); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if err := repo.IncrementTimesUsed(promotion.ID, 3); err != nil {
		t.Fatalf("increment failed: %v", err)
	}

	var got models.Promotion
	if err := db.First(&got, promotion.ID).Error; err != nil {
		t.Fatalf("reload promotion failed: %v", err)
	}
	if got.TimesUsed != 4 {
		t.Fatalf("times_used want 4 got %d", got.TimesUsed)
	}
}

func TestPromotionCountExpiredBefore(t *testing.T) {
	repo, db := setupPromotionRepoTest(t)

	past := time.Now().Add(-48 * time.Hour)
	future := time.Now().Add(48 * time.Hour)
	expired := createPromotion(t, db, "OLD001", "PROMOTION", true)
	if err := db.Model(expired).Update("valid_to", past).Error; err != nil {
		t.Fatalf("set valid_to failed: %v", err)
	}
	current := createPromotion(t, db, "NEW001", "PROMOTION", true)
	if err := db.Model(current).Update("valid_to", future).Error; err != nil {
		t.Fatalf("set valid_to failed: %v", err)
	}
	createPromotion(t, db, "OPEN01", "PROMOTION", true)

	total, err := repo.CountExpiredBefore(time.Now())
	if err != nil {
		t.Fatalf("count expired failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("expired count want 1 got %d", total)
	}
}
