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

func setupPromotionServiceTest(t *testing.T) (*PromotionAdminService, *gorm.DB) {
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
		&models.Bundle{},
		&models.BundleTag{},
	); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	models.DB = db
	svc := NewPromotionAdminService(
		repository.NewPromotionRepository(db),
		repository.NewPromotionRuleRepository(db),
		repository.NewBundleRepository(db),
	)
	return svc, db
}

func seedPromotionRule(t *testing.T, db *gorm.DB) *models.PromotionRule {
	t.Helper()
	action := models.PromotionRuleAction{Name: "PERCENT_DISCOUNT"}
	if err := db.Create(&action).Error; err != nil {
		t.Fatalf("create action failed: %v", err)
	}
	event := models.PromotionRuleEvent{Name: "PURCHASE"}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("create event failed: %v", err)
	}
	rule := models.PromotionRule{
		ActionID:    action.ID,
		EventID:     event.ID,
		MaxUsage:    1,
		Beneficiary: constants.BeneficiaryReferred,
	}
	if err := db.Create(&rule).Error; err != nil {
		t.Fatalf("create rule failed: %v", err)
	}
	return &rule
}

func TestCreatePromotionDuplicateCode(t *testing.T) {
	svc, db := setupPromotionServiceTest(t)
	rule := seedPromotionRule(t, db)

	input := CreatePromotionInput{
		Code:   "WELCOME10",
		Name:   "Welcome",
		Type:   constants.PromotionTypePromotion,
		Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		RuleID: rule.ID,
	}
	if _, err := svc.CreatePromotion(input); err != nil {
		t.Fatalf("create promotion failed: %v", err)
	}
	if _, err := svc.CreatePromotion(input); !errors.Is(err, ErrPromotionCodeExists) {
		t.Fatalf("duplicate code want ErrPromotionCodeExists got %v", err)
	}
}

func TestCreatePromotionAcceptsHyphenatedCode(t *testing.T) {
	svc, db := setupPromotionServiceTest(t)
	rule := seedPromotionRule(t, db)

	promotion, err := svc.CreatePromotion(CreatePromotionInput{
		Code:   "summer-sale",
		Name:   "Summer",
		Type:   constants.PromotionTypePromotion,
		Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
		RuleID: rule.ID,
	})
	if err != nil {
		t.Fatalf("hyphenated code should be accepted: %v", err)
	}
	if promotion.Code != "SUMMER-SALE" {
		t.Fatalf("code want SUMMER-SALE got %s", promotion.Code)
	}
}

func TestCreatePromotionRejectsInvalidInput(t *testing.T) {
	svc, db := setupPromotionServiceTest(t)
	rule := seedPromotionRule(t, db)

	cases := []struct {
		name  string
		input CreatePromotionInput
		want  error
	}{
		{
			name: "code too short",
			input: CreatePromotionInput{
				Code:   "AB",
				Type:   constants.PromotionTypePromotion,
				Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
				RuleID: rule.ID,
			},
			want: ErrPromotionInvalid,
		},
		{
			name: "bad charset",
			input: CreatePromotionInput{
				Code:   "WELCOME_10",
				Type:   constants.PromotionTypePromotion,
				Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
				RuleID: rule.ID,
			},
			want: ErrPromotionInvalid,
		},
		{
			name: "unknown type",
			input: CreatePromotionInput{
				Code:   "WELCOME10",
				Type:   "COUPON",
				Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
				RuleID: rule.ID,
			},
			want: ErrPromotionInvalid,
		},
		{
			name: "zero amount",
			input: CreatePromotionInput{
				Code:   "WELCOME10",
				Type:   constants.PromotionTypePromotion,
				Amount: models.NewMoneyFromDecimal(decimal.Zero),
				RuleID: rule.ID,
			},
			want: ErrPromotionInvalid,
		},
		{
			name: "missing rule",
			input: CreatePromotionInput{
				Code:   "WELCOME10",
				Type:   constants.PromotionTypePromotion,
				Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
			},
			want: ErrPromotionRuleInvalid,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreatePromotion(tc.input); !errors.Is(err, tc.want) {
				t.Fatalf("want %v got %v", tc.want, err)
			}
		})
	}
}

func TestCreatePromotionUnknownBundleCode(t *testing.T) {
	svc, db := setupPromotionServiceTest(t)
	rule := seedPromotionRule(t, db)

	bundleCode := "EU-MISSING"
	_, err := svc.CreatePromotion(CreatePromotionInput{
		Code:       "WELCOME10",
		Type:       constants.PromotionTypePromotion,
		Amount:     models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
		BundleCode: &bundleCode,
		RuleID:     rule.ID,
	})
	if !errors.Is(err, ErrBundleNotFound) {
		t.Fatalf("want ErrBundleNotFound got %v", err)
	}
}

func TestBulkGeneratePromotionsUniqueCodes(t *testing.T) {
	svc, db := setupPromotionServiceTest(t)
	rule := seedPromotionRule(t, db)

	promotions, result, err := svc.BulkGeneratePromotions(BulkGeneratePromotionsInput{
		Count:      50,
		CodeLength: 8,
		NamePrefix: "Spring",
		Type:       constants.PromotionTypePromotion,
		Amount:     models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
		RuleID:     rule.ID,
	})
	if err != nil {
		t.Fatalf("bulk generate failed: %v", err)
	}
	if len(promotions) != 50 {
		t.Fatalf("promotions want 50 got %d", len(promotions))
	}
	if result.Successful != 50 {
		t.Fatalf("successful want 50 got %d", result.Successful)
	}

	seen := make(map[string]struct{}, len(promotions))
	for _, promotion := range promotions {
		if len(promotion.Code) != 8 {
			t.Fatalf("code length want 8 got %q", promotion.Code)
		}
		for _, ch := range promotion.Code {
			if !strings.ContainsRune(constants.PromoCodeCharset, ch) {
				t.Fatalf("code %q contains char outside charset", promotion.Code)
			}
		}
		if _, dup := seen[promotion.Code]; dup {
			t.Fatalf("duplicate code generated: %s", promotion.Code)
		}
		seen[promotion.Code] = struct{}{}
		if !promotion.IsActive {
			t.Fatalf("generated promotion should be active")
		}
		if promotion.Name != "Spring" {
			t.Fatalf("name want Spring got %s", promotion.Name)
		}
	}

	var count int64
	if err := db.Model(&models.Promotion{}).Count(&count).Error; err != nil {
		t.Fatalf("count promotions failed: %v", err)
	}
	if count != 50 {
		t.Fatalf("persisted count want 50 got %d", count)
	}
}

func TestBulkGeneratePromotionsRejectsBadCount(t *testing.T) {
	svc, db := setupPromotionServiceTest(t)
	rule := seedPromotionRule(t, db)

	base := BulkGeneratePromotionsInput{
		Type:   constants.PromotionTypePromotion,
		Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
		RuleID: rule.ID,
	}

	input := base
	input.Count = 0
	if _, _, err := svc.BulkGeneratePromotions(input); !errors.Is(err, ErrPromotionInvalid) {
		t.Fatalf("count=0 want ErrPromotionInvalid got %v", err)
	}

	input = base
	input.Count = constants.PromoBulkMaxCount + 1
	if _, _, err := svc.BulkGeneratePromotions(input); !errors.Is(err, ErrPromotionInvalid) {
		t.Fatalf("count over cap want ErrPromotionInvalid got %v", err)
	}

	input = base
	input.Count = 10
	input.CodeLength = constants.PromoCodeMinLength - 1
	if _, _, err := svc.BulkGeneratePromotions(input); !errors.Is(err, ErrPromotionInvalid) {
		t.Fatalf("short code length want ErrPromotionInvalid got %v", err)
	}
}

func TestDeletePromotionUsedRejected(t *testing.T) {
	svc, db := setupPromotionServiceTest(t)
	rule := seedPromotionRule(t, db)

	promotion := models.Promotion{
		Code:      "USED123",
		Name:      "Used",
		Type:      constants.PromotionTypePromotion,
		Amount:    models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
		RuleID:    rule.ID,
		IsActive:  true,
		TimesUsed: 3,
	}
	if err := db.Create(&promotion).Error; err != nil {
		t.Fatalf("create promotion failed: %v", err)
	}

	if err := svc.DeletePromotion(promotion.ID); !errors.Is(err, ErrPromotionInvalid) {
		t.Fatalf("used promotion delete want ErrPromotionInvalid got %v", err)
	}

	promotion.TimesUsed = 0
	if err := db.Save(&promotion).Error; err != nil {
		t.Fatalf("reset times_used failed: %v", err)
	}
	if err := svc.DeletePromotion(promotion.ID); err != nil {
		t.Fatalf("unused promotion delete failed: %v", err)
	}
}

func TestBulkSelectionValidation(t *testing.T) {
	svc, db := setupPromotionServiceTest(t)
	seedPromotionRule(t, db)

	both := BulkSelection{IDs: []uint{1}, Filter: &SelectionFilter{Search: "x"}}
	if _, err := svc.BulkExpirePromotions(both); !errors.Is(err, ErrSelectionInvalid) {
		t.Fatalf("ids+filter want ErrSelectionInvalid got %v", err)
	}
	if _, err := svc.BulkExpirePromotions(BulkSelection{}); !errors.Is(err, ErrSelectionEmpty) {
		t.Fatalf("empty selection want ErrSelectionEmpty got %v", err)
	}
}

func TestBulkExpirePromotionsByFilter(t *testing.T) {
	svc, db := setupPromotionServiceTest(t)
	rule := seedPromotionRule(t, db)

	for i := 0; i < 3; i++ {
		promotion := models.Promotion{
			Code:     fmt.Sprintf("REF%03d", i),
			Name:     "Referral",
			Type:     constants.PromotionTypeReferral,
			Amount:   models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
			RuleID:   rule.ID,
			IsActive: true,
		}
		if err := db.Create(&promotion).Error; err != nil {
			t.Fatalf("create promotion failed: %v", err)
		}
	}
	keep := models.Promotion{
		Code:     "PROMO99",
		Name:     "Promo",
		Type:     constants.PromotionTypePromotion,
		Amount:   models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
		RuleID:   rule.ID,
		IsActive: true,
	}
	if err := db.Create(&keep).Error; err != nil {
		t.Fatalf("create promotion failed: %v", err)
	}

	result, err := svc.BulkExpirePromotions(BulkSelection{
		Filter: &SelectionFilter{Type: constants.PromotionTypeReferral},
	})
	if err != nil {
		t.Fatalf("bulk expire failed: %v", err)
	}
	if result.Successful != 3 {
		t.Fatalf("expired want 3 got %d", result.Successful)
	}

	var stillActive int64
	if err := db.Model(&models.Promotion{}).Where("is_active = ?", true).Count(&stillActive).Error; err != nil {
		t.Fatalf("count active failed: %v", err)
	}
	if stillActive != 1 {
		t.Fatalf("active after expire want 1 got %d", stillActive)
	}
}

func TestBulkUpdateValidityNormalizesWindow(t *testing.T) {
	svc, db := setupPromotionServiceTest(t)
	rule := seedPromotionRule(t, db)

	promotion := models.Promotion{
		Code:     "WINDOW1",
		Name:     "Window",
		Type:     constants.PromotionTypePromotion,
		Amount:   models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
		RuleID:   rule.ID,
		IsActive: true,
	}
	if err := db.Create(&promotion).Error; err != nil {
		t.Fatalf("create promotion failed: %v", err)
	}

	from := time.Date(2026, 3, 10, 15, 4, 5, 0, time.UTC)
	to := time.Date(2026, 3, 20, 8, 0, 0, 0, time.UTC)
	result, err := svc.BulkUpdateValidity(BulkValidityInput{
		Selection: BulkSelection{IDs: []uint{promotion.ID}},
		ValidFrom: &from,
		ValidTo:   &to,
	})
	if err != nil {
		t.Fatalf("bulk update validity failed: %v", err)
	}
	if result.Successful != 1 {
		t.Fatalf("updated want 1 got %d", result.Successful)
	}

	var got models.Promotion
	if err := db.First(&got, promotion.ID).Error; err != nil {
		t.Fatalf("reload promotion failed: %v", err)
	}
	if got.ValidFrom == nil || !got.ValidFrom.Equal(StartOfDay(from)) {
		t.Fatalf("valid_from want %v got %v", StartOfDay(from), got.ValidFrom)
	}
	if got.ValidTo == nil || !got.ValidTo.Equal(EndOfDay(to)) {
		t.Fatalf("valid_to want %v got %v", EndOfDay(to), got.ValidTo)
	}
}

func TestBulkUpdateValidityRejectsInvertedWindow(t *testing.T) {
	svc, db := setupPromotionServiceTest(t)
	seedPromotionRule(t, db)

	from := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	_, err := svc.BulkUpdateValidity(BulkValidityInput{
		Selection: BulkSelection{IDs: []uint{1}},
		ValidFrom: &from,
		ValidTo:   &to,
	})
	if !errors.Is(err, ErrPromotionInvalid) {
		t.Fatalf("inverted window want ErrPromotionInvalid got %v", err)
	}
}

func TestExportPromotionsCSV(t *testing.T) {
	svc, db := setupPromotionServiceTest(t)
	rule := seedPromotionRule(t, db)

	for i := 0; i < 4; i++ {
		promotion := models.Promotion{
			Code:     fmt.Sprintf("EXP%04d", i),
			Name:     "Export",
			Type:     constants.PromotionTypePromotion,
			Amount:   models.NewMoneyFromDecimal(decimal.NewFromFloat(7.5)),
			RuleID:   rule.ID,
			IsActive: true,
		}
		if err := db.Create(&promotion).Error; err != nil {
			t.Fatalf("create promotion failed: %v", err)
		}
	}

	var buf bytes.Buffer
	exported, err := svc.ExportPromotions(BulkSelection{
		Filter: &SelectionFilter{Type: constants.PromotionTypePromotion},
	}, &buf)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if exported != 4 {
		t.Fatalf("exported want 4 got %d", exported)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse csv failed: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("csv rows want 5 (header + 4) got %d", len(records))
	}
	if records[0][1] != "code" {
		t.Fatalf("header second column want code got %s", records[0][1])
	}
	if records[1][4] != "7.50" {
		t.Fatalf("amount column want 7.50 got %s", records[1][4])
	}
}
