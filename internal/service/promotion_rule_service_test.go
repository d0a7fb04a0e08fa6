package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/esim-backoffice/internal/constants"
	"github.com/esim-backoffice/internal/models"
	"github.com/esim-backoffice/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupRuleServiceTest(t *testing.T) (*PromotionRuleService, *gorm.DB) {
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
	models.DB = db
	return NewPromotionRuleService(repository.NewPromotionRuleRepository(db)), db
}

func seedRuleRefs(t *testing.T, db *gorm.DB) (uint, uint) {
	t.Helper()
	action := models.PromotionRuleAction{Name: "FIXED_DISCOUNT"}
	if err := db.Create(&action).Error; err != nil {
		t.Fatalf("create action failed: %v", err)
	}
	event := models.PromotionRuleEvent{Name: "FIRST_PURCHASE"}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("create event failed: %v", err)
	}
	return action.ID, event.ID
}

func TestCreateRule(t *testing.T) {
	svc, db := setupRuleServiceTest(t)
	actionID, eventID := seedRuleRefs(t, db)

	rule, err := svc.CreateRule(SaveRuleInput{
		ActionID:        actionID,
		EventID:         eventID,
		MaxUsage:        1,
		Beneficiary:     constants.BeneficiaryBoth,
		RuleDescription: "  first purchase discount  ",
	})
	if err != nil {
		t.Fatalf("create rule failed: %v", err)
	}
	if rule.RuleDescription != "first purchase discount" {
		t.Fatalf("description want trimmed got %q", rule.RuleDescription)
	}
	if rule.Action == nil || rule.Action.Name != "FIXED_DISCOUNT" {
		t.Fatalf("action not preloaded: %+v", rule.Action)
	}
	if rule.Event == nil || rule.Event.Name != "FIRST_PURCHASE" {
		t.Fatalf("event not preloaded: %+v", rule.Event)
	}
}

func TestCreateRuleValidation(t *testing.T) {
	svc, db := setupRuleServiceTest(t)
	actionID, eventID := seedRuleRefs(t, db)

	cases := []struct {
		name  string
		input SaveRuleInput
	}{
		{name: "missing action", input: SaveRuleInput{EventID: eventID}},
		{name: "missing event", input: SaveRuleInput{ActionID: actionID}},
		{name: "negative max usage", input: SaveRuleInput{ActionID: actionID, EventID: eventID, MaxUsage: -1}},
		{name: "unknown beneficiary", input: SaveRuleInput{ActionID: actionID, EventID: eventID, Beneficiary: 9}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateRule(tc.input); !errors.Is(err, ErrPromotionRuleInvalid) {
				t.Fatalf("want ErrPromotionRuleInvalid got %v", err)
			}
		})
	}
}

func TestDeleteRuleInUse(t *testing.T) {
	svc, db := setupRuleServiceTest(t)
	actionID, eventID := seedRuleRefs(t, db)

	rule, err := svc.CreateRule(SaveRuleInput{ActionID: actionID, EventID: eventID})
	if err != nil {
		t.Fatalf("create rule failed: %v", err)
	}

	promotion := models.Promotion{
		Code:     "RULEUSE1",
		Name:     "In use",
		Type:     constants.PromotionTypePromotion,
		Amount:   models.NewMoneyFromDecimal(decimal.NewFromInt(5)),
		RuleID:   rule.ID,
		IsActive: true,
	}
	if err := db.Create(&promotion).Error; err != nil {
		t.Fatalf("create promotion failed: %v", err)
	}

	if err := svc.DeleteRule(rule.ID); !errors.Is(err, ErrPromotionRuleInUse) {
		t.Fatalf("rule in use want ErrPromotionRuleInUse got %v", err)
	}

	if err := db.Delete(&promotion).Error; err != nil {
		t.Fatalf("delete promotion failed: %v", err)
	}
	if err := svc.DeleteRule(rule.ID); err != nil {
		t.Fatalf("delete rule failed: %v", err)
	}
	if err := svc.DeleteRule(rule.ID); !errors.Is(err, ErrPromotionRuleNotFound) {
		t.Fatalf("second delete want ErrPromotionRuleNotFound got %v", err)
	}
}

func TestListActionsAndEvents(t *testing.T) {
	svc, db := setupRuleServiceTest(t)
	seedRuleRefs(t, db)

	actions, err := svc.ListActions()
	if err != nil {
		t.Fatalf("list actions failed: %v", err)
	}
	if len(actions) != 1 {
		t.Fatalf("actions want 1 got %d", len(actions))
	}
	events, err := svc.ListEvents()
	if err != nil {
		t.Fatalf("list events failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events want 1 got %d", len(events))
	}
}
