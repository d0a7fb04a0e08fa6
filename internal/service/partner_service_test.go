package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/esim-backoffice/internal/models"
	"github.com/esim-backoffice/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupPartnerServiceTest(t *testing.T) (*PartnerService, *gorm.DB) {
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
	return NewPartnerService(repository.NewPartnerRepository(db)), db
}

func TestCreatePartner(t *testing.T) {
	svc, _ := setupPartnerServiceTest(t)

	partner, err := svc.CreatePartner(CreatePartnerInput{
		Name:       "  Aero Travel  ",
		CodePrefix: "at",
		ContactInfo: models.JSON(map[string]interface{}{
			"email": "partners@aerotravel.example",
		}),
	})
	if err != nil {
		t.Fatalf("create partner failed: %v", err)
	}
	if partner.Name != "Aero Travel" {
		t.Fatalf("name want trimmed got %q", partner.Name)
	}
	if partner.CodePrefix != "AT" {
		t.Fatalf("prefix want uppercased AT got %s", partner.CodePrefix)
	}
	if !partner.IsActive {
		t.Fatalf("new partner should be active")
	}

	if _, err := svc.CreatePartner(CreatePartnerInput{Name: "Other", CodePrefix: "AT"}); !errors.Is(err, ErrPartnerPrefixExists) {
		t.Fatalf("duplicate prefix want ErrPartnerPrefixExists got %v", err)
	}
}

func TestCreatePartnerValidation(t *testing.T) {
	svc, _ := setupPartnerServiceTest(t)

	cases := []struct {
		name  string
		input CreatePartnerInput
	}{
		{name: "blank name", input: CreatePartnerInput{Name: "  ", CodePrefix: "AT"}},
		{name: "prefix too short", input: CreatePartnerInput{Name: "x", CodePrefix: "A"}},
		{name: "prefix too long", input: CreatePartnerInput{Name: "x", CodePrefix: "ABC"}},
		{name: "prefix with digit", input: CreatePartnerInput{Name: "x", CodePrefix: "A1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreatePartner(tc.input); !errors.Is(err, ErrPartnerInvalid) {
				t.Fatalf("want ErrPartnerInvalid got %v", err)
			}
		})
	}
}

func TestDeletePartnerWithVouchers(t *testing.T) {
	svc, db := setupPartnerServiceTest(t)

	partner, err := svc.CreatePartner(CreatePartnerInput{Name: "Nomad Hub", CodePrefix: "NH"})
	if err != nil {
		t.Fatalf("create partner failed: %v", err)
	}
	voucher := models.Voucher{
		Code:      "NH0000000001",
		Amount:    models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		PartnerID: &partner.ID,
		IsActive:  true,
	}
	if err := db.Create(&voucher).Error; err != nil {
		t.Fatalf("create voucher failed: %v", err)
	}

	if err := svc.DeletePartner(partner.ID); !errors.Is(err, ErrPartnerHasVouchers) {
		t.Fatalf("partner with vouchers want ErrPartnerHasVouchers got %v", err)
	}

	if err := db.Delete(&voucher).Error; err != nil {
		t.Fatalf("delete voucher failed: %v", err)
	}
	if err := svc.DeletePartner(partner.ID); err != nil {
		t.Fatalf("delete partner failed: %v", err)
	}
}

func TestUpdatePartnerKeepsPrefix(t *testing.T) {
	svc, _ := setupPartnerServiceTest(t)

	partner, err := svc.CreatePartner(CreatePartnerInput{Name: "Aero Travel", CodePrefix: "AT"})
	if err != nil {
		t.Fatalf("create partner failed: %v", err)
	}

	inactive := false
	name := "Aero Travel GmbH"
	updated, err := svc.UpdatePartner(partner.ID, UpdatePartnerInput{Name: &name, IsActive: &inactive})
	if err != nil {
		t.Fatalf("update partner failed: %v", err)
	}
	if updated.Name != "Aero Travel GmbH" {
		t.Fatalf("name not updated: %s", updated.Name)
	}
	if updated.IsActive {
		t.Fatalf("partner should be inactive")
	}
	if updated.CodePrefix != "AT" {
		t.Fatalf("prefix must stay AT got %s", updated.CodePrefix)
	}
}
