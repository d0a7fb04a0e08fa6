package main

import (
	"fmt"
	"time"

	"github.com/esim-backoffice/internal/config"
	"github.com/esim-backoffice/internal/logger"
	"github.com/esim-backoffice/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 规则动作参照表
	actions := []models.PromotionRuleAction{
		{Name: "PERCENT_DISCOUNT"},
		{Name: "FIXED_DISCOUNT"},
		{Name: "FREE_DATA"},
	}
	for _, action := range actions {
		var existing models.PromotionRuleAction
		if err := models.DB.Where("name = ?", action.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&action).Error; err != nil {
				stdLog.Printf("Failed to create rule action %s: %v", action.Name, err)
			} else {
				stdLog.Printf("Created rule action: %s", action.Name)
			}
		} else {
			stdLog.Printf("Rule action already exists: %s", action.Name)
		}
	}

	// 规则事件参照表
	events := []models.PromotionRuleEvent{
		{Name: "SIGNUP"},
		{Name: "FIRST_PURCHASE"},
		{Name: "PURCHASE"},
		{Name: "REFERRAL"},
	}
	for _, event := range events {
		var existing models.PromotionRuleEvent
		if err := models.DB.Where("name = ?", event.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&event).Error; err != nil {
				stdLog.Printf("Failed to create rule event %s: %v", event.Name, err)
			} else {
				stdLog.Printf("Created rule event: %s", event.Name)
			}
		} else {
			stdLog.Printf("Rule event already exists: %s", event.Name)
		}
	}

	// 基础汇率
	currencies := []models.Currency{
		{Code: "EUR", Rate: models.NewMoneyFromDecimal(decimal.NewFromInt(1))},
		{Code: "USD", Rate: models.NewMoneyFromDecimal(decimal.NewFromFloat(1.08))},
		{Code: "GBP", Rate: models.NewMoneyFromDecimal(decimal.NewFromFloat(0.85))},
	}
	for _, currency := range currencies {
		var existing models.Currency
		if err := models.DB.Where("code = ?", currency.Code).First(&existing).Error; err != nil {
			currency.UpdatedAt = time.Now()
			if err := models.DB.Create(&currency).Error; err != nil {
				stdLog.Printf("Failed to create currency %s: %v", currency.Code, err)
			} else {
				stdLog.Printf("Created currency: %s", currency.Code)
			}
		} else {
			stdLog.Printf("Currency already exists: %s", currency.Code)
		}
	}

	// 渠道伙伴
	partners := []models.Partner{
		{
			Name:       "Aero Travel",
			CodePrefix: "AT",
			ContactInfo: models.JSON(map[string]interface{}{
				"email": "partners@aerotravel.example",
			}),
			IsActive: true,
		},
		{
			Name:       "Nomad Hub",
			CodePrefix: "NH",
			ContactInfo: models.JSON(map[string]interface{}{
				"email": "hello@nomadhub.example",
			}),
			IsActive: true,
		},
	}
	for _, partner := range partners {
		var existing models.Partner
		if err := models.DB.Where("code_prefix = ?", partner.CodePrefix).First(&existing).Error; err != nil {
			if err := models.DB.Create(&partner).Error; err != nil {
				stdLog.Printf("Failed to create partner %s: %v", partner.Name, err)
			} else {
				stdLog.Printf("Created partner: %s", partner.Name)
			}
		} else {
			stdLog.Printf("Partner already exists: %s", partner.Name)
		}
	}

	// 示例套餐
	bundles := []models.Bundle{
		{
			Code:         "EU-5GB-30D",
			Name:         "Europe 5GB / 30 Days",
			Description:  "5GB data across 30+ European countries, valid 30 days.",
			Price:        models.NewMoneyFromDecimal(decimal.NewFromFloat(12.90)),
			Currency:     "EUR",
			DataAmountMB: 5120,
			ValidityDays: 30,
			Countries:    models.JSON(map[string]interface{}{"codes": []string{"DE", "FR", "ES", "IT", "NL"}}),
			IsActive:     true,
		},
		{
			Code:         "EU-UNL-15D",
			Name:         "Europe Unlimited / 15 Days",
			Description:  "Unlimited data across Europe, valid 15 days.",
			Price:        models.NewMoneyFromDecimal(decimal.NewFromFloat(24.90)),
			Currency:     "EUR",
			DataAmountMB: -1,
			ValidityDays: 15,
			Countries:    models.JSON(map[string]interface{}{"codes": []string{"DE", "FR", "ES", "IT", "NL", "PT"}}),
			IsActive:     true,
		},
		{
			Code:         "US-10GB-30D",
			Name:         "USA 10GB / 30 Days",
			Description:  "10GB data in the United States, valid 30 days.",
			Price:        models.NewMoneyFromDecimal(decimal.NewFromFloat(19.90)),
			Currency:     "EUR",
			DataAmountMB: 10240,
			ValidityDays: 30,
			Countries:    models.JSON(map[string]interface{}{"codes": []string{"US"}}),
			IsActive:     true,
		},
		{
			Code:         "GLOBAL-3GB-7D",
			Name:         "Global 3GB / 7 Days",
			Description:  "3GB data in 100+ destinations, valid 7 days.",
			Price:        models.NewMoneyFromDecimal(decimal.NewFromFloat(15.90)),
			Currency:     "EUR",
			DataAmountMB: 3072,
			ValidityDays: 7,
			Countries:    models.JSON(map[string]interface{}{"codes": []string{"*"}}),
			IsActive:     false,
		},
	}
	bundleTags := map[string][]string{
		"EU-5GB-30D":    {"europe", "data"},
		"EU-UNL-15D":    {"europe", "unlimited"},
		"US-10GB-30D":   {"usa", "data"},
		"GLOBAL-3GB-7D": {"global", "short-trip"},
	}
	for _, bundle := range bundles {
		var existing models.Bundle
		if err := models.DB.Where("code = ?", bundle.Code).First(&existing).Error; err != nil {
			if err := models.DB.Create(&bundle).Error; err != nil {
				stdLog.Printf("Failed to create bundle %s: %v", bundle.Code, err)
				continue
			}
			stdLog.Printf("Created bundle: %s", bundle.Code)
			existing = bundle
		} else {
			stdLog.Printf("Bundle already exists: %s", bundle.Code)
		}

		for _, tag := range bundleTags[existing.Code] {
			var existingTag models.BundleTag
			if err := models.DB.Where("bundle_id = ? AND tag = ?", existing.ID, tag).First(&existingTag).Error; err != nil {
				if err := models.DB.Create(&models.BundleTag{BundleID: existing.ID, Tag: tag}).Error; err != nil {
					stdLog.Printf("Failed to create bundle tag %s/%s: %v", existing.Code, tag, err)
				}
			}
		}
	}

	fmt.Println("\n✅ Seed data created successfully!")
	fmt.Println("Summary:")
	fmt.Println("- 3 Rule actions")
	fmt.Println("- 4 Rule events")
	fmt.Println("- 3 Currencies")
	fmt.Println("- 2 Partners")
	fmt.Println("- 4 Bundles with tags")
}
