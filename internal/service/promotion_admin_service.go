package service

import (
	"crypto/rand"
	"encoding/csv"
	"io"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/esim-backoffice/internal/constants"
	"github.com/esim-backoffice/internal/models"
	"github.com/esim-backoffice/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PromotionAdminService 促销后台服务
type PromotionAdminService struct {
	repo       repository.PromotionRepository
	ruleRepo   repository.PromotionRuleRepository
	bundleRepo repository.BundleRepository
}

// NewPromotionAdminService 创建促销后台服务
func NewPromotionAdminService(repo repository.PromotionRepository, ruleRepo repository.PromotionRuleRepository, bundleRepo repository.BundleRepository) *PromotionAdminService {
	return &PromotionAdminService{
		repo:       repo,
		ruleRepo:   ruleRepo,
		bundleRepo: bundleRepo,
	}
}

// PromotionListInput 促销列表输入
type PromotionListInput struct {
	Code        string
	Search      string
	Type        string
	BundleCode  string
	RuleID      uint
	IsActive    *bool
	ValidFrom   *time.Time
	ValidTo     *time.Time
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PageSize    int
}

// CreatePromotionInput 创建促销输入
type CreatePromotionInput struct {
	Code       string
	Name       string
	Type       string
	Amount     models.Money
	BundleCode *string
	RuleID     uint
	ValidFrom  *time.Time
	ValidTo    *time.Time
}

// UpdatePromotionInput 更新促销输入
type UpdatePromotionInput struct {
	Name      *string
	Amount    *models.Money
	IsActive  *bool
	ValidFrom *time.Time
	ValidTo   *time.Time
	ClearTo   bool
}

// BulkGeneratePromotionsInput 批量生成促销输入
type BulkGeneratePromotionsInput struct {
	Count      int
	CodeLength int
	NamePrefix string
	Type       string
	Amount     models.Money
	BundleCode *string
	RuleID     uint
	ValidFrom  *time.Time
	ValidTo    *time.Time
}

// BulkValidityInput 批量调整有效期输入
type BulkValidityInput struct {
	Selection BulkSelection
	ValidFrom *time.Time
	ValidTo   *time.Time
}

// ListPromotions 获取促销列表
func (s *PromotionAdminService) ListPromotions(input PromotionListInput) ([]models.Promotion, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, ErrPromotionFetchFailed
	}
	filter := repository.PromotionListFilter{
		Code:        strings.TrimSpace(strings.ToUpper(input.Code)),
		Search:      strings.TrimSpace(input.Search),
		Type:        strings.TrimSpace(strings.ToUpper(input.Type)),
		BundleCode:  strings.TrimSpace(input.BundleCode),
		RuleID:      input.RuleID,
		IsActive:    input.IsActive,
		ValidFrom:   input.ValidFrom,
		ValidTo:     input.ValidTo,
		CreatedFrom: input.CreatedFrom,
		CreatedTo:   input.CreatedTo,
		Page:        input.Page,
		PageSize:    input.PageSize,
		WithRule:    true,
	}
	promotions, total, err := s.repo.List(filter)
	if err != nil {
		return nil, 0, ErrPromotionFetchFailed
	}
	return promotions, total, nil
}

// GetPromotion 获取促销详情
func (s *PromotionAdminService) GetPromotion(id uint) (*models.Promotion, error) {
	if s == nil || s.repo == nil || id == 0 {
		return nil, ErrPromotionInvalid
	}
	promotion, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrPromotionFetchFailed
	}
	if promotion == nil {
		return nil, ErrPromotionNotFound
	}
	return promotion, nil
}

// CreatePromotion 创建单个促销
func (s *PromotionAdminService) CreatePromotion(input CreatePromotionInput) (*models.Promotion, error) {
	if s == nil || s.repo == nil {
		return nil, ErrPromotionCreateFailed
	}
	code := strings.TrimSpace(strings.ToUpper(input.Code))
	if err := validatePromoCode(code); err != nil {
		return nil, err
	}
	promoType, err := normalizePromotionType(input.Type)
	if err != nil {
		return nil, err
	}
	if input.Amount.Decimal.Round(2).LessThanOrEqual(decimal.Zero) {
		return nil, ErrPromotionInvalid
	}
	if err := s.ensureRule(input.RuleID); err != nil {
		return nil, err
	}
	bundleCode, err := s.resolveBundleCode(input.BundleCode)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByCode(code)
	if err != nil {
		return nil, ErrPromotionFetchFailed
	}
	if existing != nil {
		return nil, ErrPromotionCodeExists
	}

	validFrom, validTo := normalizeValidityWindow(input.ValidFrom, input.ValidTo)
	if validFrom != nil && validTo != nil && validTo.Before(*validFrom) {
		return nil, ErrPromotionInvalid
	}

	now := time.Now()
	promotion := &models.Promotion{
		Code:       code,
		Name:       strings.TrimSpace(input.Name),
		Type:       promoType,
		Amount:     models.NewMoneyFromDecimal(input.Amount.Decimal),
		BundleCode: bundleCode,
		RuleID:     input.RuleID,
		ValidFrom:  validFrom,
		ValidTo:    validTo,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(promotion); err != nil {
		return nil, ErrPromotionCreateFailed
	}
	return promotion, nil
}

// UpdatePromotion 更新促销
func (s *PromotionAdminService) UpdatePromotion(id uint, input UpdatePromotionInput) (*models.Promotion, error) {
	if s == nil || s.repo == nil || id == 0 {
		return nil, ErrPromotionInvalid
	}
	promotion, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrPromotionFetchFailed
	}
	if promotion == nil {
		return nil, ErrPromotionNotFound
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrPromotionInvalid
		}
		promotion.Name = name
	}
	if input.Amount != nil {
		amount := input.Amount.Decimal.Round(2)
		if amount.LessThanOrEqual(decimal.Zero) {
			return nil, ErrPromotionInvalid
		}
		promotion.Amount = models.NewMoneyFromDecimal(amount)
	}
	if input.IsActive != nil {
		promotion.IsActive = *input.IsActive
	}
	validFrom, validTo := normalizeValidityWindow(input.ValidFrom, input.ValidTo)
	if validFrom != nil {
		promotion.ValidFrom = validFrom
	}
	if input.ClearTo {
		promotion.ValidTo = nil
	} else if validTo != nil {
		promotion.ValidTo = validTo
	}
	if promotion.ValidFrom != nil && promotion.ValidTo != nil && promotion.ValidTo.Before(*promotion.ValidFrom) {
		return nil, ErrPromotionInvalid
	}

	promotion.UpdatedAt = time.Now()
	if err := s.repo.Update(promotion); err != nil {
		return nil, ErrPromotionUpdateFailed
	}
	return promotion, nil
}

// DeletePromotion 删除促销。已被使用过的促销不可删除。
func (s *PromotionAdminService) DeletePromotion(id uint) error {
	if s == nil || s.repo == nil || id == 0 {
		return ErrPromotionInvalid
	}
	promotion, err := s.repo.GetByID(id)
	if err != nil {
		return ErrPromotionFetchFailed
	}
	if promotion == nil {
		return ErrPromotionNotFound
	}
	if promotion.TimesUsed > 0 {
		return ErrPromotionInvalid
	}
	if err := s.repo.Delete(id); err != nil {
		return ErrPromotionDeleteFailed
	}
	return nil
}

// BulkGeneratePromotions 批量生成促销码。
// 码在服务端生成并保证全局唯一：随机生成后先查重，碰撞的码重新生成，
// 重试耗尽仍未凑齐时视为码空间不足。
func (s *PromotionAdminService) BulkGeneratePromotions(input BulkGeneratePromotionsInput) ([]models.Promotion, *BulkResult, error) {
	if s == nil || s.repo == nil {
		return nil, nil, ErrPromotionCreateFailed
	}
	if input.Count <= 0 || input.Count > constants.PromoBulkMaxCount {
		return nil, nil, ErrPromotionInvalid
	}
	codeLength := input.CodeLength
	if codeLength == 0 {
		codeLength = 10
	}
	if codeLength < constants.PromoCodeMinLength || codeLength > constants.PromoCodeMaxLength {
		return nil, nil, ErrPromotionInvalid
	}
	promoType, err := normalizePromotionType(input.Type)
	if err != nil {
		return nil, nil, err
	}
	if input.Amount.Decimal.Round(2).LessThanOrEqual(decimal.Zero) {
		return nil, nil, ErrPromotionInvalid
	}
	if err := s.ensureRule(input.RuleID); err != nil {
		return nil, nil, err
	}
	bundleCode, err := s.resolveBundleCode(input.BundleCode)
	if err != nil {
		return nil, nil, err
	}
	validFrom, validTo := normalizeValidityWindow(input.ValidFrom, input.ValidTo)
	if validFrom != nil && validTo != nil && validTo.Before(*validFrom) {
		return nil, nil, ErrPromotionInvalid
	}

	codes, err := s.generateUniqueCodes(input.Count, codeLength)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	namePrefix := strings.TrimSpace(input.NamePrefix)
	promotions := make([]models.Promotion, 0, len(codes))
	for _, code := range codes {
		name := namePrefix
		if name == "" {
			name = code
		}
		promotions = append(promotions, models.Promotion{
			Code:       code,
			Name:       name,
			Type:       promoType,
			Amount:     models.NewMoneyFromDecimal(input.Amount.Decimal),
			BundleCode: bundleCode,
			RuleID:     input.RuleID,
			ValidFrom:  validFrom,
			ValidTo:    validTo,
			IsActive:   true,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	if err := models.DB.Transaction(func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).CreateBatch(promotions)
	}); err != nil {
		return nil, nil, ErrPromotionCreateFailed
	}

	result := &BulkResult{}
	result.AddSuccess(int64(len(promotions)))
	return promotions, result, nil
}

// BulkUpdateValidity 批量调整促销有效期
func (s *PromotionAdminService) BulkUpdateValidity(input BulkValidityInput) (*BulkResult, error) {
	if s == nil || s.repo == nil {
		return nil, ErrPromotionUpdateFailed
	}
	if err := input.Selection.Validate(); err != nil {
		return nil, err
	}
	validFrom, validTo := normalizeValidityWindow(input.ValidFrom, input.ValidTo)
	if validFrom == nil && validTo == nil {
		return nil, ErrPromotionInvalid
	}
	if validFrom != nil && validTo != nil && validTo.Before(*validFrom) {
		return nil, ErrPromotionInvalid
	}

	values := map[string]interface{}{"updated_at": time.Now()}
	if validFrom != nil {
		values["valid_from"] = *validFrom
	}
	if validTo != nil {
		values["valid_to"] = *validTo
	}

	rows, err := s.applyBulkUpdate(input.Selection, values)
	if err != nil {
		return nil, ErrPromotionUpdateFailed
	}
	result := &BulkResult{}
	result.AddSuccess(rows)
	return result, nil
}

// BulkExpirePromotions 批量过期促销：有效期终点设为当前时刻并停用。
func (s *PromotionAdminService) BulkExpirePromotions(selection BulkSelection) (*BulkResult, error) {
	if s == nil || s.repo == nil {
		return nil, ErrPromotionUpdateFailed
	}
	if err := selection.Validate(); err != nil {
		return nil, err
	}
	now := time.Now()
	values := map[string]interface{}{
		"valid_to":   now,
		"is_active":  false,
		"updated_at": now,
	}
	rows, err := s.applyBulkUpdate(selection, values)
	if err != nil {
		return nil, ErrPromotionUpdateFailed
	}
	result := &BulkResult{}
	result.AddSuccess(rows)
	return result, nil
}

// ExportPromotions 流式导出促销 CSV。
func (s *PromotionAdminService) ExportPromotions(selection BulkSelection, w io.Writer) (int64, error) {
	if s == nil || s.repo == nil {
		return 0, ErrPromotionFetchFailed
	}
	if err := selection.Validate(); err != nil {
		return 0, err
	}

	writer := csv.NewWriter(w)
	header := []string{
		"id",
		"code",
		"name",
		"type",
		"amount",
		"bundle_code",
		"rule_id",
		"valid_from",
		"valid_to",
		"is_active",
		"times_used",
		"created_at",
	}
	if err := writer.Write(header); err != nil {
		return 0, ErrPromotionFetchFailed
	}

	var exported int64
	writeRows := func(promotions []models.Promotion) error {
		for _, promotion := range promotions {
			bundleCode := ""
			if promotion.BundleCode != nil {
				bundleCode = *promotion.BundleCode
			}
			record := []string{
				strconv.FormatUint(uint64(promotion.ID), 10),
				promotion.Code,
				promotion.Name,
				promotion.Type,
				promotion.Amount.String(),
				bundleCode,
				strconv.FormatUint(uint64(promotion.RuleID), 10),
				formatNullableTime(promotion.ValidFrom),
				formatNullableTime(promotion.ValidTo),
				strconv.FormatBool(promotion.IsActive),
				strconv.Itoa(promotion.TimesUsed),
				promotion.CreatedAt.Format(time.RFC3339),
			}
			if err := writer.Write(record); err != nil {
				return err
			}
			exported++
		}
		writer.Flush()
		return writer.Error()
	}

	if ids := selection.NormalizedIDs(); len(ids) > 0 {
		promotions, err := s.repo.ListByIDs(ids)
		if err != nil {
			return 0, ErrPromotionFetchFailed
		}
		if err := writeRows(promotions); err != nil {
			return 0, ErrPromotionFetchFailed
		}
	} else {
		filter := selectionToPromotionFilter(*selection.Filter)
		if err := s.repo.IterateByFilter(filter, constants.ExportStreamChunk, writeRows); err != nil {
			return 0, ErrPromotionFetchFailed
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, ErrPromotionFetchFailed
	}
	return exported, nil
}

func (s *PromotionAdminService) applyBulkUpdate(selection BulkSelection, values map[string]interface{}) (int64, error) {
	if ids := selection.NormalizedIDs(); len(ids) > 0 {
		return s.repo.UpdateByIDs(ids, values)
	}
	filter := selectionToPromotionFilter(*selection.Filter)
	return s.repo.UpdateByFilter(filter, values)
}

func (s *PromotionAdminService) ensureRule(ruleID uint) error {
	if ruleID == 0 {
		return ErrPromotionRuleInvalid
	}
	if s.ruleRepo == nil {
		return nil
	}
	rule, err := s.ruleRepo.GetByID(ruleID)
	if err != nil {
		return ErrPromotionRuleFetchFailed
	}
	if rule == nil {
		return ErrPromotionRuleNotFound
	}
	return nil
}

// resolveBundleCode 校验套餐编码。空值表示促销适用于全部套餐。
func (s *PromotionAdminService) resolveBundleCode(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	code := strings.TrimSpace(*raw)
	if code == "" {
		return nil, nil
	}
	if s.bundleRepo != nil {
		bundle, err := s.bundleRepo.GetByCode(code)
		if err != nil {
			return nil, ErrBundleFetchFailed
		}
		if bundle == nil {
			return nil, ErrBundleNotFound
		}
	}
	return &code, nil
}

// generateUniqueCodes 生成指定数量的全局唯一促销码。
func (s *PromotionAdminService) generateUniqueCodes(count, length int) ([]string, error) {
	codes := make([]string, 0, count)
	pending := make(map[string]struct{}, count)

	for attempt := 0; attempt <= constants.PromoCollisionRetries; attempt++ {
		need := count - len(codes)
		if need == 0 {
			break
		}
		candidates := make([]string, 0, need)
		for len(candidates) < need {
			code := randomCode(length, constants.PromoCodeCharset)
			if _, ok := pending[code]; ok {
				continue
			}
			pending[code] = struct{}{}
			candidates = append(candidates, code)
		}
		existing, err := s.repo.ExistingCodes(candidates)
		if err != nil {
			return nil, ErrPromotionFetchFailed
		}
		for _, code := range candidates {
			if _, taken := existing[code]; taken {
				delete(pending, code)
				continue
			}
			codes = append(codes, code)
		}
	}

	if len(codes) < count {
		return nil, ErrPromotionCodeSpace
	}
	return codes, nil
}

func selectionToPromotionFilter(filter SelectionFilter) repository.PromotionListFilter {
	return repository.PromotionListFilter{
		Search:      strings.TrimSpace(filter.Search),
		Type:        strings.TrimSpace(strings.ToUpper(filter.Type)),
		BundleCode:  strings.TrimSpace(filter.BundleCode),
		RuleID:      filter.RuleID,
		IsActive:    filter.IsActive,
		ValidFrom:   filter.ValidFrom,
		ValidTo:     filter.ValidTo,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
	}
}

// validatePromoCode 校验人工录入的码值，连字符允许，随机生成仍只用字母数字。
func validatePromoCode(code string) error {
	if len(code) < constants.PromoCodeMinLength || len(code) > constants.PromoCodeMaxLength {
		return ErrPromotionInvalid
	}
	for _, ch := range code {
		if !strings.ContainsRune(constants.PromoCodeInputCharset, ch) {
			return ErrPromotionInvalid
		}
	}
	return nil
}

func normalizePromotionType(raw string) (string, error) {
	promoType := strings.TrimSpace(strings.ToUpper(raw))
	switch promoType {
	case constants.PromotionTypePromotion, constants.PromotionTypeReferral:
		return promoType, nil
	default:
		return "", ErrPromotionInvalid
	}
}

// randomCode 从字符集生成定长随机码，随机源为 crypto/rand。
func randomCode(length int, charset string) string {
	if length <= 0 || charset == "" {
		return ""
	}
	max := big.NewInt(int64(len(charset)))
	builder := strings.Builder{}
	builder.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			builder.WriteByte(charset[i%len(charset)])
			continue
		}
		builder.WriteByte(charset[n.Int64()])
	}
	return builder.String()
}

func formatNullableTime(raw *time.Time) string {
	if raw == nil || raw.IsZero() {
		return ""
	}
	return raw.Format(time.RFC3339)
}
