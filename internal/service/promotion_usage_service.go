package service

import (
	"strings"
	"time"

	"github.com/esim-backoffice/internal/models"
	"github.com/esim-backoffice/internal/repository"
)

// PromotionUsageService 促销使用记录服务
type PromotionUsageService struct {
	repo          repository.PromotionUsageRepository
	promotionRepo repository.PromotionRepository
}

// NewPromotionUsageService 创建促销使用记录服务
func NewPromotionUsageService(repo repository.PromotionUsageRepository, promotionRepo repository.PromotionRepository) *PromotionUsageService {
	return &PromotionUsageService{
		repo:          repo,
		promotionRepo: promotionRepo,
	}
}

// PromotionUsageListInput 使用记录列表输入
type PromotionUsageListInput struct {
	PromotionID uint
	Code        string
	UserID      uint
	BundleID    uint
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PageSize    int
}

// RecordUsageInput 记录使用输入
type RecordUsageInput struct {
	PromotionID uint
	UserID      uint
	BundleID    *uint
	OrderID     *uint
	Amount      models.Money
}

// ListUsages 获取使用记录列表
func (s *PromotionUsageService) ListUsages(input PromotionUsageListInput) ([]models.PromotionUsage, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, ErrPromotionFetchFailed
	}
	usages, total, err := s.repo.List(repository.PromotionUsageListFilter{
		PromotionID: input.PromotionID,
		Code:        strings.TrimSpace(strings.ToUpper(input.Code)),
		UserID:      input.UserID,
		BundleID:    input.BundleID,
		CreatedFrom: input.CreatedFrom,
		CreatedTo:   input.CreatedTo,
		Page:        input.Page,
		PageSize:    input.PageSize,
	})
	if err != nil {
		return nil, 0, ErrPromotionFetchFailed
	}
	return usages, total, nil
}

// RecordUsage 追加一条使用记录并递增促销计数。
// 记录只增不改，核销历史保持可审计。
func (s *PromotionUsageService) RecordUsage(input RecordUsageInput) (*models.PromotionUsage, error) {
	if s == nil || s.repo == nil {
		return nil, ErrPromotionInvalid
	}
	if input.PromotionID == 0 || input.UserID == 0 {
		return nil, ErrPromotionInvalid
	}
	if s.promotionRepo != nil {
		promotion, err := s.promotionRepo.GetByID(input.PromotionID)
		if err != nil {
			return nil, ErrPromotionFetchFailed
		}
		if promotion == nil {
			return nil, ErrPromotionNotFound
		}
		if !promotion.IsActive || promotion.IsExpired(time.Now()) {
			return nil, ErrPromotionInvalid
		}
		if promotion.Rule != nil && promotion.Rule.MaxUsage > 0 && promotion.TimesUsed >= promotion.Rule.MaxUsage {
			return nil, ErrPromotionInvalid
		}
	}

	usage := &models.PromotionUsage{
		PromotionID: input.PromotionID,
		UserID:      input.UserID,
		BundleID:    input.BundleID,
		OrderID:     input.OrderID,
		Amount:      input.Amount,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.Create(usage); err != nil {
		return nil, ErrPromotionUpdateFailed
	}
	if s.promotionRepo != nil {
		if err := s.promotionRepo.IncrementTimesUsed(input.PromotionID, 1); err != nil {
			return nil, ErrPromotionUpdateFailed
		}
	}
	return usage, nil
}
