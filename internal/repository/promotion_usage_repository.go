package repository

import (
	"github.com/esim-backoffice/internal/models"

	"gorm.io/gorm"
)

// PromotionUsageRepository 促销使用记录数据访问接口
type PromotionUsageRepository interface {
	Create(usage *models.PromotionUsage) error
	List(filter PromotionUsageListFilter) ([]models.PromotionUsage, int64, error)
	CountByPromotion(promotionID uint) (int64, error)
	CountByPromotionAndUser(promotionID, userID uint) (int64, error)
	WithTx(tx *gorm.DB) *GormPromotionUsageRepository
}

// GormPromotionUsageRepository GORM 实现
type GormPromotionUsageRepository struct {
	db *gorm.DB
}

// NewPromotionUsageRepository 创建促销使用记录仓库
func NewPromotionUsageRepository(db *gorm.DB) *GormPromotionUsageRepository {
	return &GormPromotionUsageRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPromotionUsageRepository) WithTx(tx *gorm.DB) *GormPromotionUsageRepository {
	if tx == nil {
		return r
	}
	return &GormPromotionUsageRepository{db: tx}
}

// Create 创建使用记录
func (r *GormPromotionUsageRepository) Create(usage *models.PromotionUsage) error {
	return r.db.Create(usage).Error
}

// List 获取使用记录列表，关联促销、套餐与用户信息。
func (r *GormPromotionUsageRepository) List(filter PromotionUsageListFilter) ([]models.PromotionUsage, int64, error) {
	var usages []models.PromotionUsage
	query := r.db.Model(&models.PromotionUsage{})

	if filter.PromotionID > 0 {
		query = query.Where("promotion_id = ?", filter.PromotionID)
	}
	if filter.Code != "" {
		query = query.Where("promotion_id IN (?)", r.db.Model(&models.Promotion{}).Select("id").Where("code = ?", filter.Code))
	}
	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.BundleID > 0 {
		query = query.Where("bundle_id = ?", filter.BundleID)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Preload("Promotion").Preload("Bundle").Preload("User").
		Order("id desc").Find(&usages).Error; err != nil {
		return nil, 0, err
	}
	return usages, total, nil
}

// CountByPromotion 统计促销的使用次数
func (r *GormPromotionUsageRepository) CountByPromotion(promotionID uint) (int64, error) {
	var total int64
	err := r.db.Model(&models.PromotionUsage{}).Where("promotion_id = ?", promotionID).Count(&total).Error
	return total, err
}

// CountByPromotionAndUser 统计用户对促销的使用次数
func (r *GormPromotionUsageRepository) CountByPromotionAndUser(promotionID, userID uint) (int64, error) {
	var total int64
	err := r.db.Model(&models.PromotionUsage{}).
		Where("promotion_id = ? AND user_id = ?", promotionID, userID).
		Count(&total).Error
	return total, err
}
