package repository

import (
	"errors"
	"time"

	"github.com/esim-backoffice/internal/models"

	"gorm.io/gorm"
)

// PromotionRepository 促销数据访问接口
type PromotionRepository interface {
	GetByID(id uint) (*models.Promotion, error)
	GetByCode(code string) (*models.Promotion, error)
	ListByIDs(ids []uint) ([]models.Promotion, error)
	Create(promotion *models.Promotion) error
	CreateBatch(promotions []models.Promotion) error
	Update(promotion *models.Promotion) error
	Delete(id uint) error
	List(filter PromotionListFilter) ([]models.Promotion, int64, error)
	ExistingCodes(codes []string) (map[string]struct{}, error)
	UpdateByIDs(ids []uint, values map[string]interface{}) (int64, error)
	UpdateByFilter(filter PromotionListFilter, values map[string]interface{}) (int64, error)
	IterateByFilter(filter PromotionListFilter, batchSize int, fn func([]models.Promotion) error) error
	IncrementTimesUsed(id uint, delta int) error
	WithTx(tx *gorm.DB) *GormPromotionRepository
}

// GormPromotionRepository GORM 实现
type GormPromotionRepository struct {
	db *gorm.DB
}

// NewPromotionRepository 创建促销仓库
func NewPromotionRepository(db *gorm.DB) *GormPromotionRepository {
	return &GormPromotionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPromotionRepository) WithTx(tx *gorm.DB) *GormPromotionRepository {
	if tx == nil {
		return r
	}
	return &GormPromotionRepository{db: tx}
}

// GetByID 根据ID获取促销
func (r *GormPromotionRepository) GetByID(id uint) (*models.Promotion, error) {
	var promotion models.Promotion
	if err := r.db.Preload("Rule").Preload("Rule.Action").Preload("Rule.Event").First(&promotion, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &promotion, nil
}

// GetByCode 根据促销码获取促销
func (r *GormPromotionRepository) GetByCode(code string) (*models.Promotion, error) {
	var promotion models.Promotion
	if err := r.db.Where("code = ?", code).First(&promotion).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &promotion, nil
}

// ListByIDs 批量获取促销
func (r *GormPromotionRepository) ListByIDs(ids []uint) ([]models.Promotion, error) {
	if len(ids) == 0 {
		return []models.Promotion{}, nil
	}
	var promotions []models.Promotion
	if err := r.db.Where("id IN ?", ids).Find(&promotions).Error; err != nil {
		return nil, err
	}
	return promotions, nil
}

// Create 创建促销
func (r *GormPromotionRepository) Create(promotion *models.Promotion) error {
	return r.db.Create(promotion).Error
}

// CreateBatch 批量创建促销
func (r *GormPromotionRepository) CreateBatch(promotions []models.Promotion) error {
	if len(promotions) == 0 {
		return nil
	}
	return r.db.CreateInBatches(promotions, 500).Error
}

// Update 更新促销
func (r *GormPromotionRepository) Update(promotion *models.Promotion) error {
	return r.db.Save(promotion).Error
}

// Delete 删除促销
func (r *GormPromotionRepository) Delete(id uint) error {
	return r.db.Delete(&models.Promotion{}, id).Error
}

// applyFilter 组装促销筛选条件
func (r *GormPromotionRepository) applyFilter(query *gorm.DB, filter PromotionListFilter) *gorm.DB {
	if filter.Code != "" {
		query = query.Where("code = ?", filter.Code)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		operator := likeOperator(r.db)
		query = query.Where("(code "+operator+" ? OR name "+operator+" ?)", like, like)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.BundleCode != "" {
		query = query.Where("bundle_code = ?", filter.BundleCode)
	}
	if filter.RuleID > 0 {
		query = query.Where("rule_id = ?", filter.RuleID)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.ValidFrom != nil {
		query = query.Where("valid_from >= ?", *filter.ValidFrom)
	}
	if filter.ValidTo != nil {
		query = query.Where("valid_to <= ?", *filter.ValidTo)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}
	if filter.ExcludeUsed {
		query = query.Where("times_used = 0")
	}
	return query
}

// List 获取促销列表
func (r *GormPromotionRepository) List(filter PromotionListFilter) ([]models.Promotion, int64, error) {
	var promotions []models.Promotion
	query := r.applyFilter(r.db.Model(&models.Promotion{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if filter.WithRule {
		query = query.Preload("Rule").Preload("Rule.Action").Preload("Rule.Event")
	}

	if err := query.Order("id desc").Find(&promotions).Error; err != nil {
		return nil, 0, err
	}
	return promotions, total, nil
}

// ExistingCodes 查询已存在的促销码集合
func (r *GormPromotionRepository) ExistingCodes(codes []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	if len(codes) == 0 {
		return existing, nil
	}
	var found []string
	if err := r.db.Model(&models.Promotion{}).Where("code IN ?", codes).Pluck("code", &found).Error; err != nil {
		return nil, err
	}
	for _, code := range found {
		existing[code] = struct{}{}
	}
	return existing, nil
}

// UpdateByIDs 按ID批量更新促销
func (r *GormPromotionRepository) UpdateByIDs(ids []uint, values map[string]interface{}) (int64, error) {
	if len(ids) == 0 || len(values) == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.Promotion{}).Where("id IN ?", ids).Updates(values)
	return result.RowsAffected, result.Error
}

// UpdateByFilter 按筛选条件批量更新促销
func (r *GormPromotionRepository) UpdateByFilter(filter PromotionListFilter, values map[string]interface{}) (int64, error) {
	if len(values) == 0 {
		return 0, nil
	}
	query := r.applyFilter(r.db.Model(&models.Promotion{}), filter)
	result := query.Updates(values)
	return result.RowsAffected, result.Error
}

// IterateByFilter 按筛选条件分批遍历促销，用于流式导出。
func (r *GormPromotionRepository) IterateByFilter(filter PromotionListFilter, batchSize int, fn func([]models.Promotion) error) error {
	if batchSize <= 0 {
		batchSize = 500
	}
	query := r.applyFilter(r.db.Model(&models.Promotion{}), filter)
	var batch []models.Promotion
	return query.Order("id").FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
		return fn(batch)
	}).Error
}

// IncrementTimesUsed 增加促销使用次数
func (r *GormPromotionRepository) IncrementTimesUsed(id uint, delta int) error {
	if delta == 0 {
		delta = 1
	}
	return r.db.Model(&models.Promotion{}).
		Where("id = ?", id).
		UpdateColumn("times_used", gorm.Expr("times_used + ?", delta)).Error
}

// CountExpiredBefore 统计在指定时间前过期的促销数量
func (r *GormPromotionRepository) CountExpiredBefore(moment time.Time) (int64, error) {
	var total int64
	err := r.db.Model(&models.Promotion{}).
		Where("valid_to IS NOT NULL AND valid_to < ?", moment).
		Count(&total).Error
	return total, err
}
