package repository

import (
	"errors"

	"github.com/esim-backoffice/internal/models"

	"gorm.io/gorm"
)

// BundleRepository 套餐数据访问接口
type BundleRepository interface {
	GetByID(id uint) (*models.Bundle, error)
	GetByCode(code string) (*models.Bundle, error)
	Create(bundle *models.Bundle) error
	Update(bundle *models.Bundle) error
	Delete(id uint) error
	List(filter BundleListFilter) ([]models.Bundle, int64, error)
	IterateByFilter(filter BundleListFilter, batchSize int, fn func([]models.Bundle) error) error
	ListActive() ([]models.Bundle, error)
	UpdatePriceByIDs(ids []uint, values map[string]interface{}) (int64, error)
	ReplaceTags(bundleID uint, tags []string) error
	ListDistinctTags() ([]string, error)
	WithTx(tx *gorm.DB) *GormBundleRepository
}

// GormBundleRepository GORM 实现
type GormBundleRepository struct {
	db *gorm.DB
}

// NewBundleRepository 创建套餐仓库
func NewBundleRepository(db *gorm.DB) *GormBundleRepository {
	return &GormBundleRepository{db: db}
}

// WithTx 绑定事务
func (r *GormBundleRepository) WithTx(tx *gorm.DB) *GormBundleRepository {
	if tx == nil {
		return r
	}
	return &GormBundleRepository{db: tx}
}

// GetByID 根据ID获取套餐
func (r *GormBundleRepository) GetByID(id uint) (*models.Bundle, error) {
	var bundle models.Bundle
	if err := r.db.Preload("Tags").First(&bundle, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bundle, nil
}

// GetByCode 根据套餐编码获取套餐
func (r *GormBundleRepository) GetByCode(code string) (*models.Bundle, error) {
	var bundle models.Bundle
	if err := r.db.Preload("Tags").Where("code = ?", code).First(&bundle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bundle, nil
}

// Create 创建套餐
func (r *GormBundleRepository) Create(bundle *models.Bundle) error {
	return r.db.Create(bundle).Error
}

// Update 更新套餐
func (r *GormBundleRepository) Update(bundle *models.Bundle) error {
	return r.db.Save(bundle).Error
}

// Delete 删除套餐
func (r *GormBundleRepository) Delete(id uint) error {
	return r.db.Delete(&models.Bundle{}, id).Error
}

func (r *GormBundleRepository) applyFilter(query *gorm.DB, filter BundleListFilter) *gorm.DB {
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		operator := likeOperator(r.db)
		query = query.Where("(code "+operator+" ? OR name "+operator+" ?)", like, like)
	}
	if filter.Tag != "" {
		query = query.Where("id IN (?)", r.db.Model(&models.BundleTag{}).Select("bundle_id").Where("tag = ?", filter.Tag))
	}
	if filter.Country != "" {
		like := "%\"" + filter.Country + "\"%"
		query = query.Where("countries LIKE ?", like)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	return query
}

// List 获取套餐列表
func (r *GormBundleRepository) List(filter BundleListFilter) ([]models.Bundle, int64, error) {
	var bundles []models.Bundle
	query := r.applyFilter(r.db.Model(&models.Bundle{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if filter.WithTags {
		query = query.Preload("Tags")
	}

	if err := query.Order("id desc").Find(&bundles).Error; err != nil {
		return nil, 0, err
	}
	return bundles, total, nil
}

// IterateByFilter 按筛选条件分批遍历套餐，用于流式导出。
func (r *GormBundleRepository) IterateByFilter(filter BundleListFilter, batchSize int, fn func([]models.Bundle) error) error {
	if batchSize <= 0 {
		batchSize = 500
	}
	query := r.applyFilter(r.db.Model(&models.Bundle{}), filter).Preload("Tags")
	var batch []models.Bundle
	return query.Order("id").FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
		return fn(batch)
	}).Error
}

// ListActive 获取全部在售套餐，用于目录缓存重建。
func (r *GormBundleRepository) ListActive() ([]models.Bundle, error) {
	var bundles []models.Bundle
	if err := r.db.Preload("Tags").Where("is_active = ?", true).Order("id").Find(&bundles).Error; err != nil {
		return nil, err
	}
	return bundles, nil
}

// UpdatePriceByIDs 按ID批量更新套餐价格
func (r *GormBundleRepository) UpdatePriceByIDs(ids []uint, values map[string]interface{}) (int64, error) {
	if len(ids) == 0 || len(values) == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.Bundle{}).Where("id IN ?", ids).Updates(values)
	return result.RowsAffected, result.Error
}

// ReplaceTags 替换套餐的全部标签
func (r *GormBundleRepository) ReplaceTags(bundleID uint, tags []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("bundle_id = ?", bundleID).Delete(&models.BundleTag{}).Error; err != nil {
			return err
		}
		if len(tags) == 0 {
			return nil
		}
		rows := make([]models.BundleTag, 0, len(tags))
		for _, tag := range tags {
			rows = append(rows, models.BundleTag{BundleID: bundleID, Tag: tag})
		}
		return tx.Create(&rows).Error
	})
}

// ListDistinctTags 获取去重后的全部标签
func (r *GormBundleRepository) ListDistinctTags() ([]string, error) {
	var tags []string
	if err := r.db.Model(&models.BundleTag{}).Distinct("tag").Order("tag").Pluck("tag", &tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}
