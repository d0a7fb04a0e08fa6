package repository

import (
	"errors"
	"time"

	"github.com/esim-backoffice/internal/models"

	"gorm.io/gorm"
)

// VoucherRepository 代金券数据访问接口
type VoucherRepository interface {
	GetByID(id uint) (*models.Voucher, error)
	GetByCode(code string) (*models.Voucher, error)
	ListByIDs(ids []uint) ([]models.Voucher, error)
	Create(voucher *models.Voucher) error
	CreateBatch(vouchers []models.Voucher) error
	Update(voucher *models.Voucher) error
	List(filter VoucherListFilter) ([]models.Voucher, int64, error)
	ExistingCodes(codes []string) (map[string]struct{}, error)
	UpdateByIDs(ids []uint, values map[string]interface{}) (int64, error)
	DeleteUnusedUnexported(ids []uint) (int64, error)
	MarkExported(ids []uint, exportedAt time.Time) (int64, error)
	IterateByFilter(filter VoucherListFilter, batchSize int, fn func([]models.Voucher) error) error
	WithTx(tx *gorm.DB) *GormVoucherRepository
}

// GormVoucherRepository GORM 实现
type GormVoucherRepository struct {
	db *gorm.DB
}

// NewVoucherRepository 创建代金券仓库
func NewVoucherRepository(db *gorm.DB) *GormVoucherRepository {
	return &GormVoucherRepository{db: db}
}

// WithTx 绑定事务
func (r *GormVoucherRepository) WithTx(tx *gorm.DB) *GormVoucherRepository {
	if tx == nil {
		return r
	}
	return &GormVoucherRepository{db: tx}
}

// GetByID 根据ID获取代金券
func (r *GormVoucherRepository) GetByID(id uint) (*models.Voucher, error) {
	var voucher models.Voucher
	if err := r.db.Preload("Partner").First(&voucher, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &voucher, nil
}

// GetByCode 根据券码获取代金券
func (r *GormVoucherRepository) GetByCode(code string) (*models.Voucher, error) {
	var voucher models.Voucher
	if err := r.db.Where("code = ?", code).First(&voucher).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &voucher, nil
}

// ListByIDs 批量获取代金券
func (r *GormVoucherRepository) ListByIDs(ids []uint) ([]models.Voucher, error) {
	if len(ids) == 0 {
		return []models.Voucher{}, nil
	}
	var vouchers []models.Voucher
	if err := r.db.Where("id IN ?", ids).Find(&vouchers).Error; err != nil {
		return nil, err
	}
	return vouchers, nil
}

// Create 创建代金券
func (r *GormVoucherRepository) Create(voucher *models.Voucher) error {
	return r.db.Create(voucher).Error
}

// CreateBatch 批量创建代金券
func (r *GormVoucherRepository) CreateBatch(vouchers []models.Voucher) error {
	if len(vouchers) == 0 {
		return nil
	}
	return r.db.CreateInBatches(vouchers, 500).Error
}

// Update 更新代金券
func (r *GormVoucherRepository) Update(voucher *models.Voucher) error {
	return r.db.Save(voucher).Error
}

// applyFilter 组装代金券筛选条件
func (r *GormVoucherRepository) applyFilter(query *gorm.DB, filter VoucherListFilter) *gorm.DB {
	if filter.Code != "" {
		query = query.Where("code = ?", filter.Code)
	}
	if filter.PartnerID > 0 {
		query = query.Where("partner_id = ?", filter.PartnerID)
	}
	if filter.IsUsed != nil {
		query = query.Where("is_used = ?", *filter.IsUsed)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Exported != nil {
		query = query.Where("exported = ?", *filter.Exported)
	}
	if filter.ExpiredFrom != nil {
		query = query.Where("expired_at >= ?", *filter.ExpiredFrom)
	}
	if filter.ExpiredTo != nil {
		query = query.Where("expired_at <= ?", *filter.ExpiredTo)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}
	return query
}

// List 获取代金券列表
func (r *GormVoucherRepository) List(filter VoucherListFilter) ([]models.Voucher, int64, error) {
	var vouchers []models.Voucher
	query := r.applyFilter(r.db.Model(&models.Voucher{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if filter.WithPartner {
		query = query.Preload("Partner")
	}

	if err := query.Order("id desc").Find(&vouchers).Error; err != nil {
		return nil, 0, err
	}
	return vouchers, total, nil
}

// ExistingCodes 查询已存在的券码集合
func (r *GormVoucherRepository) ExistingCodes(codes []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	if len(codes) == 0 {
		return existing, nil
	}
	var found []string
	if err := r.db.Model(&models.Voucher{}).Where("code IN ?", codes).Pluck("code", &found).Error; err != nil {
		return nil, err
	}
	for _, code := range found {
		existing[code] = struct{}{}
	}
	return existing, nil
}

// UpdateByIDs 按ID批量更新代金券
func (r *GormVoucherRepository) UpdateByIDs(ids []uint, values map[string]interface{}) (int64, error) {
	if len(ids) == 0 || len(values) == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.Voucher{}).Where("id IN ?", ids).Updates(values)
	return result.RowsAffected, result.Error
}

// DeleteUnusedUnexported 批量删除代金券。
// 已使用或已导出的券在 WHERE 中被排除，确保并发标记时不会误删。
func (r *GormVoucherRepository) DeleteUnusedUnexported(ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Where("id IN ? AND is_used = ? AND exported = ?", ids, false, false).
		Delete(&models.Voucher{})
	return result.RowsAffected, result.Error
}

// MarkExported 标记代金券已导出
func (r *GormVoucherRepository) MarkExported(ids []uint, exportedAt time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.Voucher{}).Where("id IN ?", ids).Updates(map[string]interface{}{
		"exported":    true,
		"exported_at": exportedAt,
	})
	return result.RowsAffected, result.Error
}

// IterateByFilter 按筛选条件分批遍历代金券，用于流式导出。
func (r *GormVoucherRepository) IterateByFilter(filter VoucherListFilter, batchSize int, fn func([]models.Voucher) error) error {
	if batchSize <= 0 {
		batchSize = 500
	}
	query := r.applyFilter(r.db.Model(&models.Voucher{}), filter)
	if filter.WithPartner {
		query = query.Preload("Partner")
	}
	var batch []models.Voucher
	return query.Order("id").FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
		return fn(batch)
	}).Error
}
