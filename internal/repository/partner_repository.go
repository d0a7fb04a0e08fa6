package repository

import (
	"errors"

	"github.com/esim-backoffice/internal/models"

	"gorm.io/gorm"
)

// PartnerRepository 合作伙伴数据访问接口
type PartnerRepository interface {
	GetByID(id uint) (*models.Partner, error)
	GetByCodePrefix(prefix string) (*models.Partner, error)
	Create(partner *models.Partner) error
	Update(partner *models.Partner) error
	Delete(id uint) error
	List(filter PartnerListFilter) ([]models.Partner, int64, error)
	CountVouchers(partnerID uint) (int64, error)
	WithTx(tx *gorm.DB) *GormPartnerRepository
}

// GormPartnerRepository GORM 实现
type GormPartnerRepository struct {
	db *gorm.DB
}

// NewPartnerRepository 创建合作伙伴仓库
func NewPartnerRepository(db *gorm.DB) *GormPartnerRepository {
	return &GormPartnerRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPartnerRepository) WithTx(tx *gorm.DB) *GormPartnerRepository {
	if tx == nil {
		return r
	}
	return &GormPartnerRepository{db: tx}
}

// GetByID 根据ID获取合作伙伴
func (r *GormPartnerRepository) GetByID(id uint) (*models.Partner, error) {
	var partner models.Partner
	if err := r.db.First(&partner, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &partner, nil
}

// GetByCodePrefix 根据券码前缀获取合作伙伴
func (r *GormPartnerRepository) GetByCodePrefix(prefix string) (*models.Partner, error) {
	var partner models.Partner
	if err := r.db.Where("code_prefix = ?", prefix).First(&partner).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &partner, nil
}

// Create 创建合作伙伴
func (r *GormPartnerRepository) Create(partner *models.Partner) error {
	return r.db.Create(partner).Error
}

// Update 更新合作伙伴
func (r *GormPartnerRepository) Update(partner *models.Partner) error {
	return r.db.Save(partner).Error
}

// Delete 删除合作伙伴
func (r *GormPartnerRepository) Delete(id uint) error {
	return r.db.Delete(&models.Partner{}, id).Error
}

// List 获取合作伙伴列表
func (r *GormPartnerRepository) List(filter PartnerListFilter) ([]models.Partner, int64, error) {
	var partners []models.Partner
	query := r.db.Model(&models.Partner{})

	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		operator := likeOperator(r.db)
		query = query.Where("(name "+operator+" ? OR code_prefix "+operator+" ?)", like, like)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Order("id desc").Find(&partners).Error; err != nil {
		return nil, 0, err
	}
	return partners, total, nil
}

// CountVouchers 统计合作伙伴名下代金券数量
func (r *GormPartnerRepository) CountVouchers(partnerID uint) (int64, error) {
	var total int64
	err := r.db.Model(&models.Voucher{}).Where("partner_id = ?", partnerID).Count(&total).Error
	return total, err
}
