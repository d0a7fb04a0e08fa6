package repository

import (
	"errors"
	"time"

	"github.com/esim-backoffice/internal/models"

	"gorm.io/gorm"
)

// EsimProfileRepository eSIM Profile 数据访问接口
type EsimProfileRepository interface {
	GetByID(id uint) (*models.EsimProfile, error)
	GetByICCID(iccid string) (*models.EsimProfile, error)
	Create(profile *models.EsimProfile) error
	Update(profile *models.EsimProfile) error
	List(filter EsimProfileListFilter) ([]models.EsimProfile, int64, error)
	ListStaleSince(statuses []string, cutoff time.Time, limit int) ([]models.EsimProfile, error)
	UpdateConsumption(id uint, dataUsedMB int64, syncedAt time.Time) error
	WithTx(tx *gorm.DB) *GormEsimProfileRepository
}

// GormEsimProfileRepository GORM 实现
type GormEsimProfileRepository struct {
	db *gorm.DB
}

// NewEsimProfileRepository 创建 eSIM Profile 仓库
func NewEsimProfileRepository(db *gorm.DB) *GormEsimProfileRepository {
	return &GormEsimProfileRepository{db: db}
}

// WithTx 绑定事务
func (r *GormEsimProfileRepository) WithTx(tx *gorm.DB) *GormEsimProfileRepository {
	if tx == nil {
		return r
	}
	return &GormEsimProfileRepository{db: tx}
}

// GetByID 根据ID获取 Profile
func (r *GormEsimProfileRepository) GetByID(id uint) (*models.EsimProfile, error) {
	var profile models.EsimProfile
	if err := r.db.Preload("User").Preload("Bundle").First(&profile, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// GetByICCID 根据 ICCID 获取 Profile
func (r *GormEsimProfileRepository) GetByICCID(iccid string) (*models.EsimProfile, error) {
	var profile models.EsimProfile
	if err := r.db.Preload("User").Preload("Bundle").Where("iccid = ?", iccid).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// Create 创建 Profile
func (r *GormEsimProfileRepository) Create(profile *models.EsimProfile) error {
	return r.db.Create(profile).Error
}

// Update 更新 Profile
func (r *GormEsimProfileRepository) Update(profile *models.EsimProfile) error {
	return r.db.Save(profile).Error
}

// List 获取 Profile 列表
func (r *GormEsimProfileRepository) List(filter EsimProfileListFilter) ([]models.EsimProfile, int64, error) {
	var profiles []models.EsimProfile
	query := r.db.Model(&models.EsimProfile{})

	if filter.ICCID != "" {
		query = query.Where("iccid = ?", filter.ICCID)
	}
	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.BundleID > 0 {
		query = query.Where("bundle_id = ?", filter.BundleID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.SyncedFrom != nil {
		query = query.Where("last_synced_at >= ?", *filter.SyncedFrom)
	}
	if filter.SyncedTo != nil {
		query = query.Where("last_synced_at <= ?", *filter.SyncedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Preload("User").Preload("Bundle").Order("id desc").Find(&profiles).Error; err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}

// ListStaleSince 获取用量同步时间早于截止点的在网 Profile，用于后台同步任务。
func (r *GormEsimProfileRepository) ListStaleSince(statuses []string, cutoff time.Time, limit int) ([]models.EsimProfile, error) {
	if limit <= 0 {
		limit = 200
	}
	var profiles []models.EsimProfile
	query := r.db.Where("last_synced_at IS NULL OR last_synced_at < ?", cutoff)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	err := query.
		Order("last_synced_at").
		Limit(limit).
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

// UpdateConsumption 更新用量与同步时间
func (r *GormEsimProfileRepository) UpdateConsumption(id uint, dataUsedMB int64, syncedAt time.Time) error {
	return r.db.Model(&models.EsimProfile{}).Where("id = ?", id).Updates(map[string]interface{}{
		"data_used_mb":   dataUsedMB,
		"last_synced_at": syncedAt,
	}).Error
}
