package repository

import (
	"errors"

	"github.com/esim-backoffice/internal/models"

	"gorm.io/gorm"
)

// CurrencyRepository 币种汇率数据访问接口
type CurrencyRepository interface {
	GetByCode(code string) (*models.Currency, error)
	ListAll() ([]models.Currency, error)
	Upsert(currency *models.Currency) error
}

// GormCurrencyRepository GORM 实现
type GormCurrencyRepository struct {
	db *gorm.DB
}

// NewCurrencyRepository 创建币种仓库
func NewCurrencyRepository(db *gorm.DB) *GormCurrencyRepository {
	return &GormCurrencyRepository{db: db}
}

// GetByCode 根据币种代码获取汇率
func (r *GormCurrencyRepository) GetByCode(code string) (*models.Currency, error) {
	var currency models.Currency
	if err := r.db.Where("code = ?", code).First(&currency).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &currency, nil
}

// ListAll 获取全部币种
func (r *GormCurrencyRepository) ListAll() ([]models.Currency, error) {
	var currencies []models.Currency
	if err := r.db.Order("code").Find(&currencies).Error; err != nil {
		return nil, err
	}
	return currencies, nil
}

// Upsert 创建或更新币种汇率
func (r *GormCurrencyRepository) Upsert(currency *models.Currency) error {
	existing, err := r.GetByCode(currency.Code)
	if err != nil {
		return err
	}
	if existing == nil {
		return r.db.Create(currency).Error
	}
	existing.Rate = currency.Rate
	return r.db.Save(existing).Error
}
