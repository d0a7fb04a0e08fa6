package repository

import (
	"errors"

	"github.com/esim-backoffice/internal/models"

	"gorm.io/gorm"
)

// FinancialDocumentRepository 财务单据数据访问接口
type FinancialDocumentRepository interface {
	GetByID(id uint) (*models.FinancialDocument, error)
	GetByDocumentNo(documentNo string) (*models.FinancialDocument, error)
	GetInvoiceByOrderID(orderID uint) (*models.FinancialDocument, error)
	Create(doc *models.FinancialDocument) error
	List(filter FinancialDocumentListFilter) ([]models.FinancialDocument, int64, error)
	IterateByFilter(filter FinancialDocumentListFilter, batchSize int, fn func([]models.FinancialDocument) error) error
	WithTx(tx *gorm.DB) *GormFinancialDocumentRepository
}

// GormFinancialDocumentRepository GORM 实现
type GormFinancialDocumentRepository struct {
	db *gorm.DB
}

// NewFinancialDocumentRepository 创建财务单据仓库
func NewFinancialDocumentRepository(db *gorm.DB) *GormFinancialDocumentRepository {
	return &GormFinancialDocumentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormFinancialDocumentRepository) WithTx(tx *gorm.DB) *GormFinancialDocumentRepository {
	if tx == nil {
		return r
	}
	return &GormFinancialDocumentRepository{db: tx}
}

// GetByID 根据ID获取单据
func (r *GormFinancialDocumentRepository) GetByID(id uint) (*models.FinancialDocument, error) {
	var doc models.FinancialDocument
	if err := r.db.Preload("Lines").First(&doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

// GetByDocumentNo 根据单据号获取单据
func (r *GormFinancialDocumentRepository) GetByDocumentNo(documentNo string) (*models.FinancialDocument, error) {
	var doc models.FinancialDocument
	if err := r.db.Preload("Lines").Where("document_no = ?", documentNo).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

// GetInvoiceByOrderID 获取订单对应的发票
func (r *GormFinancialDocumentRepository) GetInvoiceByOrderID(orderID uint) (*models.FinancialDocument, error) {
	var doc models.FinancialDocument
	err := r.db.Preload("Lines").
		Where("order_id = ? AND type = ?", orderID, "invoice").
		Order("id desc").
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

// Create 创建单据（连同明细行）
func (r *GormFinancialDocumentRepository) Create(doc *models.FinancialDocument) error {
	return r.db.Create(doc).Error
}

// applyFilter 组装单据筛选条件
func (r *GormFinancialDocumentRepository) applyFilter(query *gorm.DB, filter FinancialDocumentListFilter) *gorm.DB {
	if filter.DocumentNo != "" {
		query = query.Where("document_no = ?", filter.DocumentNo)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.OrderID > 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.IssuedFrom != nil {
		query = query.Where("issued_at >= ?", *filter.IssuedFrom)
	}
	if filter.IssuedTo != nil {
		query = query.Where("issued_at <= ?", *filter.IssuedTo)
	}
	return query
}

// List 获取单据列表
func (r *GormFinancialDocumentRepository) List(filter FinancialDocumentListFilter) ([]models.FinancialDocument, int64, error) {
	var docs []models.FinancialDocument
	query := r.applyFilter(r.db.Model(&models.FinancialDocument{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if filter.WithLines {
		query = query.Preload("Lines")
	}

	if err := query.Order("id desc").Find(&docs).Error; err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// IterateByFilter 按筛选条件分批遍历单据（含明细行），用于流式导出。
func (r *GormFinancialDocumentRepository) IterateByFilter(filter FinancialDocumentListFilter, batchSize int, fn func([]models.FinancialDocument) error) error {
	if batchSize <= 0 {
		batchSize = 200
	}
	query := r.applyFilter(r.db.Model(&models.FinancialDocument{}), filter).Preload("Lines")
	var batch []models.FinancialDocument
	return query.Order("id").FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
		return fn(batch)
	}).Error
}
