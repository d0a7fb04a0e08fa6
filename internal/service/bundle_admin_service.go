package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/esim-backoffice/internal/cache"
	"github.com/esim-backoffice/internal/constants"
	"github.com/esim-backoffice/internal/models"
	"github.com/esim-backoffice/internal/queue"
	"github.com/esim-backoffice/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BundleAdminService 套餐后台服务
type BundleAdminService struct {
	repo        repository.BundleRepository
	queueClient *queue.Client
}

// NewBundleAdminService 创建套餐后台服务
func NewBundleAdminService(repo repository.BundleRepository, queueClient *queue.Client) *BundleAdminService {
	return &BundleAdminService{
		repo:        repo,
		queueClient: queueClient,
	}
}

// BundleListInput 套餐列表输入
type BundleListInput struct {
	Search   string
	Tag      string
	Country  string
	IsActive *bool
	Page     int
	PageSize int
}

// SaveBundleInput 创建/更新套餐输入
type SaveBundleInput struct {
	Code         string
	Name         string
	Description  string
	Price        models.Money
	Currency     string
	DataAmountMB int64
	ValidityDays int
	Countries    models.JSON
	Tags         []string
	IsActive     *bool
}

// BulkPriceInput 批量调价输入
type BulkPriceInput struct {
	IDs   []uint
	Mode  string
	Value decimal.Decimal
}

// ListBundles 获取套餐列表
func (s *BundleAdminService) ListBundles(input BundleListInput) ([]models.Bundle, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, ErrBundleFetchFailed
	}
	bundles, total, err := s.repo.List(repository.BundleListFilter{
		Search:   strings.TrimSpace(input.Search),
		Tag:      strings.TrimSpace(input.Tag),
		Country:  strings.TrimSpace(strings.ToUpper(input.Country)),
		IsActive: input.IsActive,
		Page:     input.Page,
		PageSize: input.PageSize,
		WithTags: true,
	})
	if err != nil {
		return nil, 0, ErrBundleFetchFailed
	}
	return bundles, total, nil
}

// GetBundle 获取套餐详情
func (s *BundleAdminService) GetBundle(id uint) (*models.Bundle, error) {
	if s == nil || s.repo == nil || id == 0 {
		return nil, ErrBundleInvalid
	}
	bundle, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrBundleFetchFailed
	}
	if bundle == nil {
		return nil, ErrBundleNotFound
	}
	return bundle, nil
}

// CreateBundle 创建套餐
func (s *BundleAdminService) CreateBundle(input SaveBundleInput) (*models.Bundle, error) {
	if s == nil || s.repo == nil {
		return nil, ErrBundleCreateFailed
	}
	code := strings.TrimSpace(input.Code)
	name := strings.TrimSpace(input.Name)
	if code == "" || name == "" {
		return nil, ErrBundleInvalid
	}
	price := input.Price.Decimal.Round(2)
	if price.LessThan(decimal.Zero) {
		return nil, ErrBundleInvalid
	}
	if input.ValidityDays <= 0 {
		return nil, ErrBundleInvalid
	}
	// DataAmountMB 为 -1 表示不限量
	if input.DataAmountMB < -1 || input.DataAmountMB == 0 {
		return nil, ErrBundleInvalid
	}

	existing, err := s.repo.GetByCode(code)
	if err != nil {
		return nil, ErrBundleFetchFailed
	}
	if existing != nil {
		return nil, ErrBundleCodeExists
	}

	currency := strings.TrimSpace(strings.ToUpper(input.Currency))
	if currency == "" {
		currency = constants.CurrencyDefault
	}

	now := time.Now()
	bundle := &models.Bundle{
		Code:         code,
		Name:         name,
		Description:  strings.TrimSpace(input.Description),
		Price:        models.NewMoneyFromDecimal(price),
		Currency:     currency,
		DataAmountMB: input.DataAmountMB,
		ValidityDays: input.ValidityDays,
		Countries:    input.Countries,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(bundle); err != nil {
			return err
		}
		return repo.ReplaceTags(bundle.ID, normalizeBundleTags(input.Tags))
	}); err != nil {
		return nil, ErrBundleCreateFailed
	}

	s.notifyCatalogChanged("bundle_created")
	return s.GetBundle(bundle.ID)
}

// UpdateBundle 更新套餐
func (s *BundleAdminService) UpdateBundle(id uint, input SaveBundleInput) (*models.Bundle, error) {
	if s == nil || s.repo == nil || id == 0 {
		return nil, ErrBundleInvalid
	}
	bundle, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrBundleFetchFailed
	}
	if bundle == nil {
		return nil, ErrBundleNotFound
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		bundle.Name = name
	}
	if desc := strings.TrimSpace(input.Description); desc != "" {
		bundle.Description = desc
	}
	if !input.Price.Decimal.IsZero() {
		price := input.Price.Decimal.Round(2)
		if price.LessThan(decimal.Zero) {
			return nil, ErrBundleInvalid
		}
		bundle.Price = models.NewMoneyFromDecimal(price)
	}
	if input.DataAmountMB != 0 {
		if input.DataAmountMB < -1 {
			return nil, ErrBundleInvalid
		}
		bundle.DataAmountMB = input.DataAmountMB
	}
	if input.ValidityDays > 0 {
		bundle.ValidityDays = input.ValidityDays
	}
	if input.Countries != nil {
		bundle.Countries = input.Countries
	}
	if input.IsActive != nil {
		bundle.IsActive = *input.IsActive
	}

	bundle.UpdatedAt = time.Now()
	if err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(bundle); err != nil {
			return err
		}
		if input.Tags != nil {
			return repo.ReplaceTags(bundle.ID, normalizeBundleTags(input.Tags))
		}
		return nil
	}); err != nil {
		return nil, ErrBundleUpdateFailed
	}

	s.notifyCatalogChanged("bundle_updated")
	if input.Tags != nil && s.queueClient != nil {
		_ = s.queueClient.EnqueueBundleTagRefresh(queue.BundleTagRefreshPayload{BundleID: bundle.ID})
	}
	return s.GetBundle(id)
}

// DeleteBundle 删除套餐
func (s *BundleAdminService) DeleteBundle(id uint) error {
	if s == nil || s.repo == nil || id == 0 {
		return ErrBundleInvalid
	}
	bundle, err := s.repo.GetByID(id)
	if err != nil {
		return ErrBundleFetchFailed
	}
	if bundle == nil {
		return ErrBundleNotFound
	}
	if err := s.repo.Delete(id); err != nil {
		return ErrBundleDeleteFailed
	}
	s.notifyCatalogChanged("bundle_deleted")
	return nil
}

// BulkUpdatePrice 批量调价：固定价或按百分比缩放。
func (s *BundleAdminService) BulkUpdatePrice(input BulkPriceInput) (*BulkResult, error) {
	if s == nil || s.repo == nil {
		return nil, ErrBundleUpdateFailed
	}
	ids := normalizeIDs(input.IDs)
	if len(ids) == 0 {
		return nil, ErrSelectionEmpty
	}
	mode := strings.TrimSpace(strings.ToLower(input.Mode))

	result := &BulkResult{}
	switch mode {
	case constants.BulkPriceModeFixed:
		price := input.Value.Round(2)
		if price.LessThanOrEqual(decimal.Zero) {
			return nil, ErrBundleInvalid
		}
		rows, err := s.repo.UpdatePriceByIDs(ids, map[string]interface{}{
			"price":      models.NewMoneyFromDecimal(price),
			"updated_at": time.Now(),
		})
		if err != nil {
			return nil, ErrBundleUpdateFailed
		}
		result.AddSuccess(rows)
	case constants.BulkPriceModePercent:
		// 百分比基于各自当前价格，逐条计算后更新
		if input.Value.LessThanOrEqual(decimal.Zero) {
			return nil, ErrBundleInvalid
		}
		factor := input.Value.Div(decimal.NewFromInt(100))
		for _, id := range ids {
			bundle, err := s.repo.GetByID(id)
			if err != nil {
				result.AddError(BulkError{ID: id, Reason: "fetch failed"})
				continue
			}
			if bundle == nil {
				result.AddError(BulkError{ID: id, Reason: "not found"})
				continue
			}
			newPrice := bundle.Price.Decimal.Mul(factor).Round(2)
			if newPrice.LessThanOrEqual(decimal.Zero) {
				result.AddError(BulkError{ID: id, Code: bundle.Code, Reason: "price out of range"})
				continue
			}
			bundle.Price = models.NewMoneyFromDecimal(newPrice)
			bundle.UpdatedAt = time.Now()
			if err := s.repo.Update(bundle); err != nil {
				result.AddError(BulkError{ID: id, Code: bundle.Code, Reason: "update failed"})
				continue
			}
			result.AddSuccess(1)
		}
	default:
		return nil, ErrBundleInvalid
	}

	s.notifyCatalogChanged("bundle_price_updated")
	return result, nil
}

// ExportBundles 按当前筛选条件流式导出套餐 CSV
func (s *BundleAdminService) ExportBundles(input BundleListInput, w io.Writer) (int64, error) {
	if s == nil || s.repo == nil {
		return 0, ErrBundleFetchFailed
	}

	writer := csv.NewWriter(w)
	header := []string{
		"id",
		"code",
		"name",
		"description",
		"price",
		"currency",
		"data_amount_mb",
		"validity_days",
		"countries",
		"tags",
		"is_active",
		"created_at",
	}
	if err := writer.Write(header); err != nil {
		return 0, ErrBundleFetchFailed
	}

	var exported int64
	filter := repository.BundleListFilter{
		Search:   strings.TrimSpace(input.Search),
		Tag:      strings.TrimSpace(input.Tag),
		Country:  strings.TrimSpace(strings.ToUpper(input.Country)),
		IsActive: input.IsActive,
	}
	err := s.repo.IterateByFilter(filter, constants.ExportStreamChunk, func(bundles []models.Bundle) error {
		for _, bundle := range bundles {
			countries := ""
			if len(bundle.Countries) > 0 {
				if data, err := json.Marshal(bundle.Countries); err == nil {
					countries = string(data)
				}
			}
			tags := make([]string, 0, len(bundle.Tags))
			for _, tag := range bundle.Tags {
				tags = append(tags, tag.Tag)
			}
			record := []string{
				strconv.FormatUint(uint64(bundle.ID), 10),
				bundle.Code,
				bundle.Name,
				bundle.Description,
				bundle.Price.String(),
				bundle.Currency,
				strconv.FormatInt(bundle.DataAmountMB, 10),
				strconv.Itoa(bundle.ValidityDays),
				countries,
				strings.Join(tags, "|"),
				strconv.FormatBool(bundle.IsActive),
				bundle.CreatedAt.Format(time.RFC3339),
			}
			if err := writer.Write(record); err != nil {
				return err
			}
			exported++
		}
		writer.Flush()
		return writer.Error()
	})
	if err != nil {
		return 0, ErrBundleFetchFailed
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, ErrBundleFetchFailed
	}
	return exported, nil
}

// RebuildCatalogCache 重建套餐目录缓存
func (s *BundleAdminService) RebuildCatalogCache(ctx context.Context) (int, error) {
	if s == nil || s.repo == nil {
		return 0, ErrBundleFetchFailed
	}
	bundles, err := s.repo.ListActive()
	if err != nil {
		return 0, ErrBundleFetchFailed
	}
	entries := cache.BuildBundleCatalog(bundles)
	if err := cache.SetBundleCatalog(ctx, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// RefreshTagCache 刷新标签缓存
func (s *BundleAdminService) RefreshTagCache(ctx context.Context) ([]string, error) {
	if s == nil || s.repo == nil {
		return nil, ErrBundleFetchFailed
	}
	tags, err := s.repo.ListDistinctTags()
	if err != nil {
		return nil, ErrBundleFetchFailed
	}
	if err := cache.SetBundleTags(ctx, tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// ListTags 获取全部标签，优先读取缓存。
func (s *BundleAdminService) ListTags(ctx context.Context) ([]string, error) {
	if s == nil || s.repo == nil {
		return nil, ErrBundleFetchFailed
	}
	if tags, hit, err := cache.GetBundleTags(ctx); err == nil && hit {
		return tags, nil
	}
	return s.RefreshTagCache(ctx)
}

// notifyCatalogChanged 目录变化后让缓存异步重建，队列不可用时直接失效。
func (s *BundleAdminService) notifyCatalogChanged(reason string) {
	if s.queueClient != nil && s.queueClient.Enabled() {
		_ = s.queueClient.EnqueueBundleCacheRebuild(queue.BundleCacheRebuildPayload{Reason: reason})
		return
	}
	_ = cache.DelBundleCatalog(context.Background())
}

func normalizeBundleTags(tags []string) []string {
	if len(tags) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		normalized := strings.TrimSpace(strings.ToLower(tag))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		result = append(result, normalized)
	}
	return result
}
