package cache

import (
	"context"
	"time"

	"github.com/esim-backoffice/internal/constants"
	"github.com/esim-backoffice/internal/models"
)

const bundleCatalogTTL = 30 * time.Minute

// BundleCatalogEntry 套餐目录缓存条目
type BundleCatalogEntry struct {
	ID           uint     `json:"id"`
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	Price        string   `json:"price"`
	Currency     string   `json:"currency"`
	DataAmountMB int64    `json:"data_amount_mb"`
	ValidityDays int      `json:"validity_days"`
	Tags         []string `json:"tags"`
}

// BuildBundleCatalog 从套餐模型构建目录缓存条目
func BuildBundleCatalog(bundles []models.Bundle) []BundleCatalogEntry {
	entries := make([]BundleCatalogEntry, 0, len(bundles))
	for _, bundle := range bundles {
		tags := make([]string, 0, len(bundle.Tags))
		for _, tag := range bundle.Tags {
			tags = append(tags, tag.Tag)
		}
		entries = append(entries, BundleCatalogEntry{
			ID:           bundle.ID,
			Code:         bundle.Code,
			Name:         bundle.Name,
			Price:        bundle.Price.String(),
			Currency:     bundle.Currency,
			DataAmountMB: bundle.DataAmountMB,
			ValidityDays: bundle.ValidityDays,
			Tags:         tags,
		})
	}
	return entries
}

// GetBundleCatalog 读取套餐目录缓存
func GetBundleCatalog(ctx context.Context) ([]BundleCatalogEntry, bool, error) {
	var entries []BundleCatalogEntry
	hit, err := GetJSON(ctx, constants.CacheKeyBundleCatalog, &entries)
	if err != nil || !hit {
		return nil, hit, err
	}
	return entries, true, nil
}

// SetBundleCatalog 写入套餐目录缓存
func SetBundleCatalog(ctx context.Context, entries []BundleCatalogEntry) error {
	return SetJSON(ctx, constants.CacheKeyBundleCatalog, entries, bundleCatalogTTL)
}

// DelBundleCatalog 删除套餐目录缓存
func DelBundleCatalog(ctx context.Context) error {
	return Del(ctx, constants.CacheKeyBundleCatalog)
}

// GetBundleTags 读取标签缓存
func GetBundleTags(ctx context.Context) ([]string, bool, error) {
	var tags []string
	hit, err := GetJSON(ctx, constants.CacheKeyBundleTags, &tags)
	if err != nil || !hit {
		return nil, hit, err
	}
	return tags, true, nil
}

// SetBundleTags 写入标签缓存
func SetBundleTags(ctx context.Context, tags []string) error {
	return SetJSON(ctx, constants.CacheKeyBundleTags, tags, bundleCatalogTTL)
}
