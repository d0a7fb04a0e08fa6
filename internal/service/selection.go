package service

import "time"

// BulkSelection 批量操作的目标选择。
// IDs 与 Filter 互斥：显式勾选 ID 列表，或回放列表页的筛选条件。
type BulkSelection struct {
	IDs    []uint
	Filter *SelectionFilter
}

// SelectionFilter 筛选回放条件
type SelectionFilter struct {
	Search      string
	Type        string
	BundleCode  string
	RuleID      uint
	PartnerID   uint
	IsActive    *bool
	IsUsed      *bool
	Exported    *bool
	ValidFrom   *time.Time
	ValidTo     *time.Time
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// Validate 校验选择方式互斥且非空
func (sel BulkSelection) Validate() error {
	hasIDs := len(sel.IDs) > 0
	hasFilter := sel.Filter != nil
	if hasIDs && hasFilter {
		return ErrSelectionInvalid
	}
	if !hasIDs && !hasFilter {
		return ErrSelectionEmpty
	}
	return nil
}

// NormalizedIDs 返回去重去零后的 ID 列表
func (sel BulkSelection) NormalizedIDs() []uint {
	return normalizeIDs(sel.IDs)
}

func normalizeIDs(ids []uint) []uint {
	if len(ids) == 0 {
		return []uint{}
	}
	seen := make(map[uint]struct{}, len(ids))
	result := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
