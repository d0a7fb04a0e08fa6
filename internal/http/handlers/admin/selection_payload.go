package admin

import (
	"strings"

	"github.com/esim-backoffice/internal/service"
)

// bulkSelectionRequest 批量操作目标：显式 ID 列表或列表页筛选条件回放，二选一。
type bulkSelectionRequest struct {
	IDs    []uint                  `json:"ids"`
	Filter *selectionFilterRequest `json:"filter"`
}

type selectionFilterRequest struct {
	Search      string `json:"search"`
	Type        string `json:"type"`
	BundleCode  string `json:"bundle_code"`
	RuleID      uint   `json:"rule_id"`
	PartnerID   uint   `json:"partner_id"`
	IsActive    *bool  `json:"is_active"`
	IsUsed      *bool  `json:"is_used"`
	Exported    *bool  `json:"exported"`
	ValidFrom   string `json:"valid_from"`
	ValidTo     string `json:"valid_to"`
	CreatedFrom string `json:"created_from"`
	CreatedTo   string `json:"created_to"`
}

func (r bulkSelectionRequest) toSelection() (service.BulkSelection, error) {
	selection := service.BulkSelection{IDs: r.IDs}
	if r.Filter == nil {
		return selection, nil
	}

	validFrom, err := parseTimeNullable(strings.TrimSpace(r.Filter.ValidFrom))
	if err != nil {
		return service.BulkSelection{}, err
	}
	validTo, err := parseTimeNullable(strings.TrimSpace(r.Filter.ValidTo))
	if err != nil {
		return service.BulkSelection{}, err
	}
	createdFrom, err := parseTimeNullable(strings.TrimSpace(r.Filter.CreatedFrom))
	if err != nil {
		return service.BulkSelection{}, err
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(r.Filter.CreatedTo))
	if err != nil {
		return service.BulkSelection{}, err
	}

	selection.Filter = &service.SelectionFilter{
		Search:      strings.TrimSpace(r.Filter.Search),
		Type:        strings.TrimSpace(strings.ToLower(r.Filter.Type)),
		BundleCode:  strings.TrimSpace(r.Filter.BundleCode),
		RuleID:      r.Filter.RuleID,
		PartnerID:   r.Filter.PartnerID,
		IsActive:    r.Filter.IsActive,
		IsUsed:      r.Filter.IsUsed,
		Exported:    r.Filter.Exported,
		ValidFrom:   validFrom,
		ValidTo:     validTo,
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	}
	return selection, nil
}
