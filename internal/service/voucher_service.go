package service

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/esim-backoffice/internal/constants"
	"github.com/esim-backoffice/internal/models"
	"github.com/esim-backoffice/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VoucherService 代金券服务
type VoucherService struct {
	repo        repository.VoucherRepository
	partnerRepo repository.PartnerRepository
}

// NewVoucherService 创建代金券服务
func NewVoucherService(repo repository.VoucherRepository, partnerRepo repository.PartnerRepository) *VoucherService {
	return &VoucherService{
		repo:        repo,
		partnerRepo: partnerRepo,
	}
}

// VoucherListInput 代金券列表输入
type VoucherListInput struct {
	Code        string
	PartnerID   uint
	IsUsed      *bool
	IsActive    *bool
	Exported    *bool
	ExpiredFrom *time.Time
	ExpiredTo   *time.Time
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PageSize    int
}

// BulkGenerateVouchersInput 批量生成代金券输入
type BulkGenerateVouchersInput struct {
	Count     int
	Amount    models.Money
	PartnerID uint
	ExpiredAt *time.Time
}

// ListVouchers 获取代金券列表
func (s *VoucherService) ListVouchers(input VoucherListInput) ([]models.Voucher, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, ErrVoucherFetchFailed
	}
	filter := repository.VoucherListFilter{
		Code:        strings.TrimSpace(strings.ToUpper(input.Code)),
		PartnerID:   input.PartnerID,
		IsUsed:      input.IsUsed,
		IsActive:    input.IsActive,
		Exported:    input.Exported,
		ExpiredFrom: input.ExpiredFrom,
		ExpiredTo:   input.ExpiredTo,
		CreatedFrom: input.CreatedFrom,
		CreatedTo:   input.CreatedTo,
		Page:        input.Page,
		PageSize:    input.PageSize,
		WithPartner: true,
	}
	vouchers, total, err := s.repo.List(filter)
	if err != nil {
		return nil, 0, ErrVoucherFetchFailed
	}
	return vouchers, total, nil
}

// GetVoucher 获取代金券详情
func (s *VoucherService) GetVoucher(id uint) (*models.Voucher, error) {
	if s == nil || s.repo == nil || id == 0 {
		return nil, ErrVoucherInvalid
	}
	voucher, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrVoucherFetchFailed
	}
	if voucher == nil {
		return nil, ErrVoucherNotFound
	}
	return voucher, nil
}

// BulkGenerateVouchers 批量生成代金券。
// 券码固定 12 位：伙伴前缀 2 位 + 随机字符补足，全局唯一。
func (s *VoucherService) BulkGenerateVouchers(input BulkGenerateVouchersInput) ([]models.Voucher, *BulkResult, error) {
	if s == nil || s.repo == nil {
		return nil, nil, ErrVoucherCreateFailed
	}
	if input.Count <= 0 || input.Count > constants.VoucherBulkMaxCount {
		return nil, nil, ErrVoucherInvalid
	}
	amount := input.Amount.Decimal.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, ErrVoucherInvalid
	}

	prefix := ""
	var partnerID *uint
	if input.PartnerID > 0 {
		if s.partnerRepo == nil {
			return nil, nil, ErrPartnerFetchFailed
		}
		partner, err := s.partnerRepo.GetByID(input.PartnerID)
		if err != nil {
			return nil, nil, ErrPartnerFetchFailed
		}
		if partner == nil {
			return nil, nil, ErrPartnerNotFound
		}
		if !partner.IsActive {
			return nil, nil, ErrPartnerInvalid
		}
		prefix = strings.ToUpper(partner.CodePrefix)
		id := partner.ID
		partnerID = &id
	}

	var expiredAt *time.Time
	if input.ExpiredAt != nil && !input.ExpiredAt.IsZero() {
		value := EndOfDay(*input.ExpiredAt)
		if value.Before(time.Now()) {
			return nil, nil, ErrVoucherInvalid
		}
		expiredAt = &value
	}

	codes, err := s.generateUniqueCodes(input.Count, prefix)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	vouchers := make([]models.Voucher, 0, len(codes))
	for _, code := range codes {
		vouchers = append(vouchers, models.Voucher{
			Code:      code,
			Amount:    models.NewMoneyFromDecimal(amount),
			PartnerID: partnerID,
			IsActive:  true,
			ExpiredAt: expiredAt,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	if err := models.DB.Transaction(func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).CreateBatch(vouchers)
	}); err != nil {
		return nil, nil, ErrVoucherCreateFailed
	}

	result := &BulkResult{}
	result.AddSuccess(int64(len(vouchers)))
	return vouchers, result, nil
}

// BulkExpireVouchers 批量过期代金券：过期时间设为当前时刻并停用。
func (s *VoucherService) BulkExpireVouchers(ids []uint) (*BulkResult, error) {
	if s == nil || s.repo == nil {
		return nil, ErrVoucherUpdateFailed
	}
	normalized := normalizeIDs(ids)
	if len(normalized) == 0 {
		return nil, ErrSelectionEmpty
	}
	now := time.Now()
	rows, err := s.repo.UpdateByIDs(normalized, map[string]interface{}{
		"expired_at": now,
		"is_active":  false,
		"updated_at": now,
	})
	if err != nil {
		return nil, ErrVoucherUpdateFailed
	}
	result := &BulkResult{}
	result.AddSuccess(rows)
	return result, nil
}

// BulkDeleteVouchers 批量删除代金券。
// 仅未使用且未导出的券会被删除，其余在结果中按失败上报。
func (s *VoucherService) BulkDeleteVouchers(ids []uint) (*BulkResult, error) {
	if s == nil || s.repo == nil {
		return nil, ErrVoucherDeleteFailed
	}
	normalized := normalizeIDs(ids)
	if len(normalized) == 0 {
		return nil, ErrSelectionEmpty
	}

	vouchers, err := s.repo.ListByIDs(normalized)
	if err != nil {
		return nil, ErrVoucherFetchFailed
	}
	existing := make(map[uint]models.Voucher, len(vouchers))
	for _, voucher := range vouchers {
		existing[voucher.ID] = voucher
	}

	result := &BulkResult{}
	deletable := make([]uint, 0, len(normalized))
	for _, id := range normalized {
		voucher, ok := existing[id]
		if !ok {
			result.AddError(BulkError{ID: id, Reason: "not found"})
			continue
		}
		if voucher.IsUsed {
			result.AddError(BulkError{ID: id, Code: voucher.Code, Reason: "already used"})
			continue
		}
		if voucher.Exported {
			result.AddError(BulkError{ID: id, Code: voucher.Code, Reason: "already exported"})
			continue
		}
		deletable = append(deletable, id)
	}

	if len(deletable) > 0 {
		rows, err := s.repo.DeleteUnusedUnexported(deletable)
		if err != nil {
			return nil, ErrVoucherDeleteFailed
		}
		result.AddSuccess(rows)
		// 预检和删除之间被并发标记的券不会命中 WHERE 条件
		if skipped := int64(len(deletable)) - rows; skipped > 0 {
			result.Failed += skipped
			result.TotalProcessed += skipped
		}
	}
	return result, nil
}

// ExportVouchers 流式导出代金券 CSV，成功后标记已导出。
func (s *VoucherService) ExportVouchers(input VoucherListInput, w io.Writer) (int64, error) {
	if s == nil || s.repo == nil {
		return 0, ErrVoucherFetchFailed
	}

	filter := repository.VoucherListFilter{
		Code:        strings.TrimSpace(strings.ToUpper(input.Code)),
		PartnerID:   input.PartnerID,
		IsUsed:      input.IsUsed,
		IsActive:    input.IsActive,
		Exported:    input.Exported,
		ExpiredFrom: input.ExpiredFrom,
		ExpiredTo:   input.ExpiredTo,
		CreatedFrom: input.CreatedFrom,
		CreatedTo:   input.CreatedTo,
		WithPartner: true,
	}

	writer := csv.NewWriter(w)
	header := []string{
		"id",
		"code",
		"amount",
		"partner",
		"is_used",
		"is_active",
		"expired_at",
		"created_at",
	}
	if err := writer.Write(header); err != nil {
		return 0, ErrVoucherFetchFailed
	}

	var exported int64
	exportedIDs := make([]uint, 0, constants.ExportStreamChunk)
	err := s.repo.IterateByFilter(filter, constants.ExportStreamChunk, func(vouchers []models.Voucher) error {
		for _, voucher := range vouchers {
			partnerName := ""
			if voucher.Partner != nil {
				partnerName = voucher.Partner.Name
			}
			record := []string{
				strconv.FormatUint(uint64(voucher.ID), 10),
				voucher.Code,
				voucher.Amount.String(),
				partnerName,
				strconv.FormatBool(voucher.IsUsed),
				strconv.FormatBool(voucher.IsActive),
				formatNullableTime(voucher.ExpiredAt),
				voucher.CreatedAt.Format(time.RFC3339),
			}
			if err := writer.Write(record); err != nil {
				return err
			}
			exported++
			exportedIDs = append(exportedIDs, voucher.ID)
		}
		writer.Flush()
		return writer.Error()
	})
	if err != nil {
		return 0, ErrVoucherFetchFailed
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, ErrVoucherFetchFailed
	}

	if len(exportedIDs) > 0 {
		if _, err := s.repo.MarkExported(exportedIDs, time.Now()); err != nil {
			return 0, ErrVoucherUpdateFailed
		}
	}
	return exported, nil
}

// generateUniqueCodes 生成全局唯一券码，前缀不足时整码随机。
func (s *VoucherService) generateUniqueCodes(count int, prefix string) ([]string, error) {
	randomLength := constants.VoucherCodeLength - len(prefix)
	if randomLength <= 0 {
		return nil, ErrVoucherInvalid
	}

	codes := make([]string, 0, count)
	pending := make(map[string]struct{}, count)

	for attempt := 0; attempt <= constants.PromoCollisionRetries; attempt++ {
		need := count - len(codes)
		if need == 0 {
			break
		}
		candidates := make([]string, 0, need)
		for len(candidates) < need {
			code := prefix + randomCode(randomLength, constants.VoucherCodeCharset)
			if _, ok := pending[code]; ok {
				continue
			}
			pending[code] = struct{}{}
			candidates = append(candidates, code)
		}
		existing, err := s.repo.ExistingCodes(candidates)
		if err != nil {
			return nil, ErrVoucherFetchFailed
		}
		for _, code := range candidates {
			if _, taken := existing[code]; taken {
				delete(pending, code)
				continue
			}
			codes = append(codes, code)
		}
	}

	if len(codes) < count {
		return nil, ErrVoucherCodeSpace
	}
	return codes, nil
}
