package service

import (
	"strings"
	"time"

	"github.com/esim-backoffice/internal/constants"
	"github.com/esim-backoffice/internal/models"
	"github.com/esim-backoffice/internal/repository"
)

// PartnerService 合作伙伴服务
type PartnerService struct {
	repo repository.PartnerRepository
}

// NewPartnerService 创建合作伙伴服务
func NewPartnerService(repo repository.PartnerRepository) *PartnerService {
	return &PartnerService{repo: repo}
}

// PartnerListInput 合作伙伴列表输入
type PartnerListInput struct {
	Search   string
	IsActive *bool
	Page     int
	PageSize int
}

// CreatePartnerInput 创建合作伙伴输入
type CreatePartnerInput struct {
	Name        string
	CodePrefix  string
	ContactInfo models.JSON
}

// UpdatePartnerInput 更新合作伙伴输入
type UpdatePartnerInput struct {
	Name        *string
	ContactInfo models.JSON
	IsActive    *bool
}

// ListPartners 获取合作伙伴列表
func (s *PartnerService) ListPartners(input PartnerListInput) ([]models.Partner, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, ErrPartnerFetchFailed
	}
	partners, total, err := s.repo.List(repository.PartnerListFilter{
		Search:   strings.TrimSpace(input.Search),
		IsActive: input.IsActive,
		Page:     input.Page,
		PageSize: input.PageSize,
	})
	if err != nil {
		return nil, 0, ErrPartnerFetchFailed
	}
	return partners, total, nil
}

// GetPartner 获取合作伙伴详情
func (s *PartnerService) GetPartner(id uint) (*models.Partner, error) {
	if s == nil || s.repo == nil || id == 0 {
		return nil, ErrPartnerInvalid
	}
	partner, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrPartnerFetchFailed
	}
	if partner == nil {
		return nil, ErrPartnerNotFound
	}
	return partner, nil
}

// CreatePartner 创建合作伙伴。券码前缀固定 2 位大写字母且全局唯一。
func (s *PartnerService) CreatePartner(input CreatePartnerInput) (*models.Partner, error) {
	if s == nil || s.repo == nil {
		return nil, ErrPartnerCreateFailed
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrPartnerInvalid
	}
	prefix, err := normalizePartnerPrefix(input.CodePrefix)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByCodePrefix(prefix)
	if err != nil {
		return nil, ErrPartnerFetchFailed
	}
	if existing != nil {
		return nil, ErrPartnerPrefixExists
	}

	now := time.Now()
	partner := &models.Partner{
		Name:        name,
		CodePrefix:  prefix,
		ContactInfo: input.ContactInfo,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(partner); err != nil {
		return nil, ErrPartnerCreateFailed
	}
	return partner, nil
}

// UpdatePartner 更新合作伙伴。前缀已印在券码上，不允许修改。
func (s *PartnerService) UpdatePartner(id uint, input UpdatePartnerInput) (*models.Partner, error) {
	if s == nil || s.repo == nil || id == 0 {
		return nil, ErrPartnerInvalid
	}
	partner, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrPartnerFetchFailed
	}
	if partner == nil {
		return nil, ErrPartnerNotFound
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrPartnerInvalid
		}
		partner.Name = name
	}
	if input.ContactInfo != nil {
		partner.ContactInfo = input.ContactInfo
	}
	if input.IsActive != nil {
		partner.IsActive = *input.IsActive
	}

	partner.UpdatedAt = time.Now()
	if err := s.repo.Update(partner); err != nil {
		return nil, ErrPartnerUpdateFailed
	}
	return partner, nil
}

// DeletePartner 删除合作伙伴。名下仍有代金券时拒绝删除。
func (s *PartnerService) DeletePartner(id uint) error {
	if s == nil || s.repo == nil || id == 0 {
		return ErrPartnerInvalid
	}
	partner, err := s.repo.GetByID(id)
	if err != nil {
		return ErrPartnerFetchFailed
	}
	if partner == nil {
		return ErrPartnerNotFound
	}
	count, err := s.repo.CountVouchers(id)
	if err != nil {
		return ErrPartnerFetchFailed
	}
	if count > 0 {
		return ErrPartnerHasVouchers
	}
	if err := s.repo.Delete(id); err != nil {
		return ErrPartnerDeleteFailed
	}
	return nil
}

func normalizePartnerPrefix(raw string) (string, error) {
	prefix := strings.TrimSpace(strings.ToUpper(raw))
	if len(prefix) != constants.PartnerPrefixLength {
		return "", ErrPartnerInvalid
	}
	for _, ch := range prefix {
		if ch < 'A' || ch > 'Z' {
			return "", ErrPartnerInvalid
		}
	}
	return prefix, nil
}
