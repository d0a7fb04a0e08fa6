package service

import (
	"strings"
	"time"

	"github.com/esim-backoffice/internal/constants"
	"github.com/esim-backoffice/internal/models"
	"github.com/esim-backoffice/internal/queue"
	"github.com/esim-backoffice/internal/repository"
)

// ConsumptionProvider 运营商侧用量查询接口
type ConsumptionProvider interface {
	FetchConsumption(iccid string) (int64, error)
}

// EsimService eSIM Profile 服务
type EsimService struct {
	repo        repository.EsimProfileRepository
	queueClient *queue.Client
	provider    ConsumptionProvider
}

// NewEsimService 创建 eSIM Profile 服务
func NewEsimService(repo repository.EsimProfileRepository, queueClient *queue.Client, provider ConsumptionProvider) *EsimService {
	return &EsimService{
		repo:        repo,
		queueClient: queueClient,
		provider:    provider,
	}
}

// EsimProfileListInput Profile 列表输入
type EsimProfileListInput struct {
	ICCID      string
	UserID     uint
	BundleID   uint
	Status     string
	SyncedFrom *time.Time
	SyncedTo   *time.Time
	Page       int
	PageSize   int
}

// ListProfiles 获取 Profile 列表
func (s *EsimService) ListProfiles(input EsimProfileListInput) ([]models.EsimProfile, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, ErrEsimProfileFetchFailed
	}
	profiles, total, err := s.repo.List(repository.EsimProfileListFilter{
		ICCID:      strings.TrimSpace(input.ICCID),
		UserID:     input.UserID,
		BundleID:   input.BundleID,
		Status:     strings.TrimSpace(strings.ToLower(input.Status)),
		SyncedFrom: input.SyncedFrom,
		SyncedTo:   input.SyncedTo,
		Page:       input.Page,
		PageSize:   input.PageSize,
	})
	if err != nil {
		return nil, 0, ErrEsimProfileFetchFailed
	}
	return profiles, total, nil
}

// GetProfile 获取 Profile 详情
func (s *EsimService) GetProfile(id uint) (*models.EsimProfile, error) {
	if s == nil || s.repo == nil || id == 0 {
		return nil, ErrEsimProfileInvalid
	}
	profile, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrEsimProfileFetchFailed
	}
	if profile == nil {
		return nil, ErrEsimProfileNotFound
	}
	return profile, nil
}

// RequestConsumptionSync 请求同步单个 Profile 的用量。
// 队列可用时异步执行，否则同步拉取。
func (s *EsimService) RequestConsumptionSync(id uint) error {
	if s == nil || s.repo == nil || id == 0 {
		return ErrEsimProfileInvalid
	}
	profile, err := s.repo.GetByID(id)
	if err != nil {
		return ErrEsimProfileFetchFailed
	}
	if profile == nil {
		return ErrEsimProfileNotFound
	}
	if s.queueClient != nil && s.queueClient.Enabled() {
		return s.queueClient.EnqueueEsimConsumptionSync(queue.EsimConsumptionSyncPayload{ProfileID: id})
	}
	return s.SyncConsumption(id)
}

// SyncConsumption 同步单个 Profile 的用量
func (s *EsimService) SyncConsumption(id uint) error {
	if s == nil || s.repo == nil || s.provider == nil {
		return ErrEsimProfileSyncFailed
	}
	profile, err := s.repo.GetByID(id)
	if err != nil {
		return ErrEsimProfileFetchFailed
	}
	if profile == nil {
		return ErrEsimProfileNotFound
	}
	used, err := s.provider.FetchConsumption(profile.ICCID)
	if err != nil {
		return ErrEsimProfileSyncFailed
	}
	if err := s.repo.UpdateConsumption(profile.ID, used, time.Now()); err != nil {
		return ErrEsimProfileSyncFailed
	}
	return nil
}

// SyncStaleProfiles 批量同步用量过期的 Profile，返回成功数量。
func (s *EsimService) SyncStaleProfiles(cutoff time.Time) (int, error) {
	if s == nil || s.repo == nil || s.provider == nil {
		return 0, ErrEsimProfileSyncFailed
	}
	statuses := []string{constants.EsimProfileStatusInstalled, constants.EsimProfileStatusEnabled}
	profiles, err := s.repo.ListStaleSince(statuses, cutoff, constants.ConsumptionSyncBatchLimit)
	if err != nil {
		return 0, ErrEsimProfileFetchFailed
	}
	synced := 0
	for _, profile := range profiles {
		used, err := s.provider.FetchConsumption(profile.ICCID)
		if err != nil {
			continue
		}
		if err := s.repo.UpdateConsumption(profile.ID, used, time.Now()); err != nil {
			continue
		}
		synced++
	}
	return synced, nil
}
