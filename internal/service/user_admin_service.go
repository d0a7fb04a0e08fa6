package service

import (
	"strings"
	"time"

	"github.com/esim-backoffice/internal/constants"
	"github.com/esim-backoffice/internal/models"
	"github.com/esim-backoffice/internal/repository"
)

// UserAdminService 用户后台服务
type UserAdminService struct {
	repo repository.UserRepository
}

// NewUserAdminService 创建用户后台服务
func NewUserAdminService(repo repository.UserRepository) *UserAdminService {
	return &UserAdminService{repo: repo}
}

// UserListInput 用户列表输入
type UserListInput struct {
	Keyword       string
	Status        string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	LastLoginFrom *time.Time
	LastLoginTo   *time.Time
	Page          int
	PageSize      int
}

// UpdateUserInput 更新用户输入
type UpdateUserInput struct {
	DisplayName *string
	Phone       *string
	Locale      *string
	Status      *string
}

// ListUsers 获取用户列表
func (s *UserAdminService) ListUsers(input UserListInput) ([]models.User, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, ErrUserFetchFailed
	}
	users, total, err := s.repo.List(repository.UserListFilter{
		Keyword:       strings.TrimSpace(input.Keyword),
		Status:        strings.TrimSpace(strings.ToLower(input.Status)),
		CreatedFrom:   input.CreatedFrom,
		CreatedTo:     input.CreatedTo,
		LastLoginFrom: input.LastLoginFrom,
		LastLoginTo:   input.LastLoginTo,
		Page:          input.Page,
		PageSize:      input.PageSize,
	})
	if err != nil {
		return nil, 0, ErrUserFetchFailed
	}
	return users, total, nil
}

// GetUser 获取用户详情
func (s *UserAdminService) GetUser(id uint) (*models.User, error) {
	if s == nil || s.repo == nil || id == 0 {
		return nil, ErrUserInvalid
	}
	user, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrUserFetchFailed
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateUser 更新用户资料
func (s *UserAdminService) UpdateUser(id uint, input UpdateUserInput) (*models.User, error) {
	if s == nil || s.repo == nil || id == 0 {
		return nil, ErrUserInvalid
	}
	user, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrUserFetchFailed
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if input.DisplayName != nil {
		name := strings.TrimSpace(*input.DisplayName)
		if name == "" {
			return nil, ErrUserInvalid
		}
		user.DisplayName = name
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Locale != nil {
		locale := strings.TrimSpace(*input.Locale)
		if locale != "" {
			user.Locale = locale
		}
	}
	if input.Status != nil {
		status := strings.TrimSpace(strings.ToLower(*input.Status))
		switch status {
		case constants.UserStatusActive, constants.UserStatusDisabled:
			user.Status = status
		default:
			return nil, ErrUserInvalid
		}
	}

	user.UpdatedAt = time.Now()
	if err := s.repo.Update(user); err != nil {
		return nil, ErrUserUpdateFailed
	}
	return user, nil
}

// BulkUpdateStatus 批量更新用户状态
func (s *UserAdminService) BulkUpdateStatus(ids []uint, status string) (*BulkResult, error) {
	if s == nil || s.repo == nil {
		return nil, ErrUserUpdateFailed
	}
	normalized := normalizeIDs(ids)
	if len(normalized) == 0 {
		return nil, ErrSelectionEmpty
	}
	normalizedStatus := strings.TrimSpace(strings.ToLower(status))
	switch normalizedStatus {
	case constants.UserStatusActive, constants.UserStatusDisabled:
	default:
		return nil, ErrUserInvalid
	}
	rows, err := s.repo.UpdateStatusByIDs(normalized, normalizedStatus)
	if err != nil {
		return nil, ErrUserUpdateFailed
	}
	result := &BulkResult{}
	result.AddSuccess(rows)
	return result, nil
}
