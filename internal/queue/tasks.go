package queue

import (
	"encoding/json"

	"github.com/esim-backoffice/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskBundleCacheRebuild 套餐目录缓存重建任务
	TaskBundleCacheRebuild = constants.TaskBundleCacheRebuild
	// TaskEsimConsumptionSync eSIM 用量同步任务
	TaskEsimConsumptionSync = constants.TaskEsimConsumptionSync
	// TaskFinancialDocResend 财务单据补发任务
	TaskFinancialDocResend = constants.TaskFinancialDocResend
	// TaskBundleTagRefresh 套餐标签缓存刷新任务
	TaskBundleTagRefresh = constants.TaskBundleTagRefresh
)

// BundleCacheRebuildPayload 目录缓存重建任务载荷
type BundleCacheRebuildPayload struct {
	Reason string `json:"reason"`
}

// EsimConsumptionSyncPayload 用量同步任务载荷
// ProfileID 为 0 时按同步截止时间批量扫描
type EsimConsumptionSyncPayload struct {
	ProfileID uint `json:"profile_id"`
}

// FinancialDocResendPayload 单据补发任务载荷
type FinancialDocResendPayload struct {
	DocumentID uint   `json:"document_id"`
	Email      string `json:"email"`
}

// BundleTagRefreshPayload 标签缓存刷新任务载荷
type BundleTagRefreshPayload struct {
	BundleID uint `json:"bundle_id"`
}

// NewBundleCacheRebuildTask 创建目录缓存重建任务
func NewBundleCacheRebuildTask(payload BundleCacheRebuildPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBundleCacheRebuild, body), nil
}

// NewEsimConsumptionSyncTask 创建用量同步任务
func NewEsimConsumptionSyncTask(payload EsimConsumptionSyncPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEsimConsumptionSync, body), nil
}

// NewFinancialDocResendTask 创建单据补发任务
func NewFinancialDocResendTask(payload FinancialDocResendPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFinancialDocResend, body), nil
}

// NewBundleTagRefreshTask 创建标签缓存刷新任务
func NewBundleTagRefreshTask(payload BundleTagRefreshPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBundleTagRefresh, body), nil
}
