package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/esim-backoffice/internal/logger"
	"github.com/esim-backoffice/internal/provider"
	"github.com/esim-backoffice/internal/queue"
	"github.com/esim-backoffice/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskBundleCacheRebuild, c.handleBundleCacheRebuild)
	mux.HandleFunc(queue.TaskBundleTagRefresh, c.handleBundleTagRefresh)
	mux.HandleFunc(queue.TaskEsimConsumptionSync, c.handleEsimConsumptionSync)
	mux.HandleFunc(queue.TaskFinancialDocResend, c.handleFinancialDocResend)
}

func (c *Consumer) handleBundleCacheRebuild(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_bundle_cache_rebuild_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.BundleCacheRebuildPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_bundle_cache_rebuild_unmarshal_failed", "error", err)
		return err
	}
	if c.BundleAdminService == nil {
		logger.Warnw("worker_bundle_cache_rebuild_skip_service_nil", "reason", payload.Reason)
		return nil
	}
	count, err := c.BundleAdminService.RebuildCatalogCache(ctx)
	if err != nil {
		logger.Warnw("worker_bundle_cache_rebuild_failed", "reason", payload.Reason, "error", err)
		return err
	}
	logger.Infow("worker_bundle_cache_rebuilt", "reason", payload.Reason, "bundles", count)
	return nil
}

func (c *Consumer) handleBundleTagRefresh(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_bundle_tag_refresh_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.BundleTagRefreshPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_bundle_tag_refresh_unmarshal_failed", "error", err)
		return err
	}
	if c.BundleAdminService == nil {
		logger.Warnw("worker_bundle_tag_refresh_skip_service_nil", "bundle_id", payload.BundleID)
		return nil
	}
	tags, err := c.BundleAdminService.RefreshTagCache(ctx)
	if err != nil {
		logger.Warnw("worker_bundle_tag_refresh_failed", "bundle_id", payload.BundleID, "error", err)
		return err
	}
	logger.Infow("worker_bundle_tags_refreshed", "bundle_id", payload.BundleID, "tags", len(tags))
	return nil
}

func (c *Consumer) handleEsimConsumptionSync(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_esim_consumption_sync_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.EsimConsumptionSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_esim_consumption_sync_unmarshal_failed", "error", err)
		return err
	}
	if c.EsimService == nil {
		logger.Warnw("worker_esim_consumption_sync_skip_service_nil", "profile_id", payload.ProfileID)
		return nil
	}
	if payload.ProfileID == 0 {
		cutoff := time.Now().Add(-c.staleConsumptionWindow())
		synced, err := c.EsimService.SyncStaleProfiles(cutoff)
		if err != nil {
			logger.Warnw("worker_esim_consumption_sweep_failed", "error", err)
			return err
		}
		logger.Infow("worker_esim_consumption_sweep_done", "synced", synced)
		return nil
	}
	if err := c.EsimService.SyncConsumption(payload.ProfileID); err != nil {
		switch {
		case errors.Is(err, service.ErrEsimProfileNotFound):
			logger.Debugw("worker_esim_consumption_sync_skip_profile_not_found", "profile_id", payload.ProfileID)
			return nil
		default:
			logger.Warnw("worker_esim_consumption_sync_failed", "profile_id", payload.ProfileID, "error", err)
			return err
		}
	}
	logger.Infow("worker_esim_consumption_synced", "profile_id", payload.ProfileID)
	return nil
}

func (c *Consumer) handleFinancialDocResend(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_financial_doc_resend_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.FinancialDocResendPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_financial_doc_resend_unmarshal_failed", "error", err)
		return err
	}
	if payload.DocumentID == 0 || strings.TrimSpace(payload.Email) == "" {
		logger.Debugw("worker_financial_doc_resend_skip_invalid_payload",
			"document_id", payload.DocumentID,
			"email_empty", strings.TrimSpace(payload.Email) == "",
		)
		return nil
	}
	if c.FinancialService == nil {
		logger.Warnw("worker_financial_doc_resend_skip_service_nil", "document_id", payload.DocumentID)
		return nil
	}
	doc, err := c.FinancialService.GetDocument(payload.DocumentID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFinancialDocNotFound):
			logger.Debugw("worker_financial_doc_resend_skip_not_found", "document_id", payload.DocumentID)
			return nil
		default:
			logger.Warnw("worker_financial_doc_resend_fetch_failed", "document_id", payload.DocumentID, "error", err)
			return err
		}
	}
	if err := c.FinancialService.DeliverDocument(doc, payload.Email); err != nil {
		logger.Warnw("worker_financial_doc_resend_failed",
			"document_id", doc.ID,
			"document_no", doc.DocumentNo,
			"error", err,
		)
		return err
	}
	logger.Infow("worker_financial_doc_resent",
		"document_id", doc.ID,
		"document_no", doc.DocumentNo,
		"receiver_email", payload.Email,
	)
	return nil
}

func (c *Consumer) staleConsumptionWindow() time.Duration {
	minutes := 360
	if c != nil && c.Config != nil && c.Config.Esim.SyncStaleMinutes > 0 {
		minutes = c.Config.Esim.SyncStaleMinutes
	}
	return time.Duration(minutes) * time.Minute
}
