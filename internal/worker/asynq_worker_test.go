package worker

import (
	"context"
	"testing"
	"time"

	"github.com/esim-backoffice/internal/config"
	"github.com/esim-backoffice/internal/provider"
	"github.com/esim-backoffice/internal/queue"

	"github.com/hibiken/asynq"
)

func TestStaleConsumptionWindowDefault(t *testing.T) {
	consumer := NewConsumer(&provider.Container{})
	if got := consumer.staleConsumptionWindow(); got != 360*time.Minute {
		t.Fatalf("default window want 360m got %v", got)
	}
}

func TestStaleConsumptionWindowFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Esim.SyncStaleMinutes = 45
	consumer := NewConsumer(&provider.Container{Config: cfg})
	if got := consumer.staleConsumptionWindow(); got != 45*time.Minute {
		t.Fatalf("configured window want 45m got %v", got)
	}
}

func TestHandleBundleCacheRebuildBadPayload(t *testing.T) {
	consumer := NewConsumer(&provider.Container{})
	task := asynq.NewTask(queue.TaskBundleCacheRebuild, []byte("{not json"))
	if err := consumer.handleBundleCacheRebuild(context.Background(), task); err == nil {
		t.Fatalf("malformed payload should be reported")
	}
}

func TestHandleBundleCacheRebuildSkipsWithoutService(t *testing.T) {
	consumer := NewConsumer(&provider.Container{})
	task := asynq.NewTask(queue.TaskBundleCacheRebuild, []byte(`{"reason":"test"}`))
	if err := consumer.handleBundleCacheRebuild(context.Background(), task); err != nil {
		t.Fatalf("missing service should be skipped, got %v", err)
	}
}

func TestHandleFinancialDocResendSkipsInvalidPayload(t *testing.T) {
	consumer := NewConsumer(&provider.Container{})

	task := asynq.NewTask(queue.TaskFinancialDocResend, []byte(`{"document_id":0,"email":""}`))
	if err := consumer.handleFinancialDocResend(context.Background(), task); err != nil {
		t.Fatalf("empty payload should be skipped, got %v", err)
	}

	task = asynq.NewTask(queue.TaskFinancialDocResend, []byte(`{"document_id":5,"email":"   "}`))
	if err := consumer.handleFinancialDocResend(context.Background(), task); err != nil {
		t.Fatalf("blank email should be skipped, got %v", err)
	}
}

func TestHandleEsimConsumptionSyncSkipsWithoutService(t *testing.T) {
	consumer := NewConsumer(&provider.Container{})
	task := asynq.NewTask(queue.TaskEsimConsumptionSync, []byte(`{"profile_id":7}`))
	if err := consumer.handleEsimConsumptionSync(context.Background(), task); err != nil {
		t.Fatalf("missing service should be skipped, got %v", err)
	}
}

func TestConsumerNilSafety(t *testing.T) {
	var consumer *Consumer
	consumer.Register(asynq.NewServeMux())
	if err := consumer.handleBundleTagRefresh(context.Background(), nil); err != nil {
		t.Fatalf("nil consumer should be a no-op, got %v", err)
	}
}
