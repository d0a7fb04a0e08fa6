package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/esim-backoffice/internal/constants"
	"github.com/esim-backoffice/internal/models"
	"github.com/esim-backoffice/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type fakeConsumptionProvider struct {
	usage map[string]int64
	fail  map[string]bool
	calls int
}

func (f *fakeConsumptionProvider) FetchConsumption(iccid string) (int64, error) {
	f.calls++
	if f.fail[iccid] {
		return 0, errors.New("provider unavailable")
	}
	return f.usage[iccid], nil
}

func setupEsimServiceTest(t *testing.T, provider ConsumptionProvider) (*EsimService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.EsimProfile{}); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	models.DB = db
	return NewEsimService(repository.NewEsimProfileRepository(db), nil, provider), db
}

func seedProfile(t *testing.T, db *gorm.DB, iccid, status string, lastSynced *time.Time) *models.EsimProfile {
	t.Helper()
	profile := models.EsimProfile{
		ICCID:        iccid,
		Status:       status,
		LastSyncedAt: lastSynced,
	}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("create profile failed: %v", err)
	}
	return &profile
}

func TestSyncConsumption(t *testing.T) {
	provider := &fakeConsumptionProvider{usage: map[string]int64{"8988001": 2048}}
	svc, db := setupEsimServiceTest(t, provider)
	profile := seedProfile(t, db, "8988001", constants.EsimProfileStatusEnabled, nil)

	if err := svc.SyncConsumption(profile.ID); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	var got models.EsimProfile
	if err := db.First(&got, profile.ID).Error; err != nil {
		t.Fatalf("reload profile failed: %v", err)
	}
	if got.DataUsedMB != 2048 {
		t.Fatalf("data_used_mb want 2048 got %d", got.DataUsedMB)
	}
	if got.LastSyncedAt == nil {
		t.Fatalf("last_synced_at should be set")
	}

	if err := svc.SyncConsumption(9999); !errors.Is(err, ErrEsimProfileNotFound) {
		t.Fatalf("missing profile want ErrEsimProfileNotFound got %v", err)
	}
}

func TestSyncConsumptionProviderError(t *testing.T) {
	provider := &fakeConsumptionProvider{fail: map[string]bool{"8988002": true}}
	svc, db := setupEsimServiceTest(t, provider)
	profile := seedProfile(t, db, "8988002", constants.EsimProfileStatusEnabled, nil)

	if err := svc.SyncConsumption(profile.ID); !errors.Is(err, ErrEsimProfileSyncFailed) {
		t.Fatalf("provider failure want ErrEsimProfileSyncFailed got %v", err)
	}
}

func TestRequestConsumptionSyncWithoutQueue(t *testing.T) {
	provider := &fakeConsumptionProvider{usage: map[string]int64{"8988003": 512}}
	svc, db := setupEsimServiceTest(t, provider)
	profile := seedProfile(t, db, "8988003", constants.EsimProfileStatusInstalled, nil)

	// 队列未启用时退化为同步拉取
	if err := svc.RequestConsumptionSync(profile.ID); err != nil {
		t.Fatalf("request sync failed: %v", err)
	}
	if provider.calls != 1 {
		t.Fatalf("provider calls want 1 got %d", provider.calls)
	}
}

func TestSyncStaleProfiles(t *testing.T) {
	provider := &fakeConsumptionProvider{
		usage: map[string]int64{"8988010": 100, "8988011": 200},
		fail:  map[string]bool{"8988012": true},
	}
	svc, db := setupEsimServiceTest(t, provider)

	old := time.Now().Add(-12 * time.Hour)
	fresh := time.Now()
	seedProfile(t, db, "8988010", constants.EsimProfileStatusEnabled, &old)
	seedProfile(t, db, "8988011", constants.EsimProfileStatusInstalled, nil)
	seedProfile(t, db, "8988012", constants.EsimProfileStatusEnabled, &old)
	// 状态或同步时间不满足条件的不参与
	seedProfile(t, db, "8988013", constants.EsimProfileStatusEnabled, &fresh)
	seedProfile(t, db, "8988014", constants.EsimProfileStatusDeleted, &old)

	synced, err := svc.SyncStaleProfiles(time.Now().Add(-6 * time.Hour))
	if err != nil {
		t.Fatalf("sync stale failed: %v", err)
	}
	if synced != 2 {
		t.Fatalf("synced want 2 got %d", synced)
	}
	if provider.calls != 3 {
		t.Fatalf("provider calls want 3 got %d", provider.calls)
	}

	var got models.EsimProfile
	if err := db.Where("iccid = ?", "8988010").First(&got).Error; err != nil {
		t.Fatalf("reload profile failed: %v", err)
	}
	if got.DataUsedMB != 100 {
		t.Fatalf("data_used_mb want 100 got %d", got.DataUsedMB)
	}
}
