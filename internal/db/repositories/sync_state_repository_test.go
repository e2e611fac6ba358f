package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/fieldops/fieldmirror/internal/constants"
	gormModels "github.com/fieldops/fieldmirror/internal/models/gorm"
	"gorm.io/driver/sqlite"
	gormlib "gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestORM(t *testing.T) *gormlib.DB {
	t.Helper()
	orm, err := gormlib.Open(sqlite.Open(":memory:"), &gormlib.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open gorm sqlite: %v", err)
	}
	if err := orm.AutoMigrate(&gormModels.SyncState{}, &gormModels.SyncJob{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return orm
}

func TestGetLastSyncMissing(t *testing.T) {
	repo := NewSyncStateRepo(openTestORM(t))

	state, err := repo.GetLastSync(context.Background(), constants.ResourceOrders)
	if err != nil {
		t.Fatalf("GetLastSync: %v", err)
	}
	if state != nil {
		t.Errorf("state = %+v, want nil for a never-synced resource", state)
	}
}

func TestUpdateSyncStateUpsertsByResource(t *testing.T) {
	repo := NewSyncStateRepo(openTestORM(t))
	ctx := context.Background()

	first := &gormModels.SyncState{
		Resource:     constants.ResourceOrders,
		TotalRecords: 10,
		SyncType:     constants.SyncTypeBackfill,
		SyncedAt:     time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := repo.UpdateSyncState(ctx, first); err != nil {
		t.Fatalf("UpdateSyncState: %v", err)
	}

	ua := time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)
	id := int64(42)
	second := &gormModels.SyncState{
		Resource:      constants.ResourceOrders,
		LastUpdatedAt: &ua,
		LastID:        &id,
		TotalRecords:  15,
		SyncType:      constants.SyncTypeIncremental,
		SyncedAt:      time.Date(2025, 4, 2, 1, 0, 0, 0, time.UTC),
	}
	if err := repo.UpdateSyncState(ctx, second); err != nil {
		t.Fatalf("UpdateSyncState replay: %v", err)
	}

	states, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(states) != 1 {
		t.Fatalf("rows = %d, want exactly one per resource", len(states))
	}

	got, _ := repo.GetLastSync(ctx, constants.ResourceOrders)
	if got.TotalRecords != 15 {
		t.Errorf("TotalRecords = %d, want 15", got.TotalRecords)
	}
	if got.SyncType != constants.SyncTypeIncremental {
		t.Errorf("SyncType = %q, want incremental", got.SyncType)
	}
	if got.LastID == nil || *got.LastID != 42 {
		t.Errorf("LastID = %v, want 42", got.LastID)
	}
}

func TestListAllOrdersByResource(t *testing.T) {
	repo := NewSyncStateRepo(openTestORM(t))
	ctx := context.Background()

	for _, resource := range []string{constants.ResourceTechnicians, constants.ResourceEquipments} {
		if err := repo.UpdateSyncState(ctx, &gormModels.SyncState{
			Resource: resource,
			SyncType: constants.SyncTypeBackfill,
			SyncedAt: time.Now(),
		}); err != nil {
			t.Fatalf("UpdateSyncState(%s): %v", resource, err)
		}
	}

	states, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(states) != 2 || states[0].Resource != constants.ResourceEquipments {
		t.Errorf("states = %+v, want sorted by resource", states)
	}
}
