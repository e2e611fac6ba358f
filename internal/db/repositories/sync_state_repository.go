package repositories

import (
	"context"

	gormModels "github.com/fieldops/fieldmirror/internal/models/gorm"
	gormlib "gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SyncStateRepo handles the sync_state table, one row per resource.
type SyncStateRepo struct {
	db *gormlib.DB
}

func NewSyncStateRepo(db *gormlib.DB) *SyncStateRepo {
	return &SyncStateRepo{db: db}
}

// GetLastSync returns the committed state for a resource, or nil when the
// resource has never completed a run.
func (r *SyncStateRepo) GetLastSync(ctx context.Context, resource string) (*gormModels.SyncState, error) {
	var state gormModels.SyncState

	err := r.db.WithContext(ctx).
		Where("resource = ?", resource).
		First(&state).Error

	if err != nil {
		if err == gormlib.ErrRecordNotFound {
			return nil, nil
		}
		return nil, &StorageError{Op: "get sync state", Err: err}
	}
	return &state, nil
}

// UpdateSyncState commits the state row for a resource, replacing any prior
// row. This is the commit point of a sync run and must be its last action.
func (r *SyncStateRepo) UpdateSyncState(ctx context.Context, state *gormModels.SyncState) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "resource"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"last_updated_at", "last_id", "total_records",
				"sync_type", "synced_at", "updated_at",
			}),
		}).
		Create(state).Error

	if err != nil {
		return &StorageError{Op: "update sync state", Err: err}
	}
	return nil
}

// ListAll returns sync state for every resource that has completed a run.
func (r *SyncStateRepo) ListAll(ctx context.Context) ([]gormModels.SyncState, error) {
	var states []gormModels.SyncState
	if err := r.db.WithContext(ctx).Order("resource").Find(&states).Error; err != nil {
		return nil, &StorageError{Op: "list sync state", Err: err}
	}
	return states, nil
}
