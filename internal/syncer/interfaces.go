package syncer

import (
	"context"

	"github.com/fieldops/fieldmirror/internal/models"
	gormModels "github.com/fieldops/fieldmirror/internal/models/gorm"
)

// RecordWriter merges fetched records into the local mirror.
// Implemented by repositories.RecordRepository.
type RecordWriter interface {
	Upsert(ctx context.Context, resource string, records []models.Record) (processed int, skipped int, err error)
}

// StateStore persists the per-resource sync high-water mark.
// Implemented by repositories.SyncStateRepo.
type StateStore interface {
	GetLastSync(ctx context.Context, resource string) (*gormModels.SyncState, error)
	UpdateSyncState(ctx context.Context, state *gormModels.SyncState) error
}

// JobTracker records run progress rows. Implemented by
// repositories.SyncJobRepo; a nil tracker disables progress tracking.
type JobTracker interface {
	Create(ctx context.Context, kind string) (string, error)
	UpdateProgress(ctx context.Context, jobID string, processed int64, currentPage int) error
	Finish(ctx context.Context, jobID string, status string) error
	HasRunningJob(ctx context.Context, kind string) (bool, error)
}
