package repositories

import (
	"context"
	"time"

	"github.com/fieldops/fieldmirror/internal/constants"
	gormModels "github.com/fieldops/fieldmirror/internal/models/gorm"
	"github.com/google/uuid"
	gormlib "gorm.io/gorm"
)

// SyncJobRepo tracks per-run progress rows in the sync_jobs table.
type SyncJobRepo struct {
	db *gormlib.DB
}

func NewSyncJobRepo(db *gormlib.DB) *SyncJobRepo {
	return &SyncJobRepo{db: db}
}

// Create inserts a new running job and returns its id.
func (r *SyncJobRepo) Create(ctx context.Context, kind string) (string, error) {
	now := time.Now()
	job := gormModels.SyncJob{
		JobID:     kind + "-" + uuid.NewString(),
		Kind:      kind,
		Status:    constants.JobStatusRunning,
		StartedAt: now,
		UpdatedAt: now,
	}
	if err := r.db.WithContext(ctx).Create(&job).Error; err != nil {
		return "", &StorageError{Op: "create sync job", Err: err}
	}
	return job.JobID, nil
}

// UpdateProgress bumps the processed count and current page of a running job.
func (r *SyncJobRepo) UpdateProgress(ctx context.Context, jobID string, processed int64, currentPage int) error {
	err := r.db.WithContext(ctx).
		Model(&gormModels.SyncJob{}).
		Where("job_id = ? AND status = ?", jobID, constants.JobStatusRunning).
		Updates(map[string]interface{}{
			"processed":    processed,
			"current_page": currentPage,
			"updated_at":   time.Now(),
		}).Error

	if err != nil {
		return &StorageError{Op: "update sync job", Err: err}
	}
	return nil
}

// Finish marks a job as success, error or cancelled.
func (r *SyncJobRepo) Finish(ctx context.Context, jobID string, status string) error {
	now := time.Now()
	err := r.db.WithContext(ctx).
		Model(&gormModels.SyncJob{}).
		Where("job_id = ?", jobID).
		Updates(map[string]interface{}{
			"status":      status,
			"finished_at": now,
			"updated_at":  now,
		}).Error

	if err != nil {
		return &StorageError{Op: "finish sync job", Err: err}
	}
	return nil
}

// HasRunningJob reports whether a job of the given kind is currently running.
func (r *SyncJobRepo) HasRunningJob(ctx context.Context, kind string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&gormModels.SyncJob{}).
		Where("kind = ? AND status = ?", kind, constants.JobStatusRunning).
		Count(&count).Error

	if err != nil {
		return false, &StorageError{Op: "check running job", Err: err}
	}
	return count > 0, nil
}

// Recent returns the most recently started jobs.
func (r *SyncJobRepo) Recent(ctx context.Context, limit int) ([]gormModels.SyncJob, error) {
	if limit <= 0 {
		limit = 20
	}
	var jobs []gormModels.SyncJob
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&jobs).Error

	if err != nil {
		return nil, &StorageError{Op: "list sync jobs", Err: err}
	}
	return jobs, nil
}

// SweepOrphaned marks running jobs whose last update is older than the
// cutoff as failed. Crashed runs leave such rows behind; sweeping them lets
// the running-job guard recover.
func (r *SyncJobRepo) SweepOrphaned(ctx context.Context, cutoff time.Duration) (int64, error) {
	deadline := time.Now().Add(-cutoff)
	res := r.db.WithContext(ctx).
		Model(&gormModels.SyncJob{}).
		Where("status = ? AND updated_at < ?", constants.JobStatusRunning, deadline).
		Updates(map[string]interface{}{
			"status":      constants.JobStatusError,
			"finished_at": time.Now(),
			"updated_at":  time.Now(),
		})

	if res.Error != nil {
		return 0, &StorageError{Op: "sweep orphaned jobs", Err: res.Error}
	}
	return res.RowsAffected, nil
}
