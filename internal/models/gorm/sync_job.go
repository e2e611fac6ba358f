package gorm

import "time"

// SyncJob tracks the progress of one backfill or delta run so status
// endpoints can show what a long-running sync is doing.
type SyncJob struct {
	JobID       string     `gorm:"column:job_id;primaryKey" json:"job_id"`
	Kind        string     `gorm:"column:kind;index" json:"kind"`
	Status      string     `gorm:"column:status;index" json:"status"`
	Processed   int64      `gorm:"column:processed;default:0" json:"processed"`
	Total       *int64     `gorm:"column:total" json:"total,omitempty"`
	CurrentPage int        `gorm:"column:current_page;default:0" json:"current_page"`
	StartedAt   time.Time  `gorm:"column:started_at" json:"started_at"`
	FinishedAt  *time.Time `gorm:"column:finished_at" json:"finished_at,omitempty"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (SyncJob) TableName() string {
	return "sync_jobs"
}
