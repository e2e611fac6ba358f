package gorm

import "time"

// SyncState is the per-resource high-water mark of the last fully completed
// sync run. One row per resource, replaced wholesale at each commit point.
type SyncState struct {
	Resource      string     `gorm:"column:resource;primaryKey" json:"resource"`
	LastUpdatedAt *time.Time `gorm:"column:last_updated_at" json:"last_updated_at,omitempty"`
	LastID        *int64     `gorm:"column:last_id" json:"last_id,omitempty"`
	TotalRecords  int64      `gorm:"column:total_records;default:0" json:"total_records"`
	SyncType      string     `gorm:"column:sync_type" json:"sync_type"`
	SyncedAt      time.Time  `gorm:"column:synced_at" json:"synced_at"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (SyncState) TableName() string {
	return "sync_state"
}
