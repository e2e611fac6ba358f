package db

import (
	"fmt"

	"github.com/fieldops/fieldmirror/internal/constants"
	"github.com/jmoiron/sqlx"
)

// One table per mirrored resource, all with the same opaque-payload layout.
const resourceTableDDL = `
CREATE TABLE IF NOT EXISTS %s (
	id         TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at TEXT,
	fetched_at BIGINT NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

const syncStateDDL = `
CREATE TABLE IF NOT EXISTS sync_state (
	resource        TEXT PRIMARY KEY,
	last_updated_at TIMESTAMP,
	last_id         BIGINT,
	total_records   BIGINT DEFAULT 0,
	sync_type       TEXT,
	synced_at       TIMESTAMP,
	created_at      TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at      TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

const syncJobsDDL = `
CREATE TABLE IF NOT EXISTS sync_jobs (
	job_id       TEXT PRIMARY KEY,
	kind         TEXT NOT NULL,
	status       TEXT NOT NULL,
	processed    BIGINT DEFAULT 0,
	total        BIGINT,
	current_page INTEGER DEFAULT 0,
	started_at   TIMESTAMP,
	finished_at  TIMESTAMP,
	updated_at   TIMESTAMP
)`

// InitSchema creates the mirror tables if they do not exist.
func InitSchema(db *sqlx.DB) error {
	for _, table := range constants.ResourceTables {
		if _, err := db.Exec(fmt.Sprintf(resourceTableDDL, table)); err != nil {
			return fmt.Errorf("create table %s: %w", table, err)
		}
		idx := fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_updated_at ON %s (updated_at)", table, table)
		if _, err := db.Exec(idx); err != nil {
			return fmt.Errorf("create index on %s: %w", table, err)
		}
	}

	if _, err := db.Exec(syncStateDDL); err != nil {
		return fmt.Errorf("create sync_state: %w", err)
	}
	if _, err := db.Exec(syncJobsDDL); err != nil {
		return fmt.Errorf("create sync_jobs: %w", err)
	}
	if _, err := db.Exec("CREATE INDEX IF NOT EXISTS idx_sync_jobs_status ON sync_jobs (status, kind)"); err != nil {
		return fmt.Errorf("create index on sync_jobs: %w", err)
	}
	return nil
}
