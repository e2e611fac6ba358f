package syncer

import (
	"time"

	"github.com/fieldops/fieldmirror/internal/models"
	gormModels "github.com/fieldops/fieldmirror/internal/models/gorm"
)

// Cursor is the (LastUpdatedAt, LastID) high-water mark of a sync run.
// Either field may be absent; merges never move a field backwards.
type Cursor struct {
	UpdatedAt *time.Time
	ID        *int64
}

// CursorFromState lifts the cursor fields out of a committed sync state.
func CursorFromState(state *gormModels.SyncState) Cursor {
	if state == nil {
		return Cursor{}
	}
	return Cursor{UpdatedAt: state.LastUpdatedAt, ID: state.LastID}
}

// CursorFromRecords computes max(UpdatedAt) and max(numeric ID) over a batch.
func CursorFromRecords(records []models.Record) Cursor {
	var c Cursor
	for _, rec := range records {
		if rec.UpdatedAt != nil && (c.UpdatedAt == nil || rec.UpdatedAt.After(*c.UpdatedAt)) {
			t := *rec.UpdatedAt
			c.UpdatedAt = &t
		}
		if n, ok := rec.NumericID(); ok && (c.ID == nil || n > *c.ID) {
			id := n
			c.ID = &id
		}
	}
	return c
}

// Merge returns the max of both cursors field by field. An absent field on
// one side takes the other side's value, so an empty batch never regresses
// a previously committed cursor.
func (c Cursor) Merge(other Cursor) Cursor {
	out := c
	if other.UpdatedAt != nil && (out.UpdatedAt == nil || other.UpdatedAt.After(*out.UpdatedAt)) {
		out.UpdatedAt = other.UpdatedAt
	}
	if other.ID != nil && (out.ID == nil || *other.ID > *out.ID) {
		out.ID = other.ID
	}
	return out
}
