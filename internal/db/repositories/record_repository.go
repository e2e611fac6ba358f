package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fieldops/fieldmirror/internal/constants"
	"github.com/fieldops/fieldmirror/internal/logging"
	"github.com/fieldops/fieldmirror/internal/models"
	"github.com/fieldops/fieldmirror/internal/models/entities"
	"github.com/jmoiron/sqlx"
)

const defaultBatchSize = 500

// RecordRepository writes fetched records into the local mirror tables.
type RecordRepository struct {
	db        *sqlx.DB
	batchSize int
}

func NewRecordRepository(db *sqlx.DB, batchSize int) *RecordRepository {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &RecordRepository{db: db, batchSize: batchSize}
}

// Upsert merges records into the resource's table with last-write-wins
// semantics keyed by id. Records are written in fixed-size batches, each in
// its own transaction; a failed batch is rolled back whole and surfaced as a
// StorageError. Records without an id are skipped and counted separately.
func (r *RecordRepository) Upsert(ctx context.Context, resource string, records []models.Record) (processed int, skipped int, err error) {
	table, ok := constants.ResourceTables[resource]
	if !ok {
		return 0, 0, fmt.Errorf("unknown resource %q", resource)
	}
	if len(records) == 0 {
		return 0, 0, nil
	}

	fetchedAt := time.Now().Unix()
	rows := make([]entities.RecordRow, 0, len(records))
	for _, rec := range records {
		if rec.ID == "" {
			skipped++
			continue
		}
		payload, merr := json.Marshal(rec.Payload)
		if merr != nil {
			skipped++
			continue
		}
		row := entities.RecordRow{
			ID:        rec.ID,
			Payload:   string(payload),
			FetchedAt: fetchedAt,
		}
		if rec.UpdatedAt != nil {
			s := rec.UpdatedAt.UTC().Format(time.RFC3339)
			row.UpdatedAt = &s
		}
		rows = append(rows, row)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, payload, updated_at, fetched_at)
		VALUES (:id, :payload, :updated_at, :fetched_at)
		ON CONFLICT (id) DO UPDATE
		SET payload = excluded.payload,
		    updated_at = excluded.updated_at,
		    fetched_at = excluded.fetched_at
	`, table)

	for start := 0; start < len(rows); start += r.batchSize {
		end := start + r.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		if err := r.writeBatch(ctx, query, batch); err != nil {
			return processed, skipped, err
		}
		processed += len(batch)
	}

	if skipped > 0 {
		logging.Warn("Skipped records without id during upsert",
			"resource", resource,
			"skipped", skipped,
		)
	}
	return processed, skipped, nil
}

func (r *RecordRepository) writeBatch(ctx context.Context, query string, batch []entities.RecordRow) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return &StorageError{Op: "begin batch", Err: err}
	}

	if _, err := tx.NamedExecContext(ctx, query, batch); err != nil {
		_ = tx.Rollback()
		return &StorageError{Op: "upsert batch", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &StorageError{Op: "commit batch", Err: err}
	}
	return nil
}

// Count returns the number of mirrored rows for a resource.
func (r *RecordRepository) Count(ctx context.Context, resource string) (int64, error) {
	table, ok := constants.ResourceTables[resource]
	if !ok {
		return 0, fmt.Errorf("unknown resource %q", resource)
	}
	var n int64
	if err := r.db.GetContext(ctx, &n, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)); err != nil {
		return 0, &StorageError{Op: "count records", Err: err}
	}
	return n, nil
}

// GetPayload loads one mirrored record's payload by id.
func (r *RecordRepository) GetPayload(ctx context.Context, resource string, id string) (models.Payload, error) {
	table, ok := constants.ResourceTables[resource]
	if !ok {
		return nil, fmt.Errorf("unknown resource %q", resource)
	}
	var raw string
	query := fmt.Sprintf("SELECT payload FROM %s WHERE id = $1", table)
	if err := r.db.GetContext(ctx, &raw, r.db.Rebind(query), id); err != nil {
		return nil, &StorageError{Op: "get payload", Err: err}
	}
	var p models.Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decode payload for %s/%s: %w", resource, id, err)
	}
	return p, nil
}
