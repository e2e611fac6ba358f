package entities

// RecordRow is the stored shape of a mirrored record. The payload column
// holds the full fetched document as JSON.
type RecordRow struct {
	ID        string  `db:"id"`
	Payload   string  `db:"payload"`
	UpdatedAt *string `db:"updated_at"` // RFC3339, nullable
	FetchedAt int64   `db:"fetched_at"` // unix seconds
}
