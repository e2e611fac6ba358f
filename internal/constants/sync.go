package constants

// Sync run types recorded in the sync_state table
const (
	SyncTypeBackfill    = "backfill"
	SyncTypeIncremental = "incremental"
)

// Sync job kinds and statuses for the sync_jobs table
const (
	JobKindBackfill = "backfill"
	JobKindDelta    = "delta"

	JobStatusRunning   = "running"
	JobStatusSuccess   = "success"
	JobStatusError     = "error"
	JobStatusCancelled = "cancelled"
)

// Remote filter keys understood by the upstream client
const (
	FilterUpdatedSince  = "updatedSince"
	FilterIDGreaterThan = "idGreaterThan"
	FilterCreatedSince  = "createdSince"
	FilterCreatedUntil  = "createdUntil"
	FilterPageSize      = "pageSize"
)

type APIStatus string

const (
	APIStatusOk    APIStatus = "ok"
	APIStatusError APIStatus = "error"
)
