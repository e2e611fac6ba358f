package providers

import "context"

// DataProvider defines the interface to the upstream field-service API.
// Implementations must classify failures through ProviderError so the sync
// engine can branch on error kind.
type DataProvider interface {
	// FetchPage fetches one page of a resource. Pages start at 1. Filter
	// keys are the ones in internal/constants (updatedSince, idGreaterThan,
	// createdSince, createdUntil, pageSize).
	FetchPage(ctx context.Context, resource string, filters map[string]any, page int) (*PageResult, error)
}

// PageResult is one fetched page of raw documents
type PageResult struct {
	Records    []map[string]any // raw documents as returned by the API
	HasNext    bool             // whether the server reports a further page
	TotalCount int              // server-reported total matching records, 0 if unknown
}
