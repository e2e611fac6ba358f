package common

import "time"

// CacheInterface fronts the short-lived read cache over sync status
// lookups. The in-memory implementation is the single-node default; the
// redis one is for deployments where several instances share one mirror.
type CacheInterface interface {
	// Set stores a value under key for the given duration
	Set(key string, value interface{}, duration time.Duration)

	// Get retrieves a value by key
	// Returns the value and true if found, nil and false otherwise
	Get(key string) (interface{}, bool)

	// Delete evicts a key, used to invalidate status reads after a sync run starts
	Delete(key string)

	// GetOrSet returns the cached value, or loads and caches it when missing
	GetOrSet(key string, duration time.Duration, loader func() (any, error)) (interface{}, error)

	// Close releases any underlying connections (redis)
	Close() error
}
