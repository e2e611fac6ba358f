package syncer

import (
	"context"
	"time"

	"github.com/fieldops/fieldmirror/internal/logging"
)

// StalenessPolicy is the single place that decides whether a resource's
// mirror is fresh enough to serve.
type StalenessPolicy struct {
	state StateStore
	now   func() time.Time
}

func NewStalenessPolicy(state StateStore) *StalenessPolicy {
	return &StalenessPolicy{state: state, now: time.Now}
}

// ShouldSync reports whether an incremental run is due: true when the
// resource has never synced or its last commit is older than maxAge. A
// state read failure fails open so a transient store error triggers a safe
// re-sync instead of serving stale data forever.
func (p *StalenessPolicy) ShouldSync(ctx context.Context, resource string, maxAge time.Duration) bool {
	state, err := p.state.GetLastSync(ctx, resource)
	if err != nil {
		logging.Warn("Staleness check failed, forcing sync",
			"resource", resource,
			"error", err.Error(),
		)
		return true
	}
	if state == nil {
		return true
	}
	return p.now().Sub(state.SyncedAt) > maxAge
}
