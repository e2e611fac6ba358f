package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fieldops/fieldmirror/internal/config"
	"github.com/fieldops/fieldmirror/internal/constants"
	"github.com/fieldops/fieldmirror/internal/logging"
	gormModels "github.com/fieldops/fieldmirror/internal/models/gorm"
)

// ErrSyncInProgress is returned when a run of the same kind is already running.
var ErrSyncInProgress = errors.New("a sync job of this kind is already running")

// Orchestrator sequences sync runs across resources with inter-resource
// pacing. A failure on one resource is recorded and does not abort the
// others; per-resource errors come back joined alongside the counts.
type Orchestrator struct {
	backfill *BackfillEngine
	delta    *DeltaEngine
	state    StateStore
	jobs     JobTracker
	policy   *StalenessPolicy
	cfg      config.SyncConfig
}

func NewOrchestrator(
	backfill *BackfillEngine,
	delta *DeltaEngine,
	state StateStore,
	jobs JobTracker,
	cfg config.SyncConfig,
) *Orchestrator {
	return &Orchestrator{
		backfill: backfill,
		delta:    delta,
		state:    state,
		jobs:     jobs,
		policy:   NewStalenessPolicy(state),
		cfg:      cfg,
	}
}

// RunBackfill performs a full reload of the given resources (all known
// resources when the list is empty).
func (o *Orchestrator) RunBackfill(ctx context.Context, resources []string, opts RunOptions) (map[string]int, error) {
	return o.run(ctx, resources, opts, constants.JobKindBackfill, func(ctx context.Context, resource string, opts RunOptions) (int, error) {
		return o.backfill.Sync(ctx, resource, opts)
	})
}

// RunIncremental performs a delta sync of the given resources.
func (o *Orchestrator) RunIncremental(ctx context.Context, resources []string, opts RunOptions) (map[string]int, error) {
	return o.run(ctx, resources, opts, constants.JobKindDelta, func(ctx context.Context, resource string, opts RunOptions) (int, error) {
		return o.delta.Sync(ctx, resource, opts)
	})
}

// Run picks the strategy per resource: backfill when the resource has no
// committed state yet (or force is set), incremental otherwise. This is the
// scheduler's entry point. The job row carries the kind actually chosen so
// the running-job guard blocks a concurrent manual run of the same kind.
func (o *Orchestrator) Run(ctx context.Context, resources []string, force bool, opts RunOptions) (map[string]int, error) {
	kind := o.chooseKind(ctx, resources, force)
	return o.run(ctx, resources, opts, kind, func(ctx context.Context, resource string, opts RunOptions) (int, error) {
		if force {
			return o.backfill.Sync(ctx, resource, opts)
		}
		prev, err := o.state.GetLastSync(ctx, resource)
		if err != nil {
			return 0, err
		}
		if prev == nil {
			return o.backfill.Sync(ctx, resource, opts)
		}
		return o.delta.Sync(ctx, resource, opts)
	})
}

// chooseKind resolves the job kind Run will record: backfill when forced or
// when any requested resource has never committed state, delta otherwise.
func (o *Orchestrator) chooseKind(ctx context.Context, resources []string, force bool) string {
	if force {
		return constants.JobKindBackfill
	}
	if len(resources) == 0 {
		resources = constants.AllResources
	}
	for _, resource := range resources {
		if !constants.IsKnownResource(resource) {
			continue
		}
		prev, err := o.state.GetLastSync(ctx, resource)
		if err == nil && prev == nil {
			return constants.JobKindBackfill
		}
	}
	return constants.JobKindDelta
}

// ShouldSync exposes the staleness policy to read paths.
func (o *Orchestrator) ShouldSync(ctx context.Context, resource string, maxAge time.Duration) bool {
	return o.policy.ShouldSync(ctx, resource, maxAge)
}

// GetSyncInfo returns the committed sync state for observability.
func (o *Orchestrator) GetSyncInfo(ctx context.Context, resource string) (*gormModels.SyncState, bool) {
	state, err := o.state.GetLastSync(ctx, resource)
	if err != nil || state == nil {
		return nil, false
	}
	return state, true
}

type resourceSync func(ctx context.Context, resource string, opts RunOptions) (int, error)

func (o *Orchestrator) run(ctx context.Context, resources []string, opts RunOptions, kind string, syncOne resourceSync) (map[string]int, error) {
	if len(resources) == 0 {
		resources = constants.AllResources
	}

	results := make(map[string]int, len(resources))
	var errs []error

	if o.jobs != nil {
		running, err := o.jobs.HasRunningJob(ctx, kind)
		if err != nil {
			logging.Warn("Running-job check failed, continuing", "kind", kind, "error", err.Error())
		} else if running {
			return nil, ErrSyncInProgress
		}
		jobID, err := o.jobs.Create(ctx, kind)
		if err != nil {
			logging.Warn("Failed to create sync job row", "kind", kind, "error", err.Error())
		} else {
			opts.JobID = jobID
			defer func() {
				status := constants.JobStatusSuccess
				switch {
				case ctx.Err() != nil:
					status = constants.JobStatusCancelled
				case len(errs) > 0:
					status = constants.JobStatusError
				}
				if err := o.jobs.Finish(context.WithoutCancel(ctx), jobID, status); err != nil {
					logging.Warn("Failed to finish sync job row", "job_id", jobID, "error", err.Error())
				}
			}()
		}
	}

	for i, resource := range resources {
		if !constants.IsKnownResource(resource) {
			errs = append(errs, fmt.Errorf("%s: unknown resource", resource))
			continue
		}
		if i > 0 && o.cfg.ResourcePause > 0 {
			select {
			case <-time.After(o.cfg.ResourcePause):
			case <-ctx.Done():
				return results, errors.Join(append(errs, ctx.Err())...)
			}
		}

		n, err := syncOne(ctx, resource, opts)
		results[resource] = n
		if err != nil {
			logging.Error("Resource sync failed",
				"resource", resource,
				"kind", kind,
				"error", err.Error(),
			)
			errs = append(errs, fmt.Errorf("%s: %w", resource, err))
			if ctx.Err() != nil {
				break
			}
		}
	}

	return results, errors.Join(errs...)
}
