package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/fieldops/fieldmirror/internal/config"
	"github.com/fieldops/fieldmirror/internal/constants"
	"github.com/fieldops/fieldmirror/internal/db/repositories"
	"github.com/fieldops/fieldmirror/internal/logging"
	"github.com/fieldops/fieldmirror/internal/syncer"

	"github.com/robfig/cron/v3"
)

// Scheduler drives periodic incremental syncs. On startup it sweeps
// sync job rows orphaned by a previous crash and, if the mirror is
// stale, kicks off an immediate run before the cron cadence takes over.
type Scheduler struct {
	orch    *syncer.Orchestrator
	jobRepo *repositories.SyncJobRepo
	cfg     config.SyncConfig
	cron    *cron.Cron
	cronCfg config.CronConfig
	baseCtx context.Context
}

func NewScheduler(
	baseCtx context.Context,
	orch *syncer.Orchestrator,
	jobRepo *repositories.SyncJobRepo,
	cfg config.SyncConfig,
	cronCfg config.CronConfig,
) *Scheduler {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &Scheduler{
		orch:    orch,
		jobRepo: jobRepo,
		cfg:     cfg,
		cron:    cron.New(),
		cronCfg: cronCfg,
		baseCtx: baseCtx,
	}
}

// Start registers the cron entry and runs startup housekeeping. It
// returns after scheduling; the initial catch-up run happens in the
// background so server startup is not blocked by a slow upstream.
func (s *Scheduler) Start() error {
	swept, err := s.jobRepo.SweepOrphaned(s.baseCtx, s.cfg.OrphanedJobCutoff)
	if err != nil {
		logging.Warn("Failed to sweep orphaned sync jobs", "error", err.Error())
	} else if swept > 0 {
		logging.Info("Swept orphaned sync jobs", "count", swept)
	}

	if !s.cronCfg.Enabled {
		logging.Info("Scheduled sync disabled by config")
		return nil
	}

	if _, err := s.cron.AddFunc(s.cronCfg.Schedule, func() {
		s.runOnce("scheduled")
	}); err != nil {
		return err
	}

	go func() {
		if s.shouldRunInitialSync() {
			s.runOnce("initial")
		}
	}()

	s.cron.Start()
	logging.Info("Scheduled sync started", "schedule", s.cronCfg.Schedule)
	return nil
}

// Stop halts the cron loop and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logging.Info("Scheduled sync stopped")
}

// shouldRunInitialSync reports whether any resource is stale enough to
// warrant a catch-up run right away instead of waiting for the first tick.
func (s *Scheduler) shouldRunInitialSync() bool {
	for _, resource := range constants.AllResources {
		if s.orch.ShouldSync(s.baseCtx, resource, s.cfg.StalenessMaxAge) {
			logging.Info("Resource stale at startup, running initial sync", "resource", resource)
			return true
		}
	}
	logging.Info("All resources fresh at startup, skipping initial sync")
	return false
}

func (s *Scheduler) runOnce(trigger string) {
	start := time.Now()
	counts, err := s.orch.Run(s.baseCtx, constants.AllResources, false, syncer.RunOptions{})
	switch {
	case errors.Is(err, syncer.ErrSyncInProgress):
		logging.Info("Skipping scheduled sync, another run is active", "trigger", trigger)
	case err != nil:
		logging.Error("Scheduled sync finished with errors",
			"trigger", trigger, "counts", counts, "error", err.Error())
	default:
		logging.Info("Scheduled sync completed",
			"trigger", trigger, "counts", counts, "duration", time.Since(start).String())
	}
}
