package syncer

import (
	"context"
	"time"

	"github.com/fieldops/fieldmirror/internal/config"
	"github.com/fieldops/fieldmirror/internal/constants"
	"github.com/fieldops/fieldmirror/internal/logging"
	"github.com/fieldops/fieldmirror/internal/metrics"
	"github.com/fieldops/fieldmirror/internal/models"
	gormModels "github.com/fieldops/fieldmirror/internal/models/gorm"
	"github.com/fieldops/fieldmirror/internal/providers"
	"golang.org/x/sync/errgroup"
)

// BackfillEngine performs a complete, cursor-ignoring paginated sweep of one
// resource into the local mirror.
type BackfillEngine struct {
	provider providers.DataProvider
	writer   RecordWriter
	state    StateStore
	jobs     JobTracker
	reg      *metrics.MetricsRegistry
	cfg      config.SyncConfig
}

func NewBackfillEngine(
	provider providers.DataProvider,
	writer RecordWriter,
	state StateStore,
	jobs JobTracker,
	reg *metrics.MetricsRegistry,
	cfg config.SyncConfig,
) *BackfillEngine {
	return &BackfillEngine{
		provider: provider,
		writer:   writer,
		state:    state,
		jobs:     jobs,
		reg:      reg,
		cfg:      cfg,
	}
}

// RunOptions carries per-run parameters shared by both engines.
type RunOptions struct {
	// StartDate/EndDate bound date-scoped backfills (orders); nil means unbounded.
	StartDate *time.Time
	EndDate   *time.Time
	// JobID ties progress updates to a sync_jobs row, empty disables them.
	JobID string
}

type fetchedPage struct {
	page   int
	result *providers.PageResult
}

// Sync sweeps every page of the resource, stream-upserting page by page, and
// commits the new cursor and cumulative total as its last action. Pages are
// prefetched one ahead so the next network wait overlaps the current upsert.
func (e *BackfillEngine) Sync(ctx context.Context, resource string, opts RunOptions) (int, error) {
	start := time.Now()
	log := logging.WithSync(resource, constants.SyncTypeBackfill, opts.JobID)
	log.Infow("Starting backfill")

	prev, err := e.state.GetLastSync(ctx, resource)
	if err != nil {
		return 0, err
	}

	filters := map[string]any{constants.FilterPageSize: e.cfg.PageSize}
	if opts.StartDate != nil {
		filters[constants.FilterCreatedSince] = opts.StartDate.Format("2006-01-02")
	}
	if opts.EndDate != nil {
		filters[constants.FilterCreatedUntil] = opts.EndDate.Format("2006-01-02")
	}

	limiter := NewRateLimiter(e.cfg.BaseDelay, e.cfg.MaxDelay, e.cfg.BackoffFactor)
	pages := make(chan fetchedPage, 1)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(pages)
		for page := 1; ; page++ {
			result, err := fetchPageWithRetry(gctx, e.provider, limiter, e.reg, e.cfg.MaxRetries, resource, filters, page)
			if err != nil {
				return err
			}
			// an empty page is the server's end-of-data signal
			if len(result.Records) == 0 {
				return nil
			}
			select {
			case pages <- fetchedPage{page: page, result: result}:
			case <-gctx.Done():
				return gctx.Err()
			}
			if !result.HasNext {
				return nil
			}
		}
	})

	var (
		processed int
		skipped   int
		cursor    = CursorFromState(prev)
	)
	g.Go(func() error {
		for fp := range pages {
			records := make([]models.Record, 0, len(fp.result.Records))
			for _, doc := range fp.result.Records {
				rec, ok := models.RecordFromDoc(doc)
				if !ok {
					skipped++
					continue
				}
				records = append(records, rec)
			}

			n, s, err := e.writer.Upsert(gctx, resource, records)
			if err != nil {
				return err
			}
			processed += n
			skipped += s
			cursor = cursor.Merge(CursorFromRecords(records))

			log.Infow("Backfill page committed",
				"page", fp.page,
				"records", n,
				"total_processed", processed,
			)
			if e.jobs != nil && opts.JobID != "" {
				if err := e.jobs.UpdateProgress(gctx, opts.JobID, int64(processed), fp.page); err != nil {
					log.Warnw("Failed to update job progress", "error", err.Error())
				}
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		e.observeRun(resource, constants.SyncTypeBackfill, "error", start, processed, skipped)
		return processed, err
	}

	var prevTotal int64
	if prev != nil {
		prevTotal = prev.TotalRecords
	}
	newState := &gormModels.SyncState{
		Resource:      resource,
		LastUpdatedAt: cursor.UpdatedAt,
		LastID:        cursor.ID,
		TotalRecords:  prevTotal + int64(processed),
		SyncType:      constants.SyncTypeBackfill,
		SyncedAt:      time.Now(),
	}
	if err := e.state.UpdateSyncState(ctx, newState); err != nil {
		e.observeRun(resource, constants.SyncTypeBackfill, "error", start, processed, skipped)
		return processed, err
	}

	e.observeRun(resource, constants.SyncTypeBackfill, "success", start, processed, skipped)
	log.Infow("Backfill completed",
		"records", processed,
		"skipped", skipped,
		"duration", time.Since(start).Truncate(time.Millisecond).String(),
	)
	return processed, nil
}

func (e *BackfillEngine) observeRun(resource, syncType, status string, start time.Time, processed, skipped int) {
	if e.reg == nil {
		return
	}
	e.reg.SyncRunsTotal.WithLabelValues(resource, syncType, status).Inc()
	e.reg.SyncRunDuration.WithLabelValues(resource, syncType).Observe(time.Since(start).Seconds())
	e.reg.RecordsUpsertedTotal.WithLabelValues(resource).Add(float64(processed))
	e.reg.RecordsSkippedTotal.WithLabelValues(resource).Add(float64(skipped))
}
