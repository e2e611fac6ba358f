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
	"go.uber.org/zap"
)

// DeltaEngine fetches only records changed since the last committed cursor.
// A delta run never becomes a full scan: with no prior state it falls back
// to a bounded recency window.
type DeltaEngine struct {
	provider providers.DataProvider
	writer   RecordWriter
	state    StateStore
	jobs     JobTracker
	reg      *metrics.MetricsRegistry
	cfg      config.SyncConfig
	now      func() time.Time
}

func NewDeltaEngine(
	provider providers.DataProvider,
	writer RecordWriter,
	state StateStore,
	jobs JobTracker,
	reg *metrics.MetricsRegistry,
	cfg config.SyncConfig,
) *DeltaEngine {
	return &DeltaEngine{
		provider: provider,
		writer:   writer,
		state:    state,
		jobs:     jobs,
		reg:      reg,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Sync fetches and merges records changed since the committed cursor. An
// empty result still commits SyncedAt/SyncType as a liveness marker but
// leaves the cursor fields untouched; a fetch failure leaves sync state
// completely untouched so the next attempt retries from the same cursor.
func (e *DeltaEngine) Sync(ctx context.Context, resource string, opts RunOptions) (int, error) {
	start := e.now()
	log := logging.WithSync(resource, constants.SyncTypeIncremental, opts.JobID)

	prev, err := e.state.GetLastSync(ctx, resource)
	if err != nil {
		return 0, err
	}

	filters := e.deltaFilters(prev, log)
	limiter := NewRateLimiter(e.cfg.BaseDelay, e.cfg.MaxDelay, e.cfg.BackoffFactor)

	var (
		processed int
		skipped   int
		cursor    = CursorFromState(prev)
	)

	for page := 1; ; page++ {
		result, err := fetchPageWithRetry(ctx, e.provider, limiter, e.reg, e.cfg.MaxRetries, resource, filters, page)
		if err != nil {
			e.observeRun(resource, "error", start, processed, skipped)
			return processed, err
		}
		if len(result.Records) == 0 {
			break
		}

		records := make([]models.Record, 0, len(result.Records))
		for _, doc := range result.Records {
			rec, ok := models.RecordFromDoc(doc)
			if !ok {
				skipped++
				continue
			}
			records = append(records, rec)
		}

		n, s, err := e.writer.Upsert(ctx, resource, records)
		if err != nil {
			e.observeRun(resource, "error", start, processed, skipped)
			return processed, err
		}
		processed += n
		skipped += s
		cursor = cursor.Merge(CursorFromRecords(records))

		if e.jobs != nil && opts.JobID != "" {
			if err := e.jobs.UpdateProgress(ctx, opts.JobID, int64(processed), page); err != nil {
				log.Warnw("Failed to update job progress", "error", err.Error())
			}
		}

		if !result.HasNext {
			break
		}
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
		SyncType:      constants.SyncTypeIncremental,
		SyncedAt:      e.now(),
	}
	if err := e.state.UpdateSyncState(ctx, newState); err != nil {
		e.observeRun(resource, "error", start, processed, skipped)
		return processed, err
	}

	e.observeRun(resource, "success", start, processed, skipped)
	log.Infow("Incremental sync completed",
		"records", processed,
		"skipped", skipped,
		"duration", time.Since(start).Truncate(time.Millisecond).String(),
	)
	return processed, nil
}

// deltaFilters picks the narrowest available cursor filter:
// updatedSince, then idGreaterThan, then the bounded recency window.
func (e *DeltaEngine) deltaFilters(prev *gormModels.SyncState, log *zap.SugaredLogger) map[string]any {
	filters := map[string]any{constants.FilterPageSize: e.cfg.PageSize}

	switch {
	case prev != nil && prev.LastUpdatedAt != nil:
		since := prev.LastUpdatedAt.UTC().Format(time.RFC3339)
		filters[constants.FilterUpdatedSince] = since
		log.Infow("Fetching records updated since cursor", "updated_since", since)

	case prev != nil && prev.LastID != nil:
		filters[constants.FilterIDGreaterThan] = *prev.LastID
		log.Infow("Fetching records by id cursor", "id_greater_than", *prev.LastID)

	default:
		window := e.cfg.FirstDeltaWindow
		if window <= 0 {
			window = 24 * time.Hour
		}
		since := e.now().Add(-window).Format("2006-01-02")
		filters[constants.FilterCreatedSince] = since
		log.Infow("First incremental run, using bounded recency window",
			"window", window.String(),
			"created_since", since,
		)
	}
	return filters
}

func (e *DeltaEngine) observeRun(resource, status string, start time.Time, processed, skipped int) {
	if e.reg == nil {
		return
	}
	e.reg.SyncRunsTotal.WithLabelValues(resource, constants.SyncTypeIncremental, status).Inc()
	e.reg.SyncRunDuration.WithLabelValues(resource, constants.SyncTypeIncremental).Observe(time.Since(start).Seconds())
	e.reg.RecordsUpsertedTotal.WithLabelValues(resource).Add(float64(processed))
	e.reg.RecordsSkippedTotal.WithLabelValues(resource).Add(float64(skipped))
}
