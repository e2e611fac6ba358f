package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fieldops/fieldmirror/internal/common"
	"github.com/fieldops/fieldmirror/internal/config"
	"github.com/fieldops/fieldmirror/internal/constants"
	"github.com/fieldops/fieldmirror/internal/db/repositories"
	"github.com/fieldops/fieldmirror/internal/logging"
	gormModels "github.com/fieldops/fieldmirror/internal/models/gorm"
	"github.com/fieldops/fieldmirror/internal/syncer"
	"github.com/go-chi/chi/v5"
)

const statusCacheKey = "sync:status:all"

// SyncHandler exposes the sync engine over HTTP: status inspection,
// manual backfill/incremental triggers and job history.
type SyncHandler struct {
	orch    *syncer.Orchestrator
	states  *repositories.SyncStateRepo
	jobs    *repositories.SyncJobRepo
	records *repositories.RecordRepository
	cache   common.CacheInterface
	cfg     config.SyncConfig
}

func NewSyncHandler(
	orch *syncer.Orchestrator,
	states *repositories.SyncStateRepo,
	jobs *repositories.SyncJobRepo,
	records *repositories.RecordRepository,
	cache common.CacheInterface,
	cfg config.SyncConfig,
) *SyncHandler {
	return &SyncHandler{
		orch:    orch,
		states:  states,
		jobs:    jobs,
		records: records,
		cache:   cache,
		cfg:     cfg,
	}
}

// TriggerSyncRequest narrows a manual run to selected resources and,
// for backfills over orders, an optional created-at date range.
type TriggerSyncRequest struct {
	Resources []string `json:"resources,omitempty"`
	StartDate string   `json:"start_date,omitempty"`
	EndDate   string   `json:"end_date,omitempty"`
}

type ResourceStatus struct {
	Resource      string     `json:"resource"`
	LastUpdatedAt *time.Time `json:"last_updated_at,omitempty"`
	LastID        *int64     `json:"last_id,omitempty"`
	TotalRecords  int64      `json:"total_records"`
	LocalRows     int64      `json:"local_rows"`
	SyncType      string     `json:"sync_type,omitempty"`
	SyncedAt      *time.Time `json:"synced_at,omitempty"`
	Stale         bool       `json:"stale"`
}

type SyncRunResult struct {
	Kind       string         `json:"kind"`
	Resources  []string       `json:"resources"`
	Processed  map[string]int `json:"processed"`
	DurationMs int64          `json:"duration_ms"`
	Errors     []string       `json:"errors,omitempty"`
}

// GetStatus returns the sync state of every known resource. Results are
// cached briefly so dashboard polling does not hammer the store.
func (h *SyncHandler) GetStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()

		cached, err := h.cache.GetOrSet(statusCacheKey, h.cfg.StatusCacheTTL, func() (any, error) {
			statuses := make([]ResourceStatus, 0, len(constants.AllResources))
			for _, resource := range constants.AllResources {
				state, err := h.states.GetLastSync(ctx, resource)
				if err != nil {
					return nil, err
				}
				statuses = append(statuses, h.buildStatus(r, resource, state))
			}
			return statuses, nil
		})
		if err != nil {
			common.RespondError(w, start, err, "Failed to load sync status")
			return
		}

		common.RespondSuccess(w, start, "Sync status retrieved", cached)
	}
}

// GetResourceStatus returns the sync state of a single resource.
func (h *SyncHandler) GetResourceStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resource := chi.URLParam(r, "resource")

		if !constants.IsKnownResource(resource) {
			common.RespondError(w, start, nil,
				fmt.Sprintf("Unknown resource: %s", resource), http.StatusNotFound)
			return
		}

		state, err := h.states.GetLastSync(r.Context(), resource)
		if err != nil {
			common.RespondError(w, start, err, "Failed to load sync status")
			return
		}

		common.RespondSuccess(w, start, "Sync status retrieved", h.buildStatus(r, resource, state))
	}
}

// TriggerBackfill runs a full paginated sweep for the requested resources.
func (h *SyncHandler) TriggerBackfill() http.HandlerFunc {
	return h.trigger(constants.JobKindBackfill, h.orch.RunBackfill)
}

// TriggerIncremental runs a cursor-based delta for the requested resources.
func (h *SyncHandler) TriggerIncremental() http.HandlerFunc {
	return h.trigger(constants.JobKindDelta, h.orch.RunIncremental)
}

type runFunc func(ctx context.Context, resources []string, opts syncer.RunOptions) (map[string]int, error)

func (h *SyncHandler) trigger(kind string, run runFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		req, err := parseTriggerRequest(r.Body)
		if err != nil {
			common.RespondError(w, start, err, "Invalid request body", http.StatusBadRequest)
			return
		}

		resources := req.Resources
		if len(resources) == 0 {
			resources = constants.AllResources
		}
		for _, resource := range resources {
			if !constants.IsKnownResource(resource) {
				common.RespondError(w, start, nil,
					fmt.Sprintf("Unknown resource: %s", resource), http.StatusBadRequest)
				return
			}
		}

		opts, err := req.runOptions()
		if err != nil {
			common.RespondError(w, start, err, "Invalid date range", http.StatusBadRequest)
			return
		}

		logging.Info("Manual sync triggered", "kind", kind, "resources", resources)

		counts, err := run(r.Context(), resources, opts)
		if errors.Is(err, syncer.ErrSyncInProgress) {
			common.RespondError(w, start, err, "A sync of this kind is already running", http.StatusConflict)
			return
		}

		h.cache.Delete(statusCacheKey)

		result := SyncRunResult{
			Kind:       kind,
			Resources:  resources,
			Processed:  counts,
			DurationMs: time.Since(start).Milliseconds(),
		}
		if err != nil {
			result.Errors = splitJoined(err)
			common.RespondSuccess(w, start, "Sync finished with errors", result, http.StatusMultiStatus)
			return
		}

		common.RespondSuccess(w, start, "Sync completed", result)
	}
}

// ListJobs returns recent sync job rows, newest first.
func (h *SyncHandler) ListJobs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		limit := 20
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if _, err := fmt.Sscanf(raw, "%d", &limit); err != nil || limit < 1 || limit > 200 {
				common.RespondError(w, start, nil, "limit must be between 1 and 200", http.StatusBadRequest)
				return
			}
		}

		jobs, err := h.jobs.Recent(r.Context(), limit)
		if err != nil {
			common.RespondError(w, start, err, "Failed to list sync jobs")
			return
		}

		common.RespondSuccess(w, start, "Sync jobs retrieved", jobs)
	}
}

func (h *SyncHandler) buildStatus(r *http.Request, resource string, state *gormModels.SyncState) ResourceStatus {
	status := ResourceStatus{Resource: resource, Stale: true}

	if rows, err := h.records.Count(r.Context(), resource); err == nil {
		status.LocalRows = rows
	}

	if state == nil {
		return status
	}

	status.LastUpdatedAt = state.LastUpdatedAt
	status.LastID = state.LastID
	status.TotalRecords = state.TotalRecords
	status.SyncType = state.SyncType
	syncedAt := state.SyncedAt
	status.SyncedAt = &syncedAt
	status.Stale = h.orch.ShouldSync(r.Context(), resource, h.cfg.StalenessMaxAge)
	return status
}

func parseTriggerRequest(body io.Reader) (TriggerSyncRequest, error) {
	var req TriggerSyncRequest
	if body == nil {
		return req, nil
	}
	err := json.NewDecoder(body).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		return req, err
	}
	return req, nil
}

func (req TriggerSyncRequest) runOptions() (syncer.RunOptions, error) {
	var opts syncer.RunOptions
	if req.StartDate != "" {
		t, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return opts, fmt.Errorf("start_date: %w", err)
		}
		opts.StartDate = &t
	}
	if req.EndDate != "" {
		t, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return opts, fmt.Errorf("end_date: %w", err)
		}
		opts.EndDate = &t
	}
	if opts.StartDate != nil && opts.EndDate != nil && opts.EndDate.Before(*opts.StartDate) {
		return opts, errors.New("end_date is before start_date")
	}
	return opts, nil
}

func splitJoined(err error) []string {
	type unwrapper interface{ Unwrap() []error }
	if joined, ok := err.(unwrapper); ok {
		msgs := make([]string, 0, len(joined.Unwrap()))
		for _, e := range joined.Unwrap() {
			msgs = append(msgs, e.Error())
		}
		return msgs
	}
	return []string{err.Error()}
}
