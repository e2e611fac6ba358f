package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/fieldops/fieldmirror/internal/config"
	"github.com/fieldops/fieldmirror/internal/models"
	gormModels "github.com/fieldops/fieldmirror/internal/models/gorm"
	"github.com/fieldops/fieldmirror/internal/providers"
)

func testSyncConfig() config.SyncConfig {
	return config.SyncConfig{
		PageSize:         2,
		BatchSize:        100,
		MaxRetries:       3,
		BaseDelay:        time.Millisecond,
		MaxDelay:         5 * time.Millisecond,
		BackoffFactor:    2.0,
		FirstDeltaWindow: 24 * time.Hour,
	}
}

type fetchCall struct {
	resource string
	filters  map[string]any
	page     int
}

// fakeProvider serves canned pages and records every fetch.
type fakeProvider struct {
	mu    sync.Mutex
	calls []fetchCall
	fetch func(resource string, filters map[string]any, page int) (*providers.PageResult, error)
}

func (p *fakeProvider) FetchPage(ctx context.Context, resource string, filters map[string]any, page int) (*providers.PageResult, error) {
	p.mu.Lock()
	copied := make(map[string]any, len(filters))
	for k, v := range filters {
		copied[k] = v
	}
	p.calls = append(p.calls, fetchCall{resource: resource, filters: copied, page: page})
	p.mu.Unlock()
	return p.fetch(resource, filters, page)
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// pagedProvider returns the given pages in order, then an empty page.
func pagedProvider(pages ...[]map[string]any) *fakeProvider {
	return &fakeProvider{
		fetch: func(_ string, _ map[string]any, page int) (*providers.PageResult, error) {
			if page > len(pages) {
				return &providers.PageResult{Records: nil, HasNext: false}, nil
			}
			return &providers.PageResult{
				Records: pages[page-1],
				HasNext: page < len(pages),
			}, nil
		},
	}
}

type upsertCall struct {
	resource string
	records  []models.Record
}

type fakeWriter struct {
	mu      sync.Mutex
	upserts []upsertCall
	err     error
}

func (w *fakeWriter) Upsert(ctx context.Context, resource string, records []models.Record) (int, int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return 0, 0, w.err
	}
	w.upserts = append(w.upserts, upsertCall{resource: resource, records: records})
	return len(records), 0, nil
}

func (w *fakeWriter) total() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, u := range w.upserts {
		n += len(u.records)
	}
	return n
}

type fakeStateStore struct {
	mu     sync.Mutex
	states map[string]*gormModels.SyncState
	getErr error
	setErr error
}

func newFakeStateStore() *fakeStateStore {
	return &fakeStateStore{states: make(map[string]*gormModels.SyncState)}
}

func (s *fakeStateStore) GetLastSync(ctx context.Context, resource string) (*gormModels.SyncState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	state, ok := s.states[resource]
	if !ok {
		return nil, nil
	}
	copied := *state
	return &copied, nil
}

func (s *fakeStateStore) UpdateSyncState(ctx context.Context, state *gormModels.SyncState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	copied := *state
	s.states[state.Resource] = &copied
	return nil
}

type fakeJobTracker struct {
	mu       sync.Mutex
	running  bool
	created  []string
	finished map[string]string
	progress int
}

func newFakeJobTracker() *fakeJobTracker {
	return &fakeJobTracker{finished: make(map[string]string)}
}

func (j *fakeJobTracker) Create(ctx context.Context, kind string) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	id := kind + "-test-job"
	j.created = append(j.created, id)
	return id, nil
}

func (j *fakeJobTracker) UpdateProgress(ctx context.Context, jobID string, processed int64, currentPage int) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.progress++
	return nil
}

func (j *fakeJobTracker) Finish(ctx context.Context, jobID string, status string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.finished[jobID] = status
	return nil
}

func (j *fakeJobTracker) HasRunningJob(ctx context.Context, kind string) (bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running, nil
}
