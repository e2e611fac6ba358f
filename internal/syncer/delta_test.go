package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fieldops/fieldmirror/internal/constants"
	gormModels "github.com/fieldops/fieldmirror/internal/models/gorm"
	"github.com/fieldops/fieldmirror/internal/providers"
)

func newDeltaEngine(provider *fakeProvider, writer *fakeWriter, states *fakeStateStore, now time.Time) *DeltaEngine {
	engine := NewDeltaEngine(provider, writer, states, nil, nil, testSyncConfig())
	engine.now = func() time.Time { return now }
	return engine
}

func TestDeltaPrefersUpdatedSinceCursor(t *testing.T) {
	states := newFakeStateStore()
	states.states[constants.ResourceOrders] = &gormModels.SyncState{
		Resource:      constants.ResourceOrders,
		LastUpdatedAt: ts("2025-04-01T12:00:00Z"),
		LastID:        i64(99),
		TotalRecords:  10,
	}
	provider := pagedProvider([]map[string]any{doc(100, "2025-04-02T00:00:00Z")})

	engine := newDeltaEngine(provider, &fakeWriter{}, states, time.Now())
	if _, err := engine.Sync(context.Background(), constants.ResourceOrders, RunOptions{}); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	filters := provider.calls[0].filters
	if filters[constants.FilterUpdatedSince] != "2025-04-01T12:00:00Z" {
		t.Errorf("updatedSince = %v, want the committed timestamp", filters[constants.FilterUpdatedSince])
	}
	if _, ok := filters[constants.FilterIDGreaterThan]; ok {
		t.Error("idGreaterThan must not be sent when a timestamp cursor exists")
	}
}

func TestDeltaFallsBackToIDCursor(t *testing.T) {
	states := newFakeStateStore()
	states.states[constants.ResourceOrders] = &gormModels.SyncState{
		Resource: constants.ResourceOrders,
		LastID:   i64(42),
	}
	provider := pagedProvider([]map[string]any{doc(43, "2025-04-02T00:00:00Z")})

	engine := newDeltaEngine(provider, &fakeWriter{}, states, time.Now())
	if _, err := engine.Sync(context.Background(), constants.ResourceOrders, RunOptions{}); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	filters := provider.calls[0].filters
	if filters[constants.FilterIDGreaterThan] != int64(42) {
		t.Errorf("idGreaterThan = %v, want 42", filters[constants.FilterIDGreaterThan])
	}
	if _, ok := filters[constants.FilterUpdatedSince]; ok {
		t.Error("updatedSince must not be sent without a timestamp cursor")
	}
}

func TestDeltaNoStateUsesBoundedWindow(t *testing.T) {
	now := time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)
	provider := pagedProvider([]map[string]any{doc(1, "2025-05-09T10:00:00Z")})

	engine := newDeltaEngine(provider, &fakeWriter{}, newFakeStateStore(), now)
	if _, err := engine.Sync(context.Background(), constants.ResourceOrders, RunOptions{}); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	filters := provider.calls[0].filters
	if filters[constants.FilterCreatedSince] != "2025-05-09" {
		t.Errorf("createdSince = %v, want 24h window back from now", filters[constants.FilterCreatedSince])
	}
}

func TestDeltaEmptyResultKeepsCursorUpdatesLiveness(t *testing.T) {
	prevSynced := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	states := newFakeStateStore()
	states.states[constants.ResourceOrders] = &gormModels.SyncState{
		Resource:      constants.ResourceOrders,
		LastUpdatedAt: ts("2025-03-31T00:00:00Z"),
		LastID:        i64(7),
		TotalRecords:  20,
		SyncType:      constants.SyncTypeBackfill,
		SyncedAt:      prevSynced,
	}

	now := time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)
	provider := pagedProvider() // nothing changed upstream
	engine := newDeltaEngine(provider, &fakeWriter{}, states, now)

	n, err := engine.Sync(context.Background(), constants.ResourceOrders, RunOptions{})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if n != 0 {
		t.Errorf("processed = %d, want 0", n)
	}

	state := states.states[constants.ResourceOrders]
	if state.LastUpdatedAt == nil || !state.LastUpdatedAt.Equal(*ts("2025-03-31T00:00:00Z")) {
		t.Errorf("LastUpdatedAt = %v, cursor must not change on an empty delta", state.LastUpdatedAt)
	}
	if state.LastID == nil || *state.LastID != 7 {
		t.Errorf("LastID = %v, cursor must not change on an empty delta", state.LastID)
	}
	if state.TotalRecords != 20 {
		t.Errorf("TotalRecords = %d, want unchanged 20", state.TotalRecords)
	}
	if !state.SyncedAt.Equal(now) {
		t.Errorf("SyncedAt = %v, want advanced to %v", state.SyncedAt, now)
	}
	if state.SyncType != constants.SyncTypeIncremental {
		t.Errorf("SyncType = %q, want %q", state.SyncType, constants.SyncTypeIncremental)
	}
}

func TestDeltaAdvancesCursorAndTotal(t *testing.T) {
	states := newFakeStateStore()
	states.states[constants.ResourceOrders] = &gormModels.SyncState{
		Resource:      constants.ResourceOrders,
		LastUpdatedAt: ts("2025-04-01T00:00:00Z"),
		LastID:        i64(10),
		TotalRecords:  10,
	}
	provider := pagedProvider([]map[string]any{
		doc(11, "2025-04-05T00:00:00Z"),
		doc(12, "2025-04-06T00:00:00Z"),
	})

	engine := newDeltaEngine(provider, &fakeWriter{}, states, time.Now())
	n, err := engine.Sync(context.Background(), constants.ResourceOrders, RunOptions{})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if n != 2 {
		t.Errorf("processed = %d, want 2", n)
	}

	state := states.states[constants.ResourceOrders]
	if !state.LastUpdatedAt.Equal(*ts("2025-04-06T00:00:00Z")) {
		t.Errorf("LastUpdatedAt = %v, want advanced to the newest record", state.LastUpdatedAt)
	}
	if *state.LastID != 12 {
		t.Errorf("LastID = %d, want 12", *state.LastID)
	}
	if state.TotalRecords != 12 {
		t.Errorf("TotalRecords = %d, want cumulative 12", state.TotalRecords)
	}
}

func TestDeltaStaleRecordsNeverRegressCursor(t *testing.T) {
	states := newFakeStateStore()
	states.states[constants.ResourceOrders] = &gormModels.SyncState{
		Resource:      constants.ResourceOrders,
		LastUpdatedAt: ts("2025-06-01T00:00:00Z"),
		LastID:        i64(100),
		TotalRecords:  100,
	}
	// upstream re-serves an older record, e.g. after a server-side re-key
	provider := pagedProvider([]map[string]any{doc(50, "2025-01-01T00:00:00Z")})

	engine := newDeltaEngine(provider, &fakeWriter{}, states, time.Now())
	if _, err := engine.Sync(context.Background(), constants.ResourceOrders, RunOptions{}); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	state := states.states[constants.ResourceOrders]
	if !state.LastUpdatedAt.Equal(*ts("2025-06-01T00:00:00Z")) {
		t.Errorf("LastUpdatedAt regressed to %v", state.LastUpdatedAt)
	}
	if *state.LastID != 100 {
		t.Errorf("LastID regressed to %d", *state.LastID)
	}
}

func TestDeltaWriterFailureLeavesStateUntouched(t *testing.T) {
	prev := &gormModels.SyncState{
		Resource:      constants.ResourceOrders,
		LastUpdatedAt: ts("2025-04-01T00:00:00Z"),
		TotalRecords:  10,
		SyncedAt:      time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	states := newFakeStateStore()
	states.states[constants.ResourceOrders] = prev

	provider := pagedProvider([]map[string]any{doc(11, "2025-04-05T00:00:00Z")})
	writer := &fakeWriter{err: errors.New("disk full")}

	engine := newDeltaEngine(provider, writer, states, time.Now())
	if _, err := engine.Sync(context.Background(), constants.ResourceOrders, RunOptions{}); err == nil {
		t.Fatal("expected the writer failure to surface")
	}

	state := states.states[constants.ResourceOrders]
	if !state.SyncedAt.Equal(prev.SyncedAt) || state.TotalRecords != 10 {
		t.Errorf("state = %+v, must not advance after a failed upsert", state)
	}
	if !state.LastUpdatedAt.Equal(*ts("2025-04-01T00:00:00Z")) {
		t.Errorf("LastUpdatedAt = %v, must not advance after a failed upsert", state.LastUpdatedAt)
	}
}

func TestDeltaFetchFailureLeavesStateUntouched(t *testing.T) {
	prev := &gormModels.SyncState{
		Resource:      constants.ResourceOrders,
		LastUpdatedAt: ts("2025-04-01T00:00:00Z"),
		TotalRecords:  10,
		SyncedAt:      time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	states := newFakeStateStore()
	states.states[constants.ResourceOrders] = prev

	provider := &fakeProvider{
		fetch: func(string, map[string]any, int) (*providers.PageResult, error) {
			return nil, providers.NewProviderError(constants.ErrCodeAuthExpired, providers.KindAuthExpired, errors.New("401"))
		},
	}

	engine := newDeltaEngine(provider, &fakeWriter{}, states, time.Now())
	if _, err := engine.Sync(context.Background(), constants.ResourceOrders, RunOptions{}); err == nil {
		t.Fatal("expected the auth failure to surface")
	}

	state := states.states[constants.ResourceOrders]
	if !state.SyncedAt.Equal(prev.SyncedAt) {
		t.Error("SyncedAt must not advance after a failed delta")
	}
	if state.TotalRecords != 10 {
		t.Errorf("TotalRecords = %d, want unchanged 10", state.TotalRecords)
	}
}
