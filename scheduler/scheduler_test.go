package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/labelcheck/labelcheck-api/catalog"
	"github.com/labelcheck/labelcheck-api/data"
	"github.com/labelcheck/labelcheck-api/interfaces"
)

// mockLoader counts loads and can be told to fail.
type mockLoader struct {
	loads int
	fail  bool
}

func (m *mockLoader) Load(ctx context.Context) (interfaces.CatalogStore, error) {
	m.loads++
	if m.fail {
		return nil, errors.New("database unreachable")
	}
	return catalog.New(catalog.Tables{}, time.Now()), nil
}

func TestRefreshCatalog(t *testing.T) {
	store := data.NewDataContainer()
	loader := &mockLoader{}
	s := NewScheduler(store, loader, 12)

	if err := s.refreshCatalog(); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	if loader.loads != 1 {
		t.Errorf("loads = %d, want 1", loader.loads)
	}
	if store.GetCatalog() == nil {
		t.Error("refresh must install a catalog snapshot")
	}
	if store.GetLastUpdated().IsZero() {
		t.Error("refresh must stamp the last-updated time")
	}
	if store.IsUpdating() {
		t.Error("update flag must clear after a refresh")
	}
}

func TestRefreshCatalogLoadFailure(t *testing.T) {
	store := data.NewDataContainer()
	loader := &mockLoader{fail: true}
	s := NewScheduler(store, loader, 12)

	if err := s.refreshCatalog(); err == nil {
		t.Fatal("expected the load error to propagate")
	}

	if store.GetCatalog() != nil {
		t.Error("a failed load must not install a snapshot")
	}
	if store.IsUpdating() {
		t.Error("update flag must clear even on failure")
	}
}

func TestRefreshCatalogSkipsWhenUpdating(t *testing.T) {
	store := data.NewDataContainer()
	loader := &mockLoader{}
	s := NewScheduler(store, loader, 12)

	if !store.BeginUpdate() {
		t.Fatal("setup: could not claim the update slot")
	}
	defer store.EndUpdate()

	if err := s.refreshCatalog(); err != nil {
		t.Fatalf("skipped refresh must not error: %v", err)
	}
	if loader.loads != 0 {
		t.Errorf("loader must not run while another refresh holds the slot, loads = %d", loader.loads)
	}
}

func TestStartFailsWithoutInitialLoad(t *testing.T) {
	store := data.NewDataContainer()
	loader := &mockLoader{fail: true}
	s := NewScheduler(store, loader, 12)

	if err := s.Start(); err == nil {
		s.Stop()
		t.Fatal("Start must fail when the initial load fails")
	}
}

func TestStartAndStop(t *testing.T) {
	store := data.NewDataContainer()
	loader := &mockLoader{}
	s := NewScheduler(store, loader, 12)

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	if loader.loads != 1 {
		t.Errorf("Start must perform exactly one initial load, got %d", loader.loads)
	}
	if store.GetCatalog() == nil {
		t.Error("catalog missing after Start")
	}
}
