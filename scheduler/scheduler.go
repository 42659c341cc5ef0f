// Package scheduler provides automated catalog refresh scheduling and health
// monitoring for the label check API. It handles cron-based catalog reloads,
// staleness checks, and coordinates refreshes with the data container using
// dependency injection.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/labelcheck/labelcheck-api/interfaces"
	"github.com/labelcheck/labelcheck-api/logging"
	"github.com/labelcheck/labelcheck-api/metrics"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler handles catalog refreshes and health monitoring using dependency injection
type Scheduler struct {
	dataStore      interfaces.DataStore
	loader         interfaces.CatalogLoader
	scheduler      *gocron.Scheduler
	refreshEvery   time.Duration
	stopMonitoring context.CancelFunc
}

// NewScheduler creates a new scheduler instance with injected dependencies.
// refreshHours is how often the catalog is reloaded from the database.
func NewScheduler(dataStore interfaces.DataStore, loader interfaces.CatalogLoader, refreshHours int) *Scheduler {
	return &Scheduler{
		dataStore:    dataStore,
		loader:       loader,
		scheduler:    gocron.NewScheduler(time.Local),
		refreshEvery: time.Duration(refreshHours) * time.Hour,
	}
}

// Start performs the initial catalog load and schedules periodic refreshes
func (s *Scheduler) Start() error {
	// Initial load; the API cannot answer checks without a catalog.
	if err := s.refreshCatalog(); err != nil {
		logging.Error("Failed to perform initial catalog load", "error", err)
		return fmt.Errorf("initial catalog load failed: %w", err)
	}

	_, err := s.scheduler.Every(s.refreshEvery).Do(func() {
		if err := s.refreshCatalog(); err != nil {
			logging.Error("Failed to refresh catalog", "error", err)
		}
	})

	if err != nil {
		logging.Error("Failed to schedule catalog refreshes", "error", err)
		return fmt.Errorf("failed to schedule catalog refreshes: %w", err)
	}

	s.scheduler.StartAsync()

	// Start health monitoring
	s.startHealthMonitoring()

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	if s.stopMonitoring != nil {
		s.stopMonitoring()
	}
}

// refreshCatalog loads a fresh snapshot and swaps it in atomically
func (s *Scheduler) refreshCatalog() error {
	// Prevent concurrent refreshes
	if !s.dataStore.BeginUpdate() {
		logging.Info("Catalog refresh already in progress, skipping...")
		return nil
	}
	defer s.dataStore.EndUpdate()

	logging.Info("Starting catalog refresh", "at", time.Now().Format(time.RFC3339))
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	snapshot, err := s.loader.Load(ctx)
	if err != nil {
		logging.Error("Failed to load catalog", "error", err)
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	// Atomic swap; in-flight checks keep their old snapshot.
	s.dataStore.UpdateCatalog(snapshot)

	elapsed := time.Since(start)
	metrics.CatalogRefreshDuration.Observe(elapsed.Seconds())
	metrics.RecordCatalogCounts(snapshot.Counts())
	logging.Info("Catalog refresh completed", "duration", elapsed.String(), "tables", len(snapshot.Counts()))

	return nil
}

// startHealthMonitoring warns when the catalog has gone stale. A refresh can
// fail silently for a long time before anyone notices otherwise.
func (s *Scheduler) startHealthMonitoring() {
	ctx, cancel := context.WithCancel(context.Background())
	s.stopMonitoring = cancel

	staleAfter := 2*s.refreshEvery + time.Hour

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				lastUpdate := s.dataStore.GetLastUpdated()
				if time.Since(lastUpdate) > staleAfter {
					logging.Warn("Catalog hasn't been refreshed recently",
						"last_updated", lastUpdate.Format(time.RFC3339),
						"stale_after", staleAfter.String(),
					)
				}
			}
		}
	}()
}
