// Package data provides thread-safe storage for the regulatory catalog.
// It includes the DataContainer struct with atomic operations for
// zero-downtime catalog refreshes and thread-safe access for request
// handlers.
package data

import (
	"sync/atomic"
	"time"

	"github.com/labelcheck/labelcheck-api/interfaces"
	"github.com/labelcheck/labelcheck-api/logging"
)

// Compile-time check to ensure DataContainer implements DataStore
var _ interfaces.DataStore = (*DataContainer)(nil)

// DataContainer holds the current catalog snapshot behind atomic pointers
// for zero-downtime refreshes.
type DataContainer struct {
	catalog         atomic.Value // interfaces.CatalogStore
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// catalogBox keeps the stored type identical across swaps; atomic.Value
// rejects inconsistently-typed stores.
type catalogBox struct {
	store interfaces.CatalogStore
}

// NewDataContainer creates a new DataContainer with no catalog loaded yet.
func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.catalog.Store(catalogBox{})
	dc.lastUpdated.Store(time.Time{})
	dc.serverStartTime.Store(time.Time{})
	return dc
}

// GetCatalog returns the current catalog snapshot, or nil before the first
// successful load.
func (dc *DataContainer) GetCatalog() interfaces.CatalogStore {
	if v := dc.catalog.Load(); v != nil {
		if box, ok := v.(catalogBox); ok {
			return box.store
		}
	}

	logging.Warn("Catalog container holds no snapshot")
	return nil
}

// GetLastUpdated returns the timestamp of the last catalog refresh.
func (dc *DataContainer) GetLastUpdated() time.Time {
	if v := dc.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true if a catalog refresh is currently in progress
func (dc *DataContainer) IsUpdating() bool {
	return dc.updating.Load()
}

// SetServerStartTime sets the server start time
func (dc *DataContainer) SetServerStartTime(startTime time.Time) {
	dc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (dc *DataContainer) GetServerStartTime() time.Time {
	if v := dc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// UpdateCatalog atomically swaps in a freshly loaded snapshot. In-flight
// requests keep reading the snapshot they started with.
func (dc *DataContainer) UpdateCatalog(c interfaces.CatalogStore) {
	dc.catalog.Store(catalogBox{store: c})
	dc.lastUpdated.Store(time.Now())
}

// BeginUpdate marks the start of a catalog refresh.
// Returns true if the refresh can proceed, false if another one is running.
func (dc *DataContainer) BeginUpdate() bool {
	return dc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a catalog refresh
func (dc *DataContainer) EndUpdate() {
	dc.updating.Store(false)
}
