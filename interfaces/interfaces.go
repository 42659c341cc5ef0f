// Package interfaces defines core abstractions for the label check API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/labelcheck/labelcheck-api/catalog/entities"
	"github.com/labelcheck/labelcheck-api/label"
)

// CatalogStore defines the read contract over the regulatory catalog.
// Implementations must be safe for unsynchronized concurrent reads; request
// handlers share one store across goroutines.
type CatalogStore interface {
	// Substance lookups, keyed by normalized match keys
	FindBanned(keys []string) (*entities.BannedSubstance, error)
	FindVitaminMineral(keys []string) (*entities.VitaminMineral, error)
	FindAminoAcid(keys []string) (*entities.AminoAcid, error)
	FindDoseLimited(category entities.Category, keys []string) (*entities.DoseLimitedSubstance, error)
	FindMicroorganism(genus, species string) (*entities.Microorganism, error)
	FindFormConversion(keys []string) (*entities.FormConversion, error)
	FindPlant(stem string) (*entities.Plant, error)
	IsExcipient(name string) (bool, error)

	// Dose ceilings
	EfsaLimit(substanceKey string, tier entities.LimitTier) (*entities.EfsaLimit, error)
	DomesticLimit(keys []string, tier entities.LimitTier) (*entities.DomesticLimit, error)

	// Compliance rules
	ForbiddenPhrases() ([]entities.ForbiddenPhrase, error)
	CriticalFields() ([]entities.MandatoryField, error)

	// Snapshot metadata
	LoadedAt() time.Time
	Counts() map[string]int
}

// DataStore defines the contract for catalog storage operations.
// It provides thread-safe access to the current catalog snapshot
// with atomic operations for zero-downtime refreshes.
type DataStore interface {
	GetCatalog() CatalogStore
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	UpdateCatalog(c CatalogStore)
	BeginUpdate() bool
	EndUpdate()
}

// CatalogLoader defines the contract for loading the regulatory catalog
// from its backing store.
type CatalogLoader interface {
	Load(ctx context.Context) (CatalogStore, error)
}

// Scheduler defines the contract for job scheduling and health monitoring.
// It manages automated catalog refreshes and staleness checks.
type Scheduler interface {
	Start() error
	Stop()
}

// HTTPHandler defines the contract for HTTP request handlers.
// It provides a consistent interface for all API endpoints.
type HTTPHandler interface {
	// CheckDosage runs ingredient resolution and dose evaluation only
	CheckDosage(w http.ResponseWriter, r *http.Request)

	// CheckCompliance runs forbidden-phrase and mandatory-field checks only
	CheckCompliance(w http.ResponseWriter, r *http.Request)

	// CheckFull runs both groups and aggregates one report
	CheckFull(w http.ResponseWriter, r *http.Request)

	// This will stay in all versions
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// LabelValidator defines the contract for structural validation of
// submitted label data, before any catalog work happens.
type LabelValidator interface {
	ValidateLabel(data *label.Data) error
	ValidateIngredient(ing *label.IngredientRecord) error
}
