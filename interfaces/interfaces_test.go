package interfaces_test

import (
	"testing"
	"time"

	"github.com/labelcheck/labelcheck-api/catalog"
	"github.com/labelcheck/labelcheck-api/data"
	"github.com/labelcheck/labelcheck-api/interfaces"
	"github.com/labelcheck/labelcheck-api/validation"
)

// The concrete types carry their own compile-time checks; these tests exercise
// the contracts through the interface types only.

func TestDataStoreContract(t *testing.T) {
	var store interfaces.DataStore = data.NewDataContainer()

	if store.GetCatalog() != nil {
		t.Error("empty store must return a nil catalog")
	}

	var snapshot interfaces.CatalogStore = catalog.New(catalog.Tables{}, time.Now())
	store.UpdateCatalog(snapshot)

	if store.GetCatalog() == nil {
		t.Error("store must return the installed snapshot")
	}
	if !store.BeginUpdate() {
		t.Error("first BeginUpdate must succeed")
	}
	store.EndUpdate()
}

func TestCatalogStoreContract(t *testing.T) {
	var store interfaces.CatalogStore = catalog.New(catalog.Tables{}, time.Now())

	counts, loadedAt := store.Counts(), store.LoadedAt()
	if len(counts) == 0 {
		t.Error("counts must report every table, even when empty")
	}
	if loadedAt.IsZero() {
		t.Error("snapshot must carry its load time")
	}

	found, err := store.FindBanned([]string{"невідомо"})
	if err != nil {
		t.Fatalf("lookup on an empty catalog must not error: %v", err)
	}
	if found != nil {
		t.Error("empty catalog cannot match anything")
	}
}

func TestLabelValidatorContract(t *testing.T) {
	var v interfaces.LabelValidator = validation.NewLabelValidator()

	if err := v.ValidateLabel(nil); err == nil {
		t.Error("nil label must be rejected")
	}
	if err := v.ValidateIngredient(nil); err == nil {
		t.Error("nil ingredient must be rejected")
	}
}
