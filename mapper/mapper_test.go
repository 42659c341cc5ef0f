package mapper

import (
	"testing"
	"time"

	"github.com/labelcheck/labelcheck-api/catalog"
	"github.com/labelcheck/labelcheck-api/catalog/entities"
	"github.com/labelcheck/labelcheck-api/label"
)

func floatPtr(v float64) *float64 {
	return &v
}

func testResolver() *Resolver {
	tables := catalog.Tables{
		Excipients: []entities.Excipient{
			{ID: 1, NameUA: "мікрокристалічна целюлоза", NameEN: "microcrystalline cellulose"},
		},
		FormConversions: []entities.FormConversion{
			{ID: 1, SubstanceUA: "Магній", SubstanceEN: "Magnesium", FormUA: "цитрат магнію",
				NameVariations: []string{"цитрат магнію"}, CoefficientMin: floatPtr(0.11), CoefficientMax: floatPtr(0.16)},
			{ID: 2, SubstanceUA: "Цинк", SubstanceEN: "Zinc", FormUA: "цитрат цинку",
				NameVariations: []string{"цитрат цинку"}, CoefficientMax: floatPtr(0.31)},
		},
		Plants: []entities.Plant{
			{ID: 1, BotanicalFamily: "Розові", CommonNameUA: "Шипшина собача", BotanicalNameLat: "Rosa canina"},
		},
	}
	return NewResolver(catalog.New(tables, time.Now()))
}

func TestResolveFormConversion(t *testing.T) {
	r := testResolver()

	got, err := r.Resolve(label.IngredientRecord{
		Name: "цитрат магнію", Quantity: floatPtr(500), Unit: "мг",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Matched {
		t.Fatal("expected a form-conversion match")
	}
	if got.BaseSubstance != "Магній" {
		t.Errorf("base substance = %q, want Магній", got.BaseSubstance)
	}
	if got.Coefficient != 0.16 {
		t.Errorf("coefficient = %v, want 0.16", got.Coefficient)
	}
	if got.ElementalQuantity == nil || *got.ElementalQuantity != 80.0 {
		t.Errorf("elemental quantity = %v, want 80.0", got.ElementalQuantity)
	}
	if got.IsExtract {
		t.Error("a plain salt is not an extract")
	}
}

func TestResolveSwappedWordOrder(t *testing.T) {
	r := testResolver()

	got, err := r.Resolve(label.IngredientRecord{
		Name: "магнію цитрат", Quantity: floatPtr(100), Unit: "мг",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Matched || got.BaseSubstance != "Магній" {
		t.Errorf("swapped word order should resolve to Магній, got %+v", got)
	}
}

func TestResolveExcipient(t *testing.T) {
	r := testResolver()

	got, err := r.Resolve(label.IngredientRecord{
		Name: "Мікрокристалічна целюлоза", Quantity: floatPtr(50), Unit: "мг",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Matched || got.CategoryHint != entities.CategoryExcipient {
		t.Fatalf("expected excipient hint, got %+v", got)
	}
	if got.ElementalQuantity == nil || *got.ElementalQuantity != 50 {
		t.Errorf("excipient quantity must pass through unchanged, got %v", got.ElementalQuantity)
	}
	if got.Coefficient != 1.0 {
		t.Errorf("coefficient = %v, want 1.0", got.Coefficient)
	}
}

func TestResolveMissingQuantity(t *testing.T) {
	r := testResolver()

	got, err := r.Resolve(label.IngredientRecord{Name: "цитрат магнію", Unit: "мг"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Matched {
		t.Error("no quantity means no conversion, must come back unmatched")
	}
	if got.ElementalQuantity != nil {
		t.Errorf("elemental quantity = %v, want nil", got.ElementalQuantity)
	}
}

func TestResolvePlant(t *testing.T) {
	r := testResolver()

	got, err := r.Resolve(label.IngredientRecord{
		Name: "екстракт шипшини (10:1)", Quantity: floatPtr(200), Unit: "мг",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Matched || got.CategoryHint != entities.CategoryPlant {
		t.Fatalf("expected plant hint, got %+v", got)
	}
	if got.ElementalQuantity == nil || *got.ElementalQuantity != 200 {
		t.Errorf("plants are never elementalized, got %v", got.ElementalQuantity)
	}
	if !got.IsExtract || got.ExtractType != "екстракт" {
		t.Errorf("extract keyword not detected: %+v", got)
	}
	if got.ExtractRatio != "10:1" {
		t.Errorf("extract ratio = %q, want 10:1", got.ExtractRatio)
	}
}

func TestResolveUnmatchedFallback(t *testing.T) {
	r := testResolver()

	got, err := r.Resolve(label.IngredientRecord{
		Name: "невідома речовина", Quantity: floatPtr(30), Unit: "мг",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Matched {
		t.Error("unknown name must come back unmatched")
	}
	if got.Coefficient != 1.0 {
		t.Errorf("coefficient = %v, want the no-reduction default 1.0", got.Coefficient)
	}
	if got.ElementalQuantity == nil || *got.ElementalQuantity != 30 {
		t.Errorf("elemental quantity = %v, want declared 30", got.ElementalQuantity)
	}
	if got.BaseSubstance != "невідома речовина" {
		t.Errorf("base substance = %q, want the cleaned original", got.BaseSubstance)
	}
}

func TestSplitComposition(t *testing.T) {
	parts := SplitComposition(label.IngredientRecord{
		Name:     "композиція екстрактів: кропиви, шавлії, календули, хвоща - 185 мг",
		Quantity: floatPtr(185),
		Unit:     "мг",
	})

	if len(parts) != 4 {
		t.Fatalf("expected 4 plants, got %d: %+v", len(parts), parts)
	}
	if parts[0].Name != "кропива" {
		t.Errorf("first plant = %q, want кропива (genitive undone)", parts[0].Name)
	}
	if parts[1].Name != "шавлія" {
		t.Errorf("second plant = %q, want шавлія", parts[1].Name)
	}
	for _, p := range parts {
		if p.Quantity == nil || *p.Quantity != 46.25 {
			t.Errorf("plant %q quantity = %v, want equal share 46.25", p.Name, p.Quantity)
		}
		if p.DeclaredType != string(entities.CategoryPlant) {
			t.Errorf("plant %q declared type = %q", p.Name, p.DeclaredType)
		}
	}
}

func TestSplitCompositionPlainIngredient(t *testing.T) {
	ing := label.IngredientRecord{Name: "Селен", Quantity: floatPtr(55), Unit: "мкг"}
	parts := SplitComposition(ing)
	if len(parts) != 1 || parts[0].Name != "Селен" {
		t.Errorf("plain ingredient must come back unchanged, got %+v", parts)
	}
}
