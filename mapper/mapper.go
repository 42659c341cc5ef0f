// Package mapper resolves free-text ingredient names into base substances
// with elemental quantities. A label says "цитрат магнію 500 мг"; dose limits
// are written for elemental magnesium, so the mapper finds the chemical form
// in the catalog and applies its elemental coefficient before any limit is
// compared.
package mapper

import (
	"math"
	"regexp"
	"strings"

	"github.com/labelcheck/labelcheck-api/catalog/entities"
	"github.com/labelcheck/labelcheck-api/interfaces"
	"github.com/labelcheck/labelcheck-api/label"
	"github.com/labelcheck/labelcheck-api/logging"
	"github.com/labelcheck/labelcheck-api/normalizer"
)

// extractKeywords mark preparations rather than pure substances. Scanned
// against the original label text, Russian spellings included because labels
// carry them.
var extractKeywords = []string{
	"екстракт", "extract", "экстракт",
	"порошок", "powder", "порошка",
	"композиція", "composition", "комплекс",
	"олія", "oil", "масло",
	"концентрат", "concentrate",
	"витяжка", "настойка", "настой", "тинктура",
}

// compositionMarkers flag a single ingredient line that actually lists
// several plants sharing one declared quantity.
var compositionMarkers = []string{
	"композиція", "комплекс", "суміш", "збір", "composition", "complex", "mix",
}

var (
	extractWordUA = regexp.MustCompile(`(?i)екстракт[іи]?в?`)
	extractWordEN = regexp.MustCompile(`(?i)extracts?`)
	dashedDose    = regexp.MustCompile(`[-–]\s*\d+[.,]?\d*\s*(мг|мкг|г|mg|mcg|g)?`)
	bareDose      = regexp.MustCompile(`\d+[.,]?\d*\s*(мг|мкг|г|mg|mcg|g)`)
)

// ResolvedIngredient is one ingredient after catalog resolution. Quantities
// are pointers because a label may declare an ingredient without a number.
type ResolvedIngredient struct {
	OriginalName      string            `json:"original_name"`
	CleanName         string            `json:"clean_name"`
	BaseSubstance     string            `json:"base_substance"`
	Form              string            `json:"form,omitempty"`
	DeclaredForm      string            `json:"declared_form,omitempty"`
	Quantity          *float64          `json:"original_quantity"`
	Unit              string            `json:"unit"`
	ElementalQuantity *float64          `json:"elemental_quantity"`
	Coefficient       float64           `json:"coefficient_used"`
	Matched           bool              `json:"matched"`
	CategoryHint      entities.Category `json:"category_hint,omitempty"`
	IsExtract         bool              `json:"is_extract"`
	ExtractType       string            `json:"extract_type,omitempty"`
	ExtractRatio      string            `json:"extract_ratio,omitempty"`
}

// Resolver maps label ingredients onto the regulatory catalog.
type Resolver struct {
	catalog interfaces.CatalogStore
}

// NewResolver creates a resolver reading from the given catalog.
func NewResolver(catalog interfaces.CatalogStore) *Resolver {
	return &Resolver{catalog: catalog}
}

// Resolve runs the resolution ladder for one ingredient. Steps short-circuit
// in strict order: excipient, missing quantity, chemical form, plant,
// unmatched fallback. Extract detection applies to every branch.
func (r *Resolver) Resolve(ing label.IngredientRecord) (ResolvedIngredient, error) {
	clean := normalizer.Clean(ing.Name)

	result := ResolvedIngredient{
		OriginalName:  ing.Name,
		CleanName:     clean,
		BaseSubstance: clean,
		DeclaredForm:  ing.Form,
		Quantity:      ing.Quantity,
		Unit:          ing.Unit,
		Coefficient:   1.0,
	}
	r.annotateExtract(&result)

	// The extraction layer may declare a type; keep it as a classification
	// hint unless a catalog match below says otherwise.
	if hint, ok := entities.ParseCategory(ing.DeclaredType); ok {
		result.CategoryHint = hint
	}

	isExcipient, err := r.catalog.IsExcipient(clean)
	if err != nil {
		return result, err
	}
	if isExcipient {
		result.Matched = true
		result.CategoryHint = entities.CategoryExcipient
		result.ElementalQuantity = ing.Quantity
		return result, nil
	}

	// Without a number there is nothing to convert; downstream reports the
	// missing quantity as a warning, not an error.
	if ing.Quantity == nil {
		return result, nil
	}

	keys := normalizer.MatchKeys(clean)

	form, err := r.catalog.FindFormConversion(keys)
	if err != nil {
		return result, err
	}
	if form != nil {
		coefficient := form.Coefficient()
		elemental := round2(*ing.Quantity * coefficient)
		result.BaseSubstance = form.SubstanceUA
		result.Form = form.FormUA
		result.Coefficient = coefficient
		result.ElementalQuantity = &elemental
		result.Matched = true
		return result, nil
	}

	stem := normalizer.PlantStem(clean)
	plant, err := r.catalog.FindPlant(stem)
	if err != nil {
		return result, err
	}
	if plant != nil {
		// Plants are never elementalized, the declared quantity stands.
		result.CategoryHint = entities.CategoryPlant
		result.ElementalQuantity = ing.Quantity
		result.Matched = true
		return result, nil
	}

	logging.Debug("Ingredient not matched in catalog", "name", clean)
	result.ElementalQuantity = ing.Quantity
	return result, nil
}

// annotateExtract scans the original, pre-normalization name for preparation
// keywords and a concentration ratio.
func (r *Resolver) annotateExtract(result *ResolvedIngredient) {
	lower := strings.ToLower(result.OriginalName)
	for _, keyword := range extractKeywords {
		if strings.Contains(lower, keyword) {
			result.IsExtract = true
			result.ExtractType = keyword
			break
		}
	}
	result.ExtractRatio = normalizer.ExtractRatio(result.OriginalName)
}

// SplitComposition expands a composite line ("композиція екстрактів: кропиви,
// шавлії - 185 мг") into individual plant ingredients, dividing the declared
// quantity equally. Non-composite ingredients come back unchanged as a
// single-element slice.
func SplitComposition(ing label.IngredientRecord) []label.IngredientRecord {
	lower := strings.ToLower(ing.Name)

	isComposition := false
	for _, marker := range compositionMarkers {
		if strings.Contains(lower, marker) {
			isComposition = true
			break
		}
	}
	if !isComposition {
		return []label.IngredientRecord{ing}
	}

	plantsText := lower
	for _, marker := range compositionMarkers {
		plantsText = strings.ReplaceAll(plantsText, marker, "")
	}
	plantsText = extractWordUA.ReplaceAllString(plantsText, "")
	plantsText = extractWordEN.ReplaceAllString(plantsText, "")

	if i := strings.LastIndex(plantsText, ":"); i >= 0 {
		plantsText = plantsText[i+1:]
	}
	plantsText = dashedDose.ReplaceAllString(plantsText, "")
	plantsText = bareDose.ReplaceAllString(plantsText, "")

	var names []string
	for _, part := range strings.Split(plantsText, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	if len(names) == 0 {
		single := ing
		single.DeclaredType = string(entities.CategoryPlant)
		return []label.IngredientRecord{single}
	}

	var perPlant *float64
	if ing.Quantity != nil {
		q := round2(*ing.Quantity / float64(len(names)))
		perPlant = &q
	}

	out := make([]label.IngredientRecord, 0, len(names))
	for _, name := range names {
		out = append(out, label.IngredientRecord{
			Name:         nominative(name),
			Quantity:     perPlant,
			Unit:         ing.Unit,
			DeclaredType: string(entities.CategoryPlant),
		})
	}
	logging.Info("Composition split into plants", "original", ing.Name, "count", len(out))
	return out
}

// nominative undoes the genitive case endings composition lists are written
// in: кропиви → кропива, шавлії → шавлія. Crude, but matching later runs
// through stemming anyway.
func nominative(name string) string {
	runes := []rune(name)
	if len(runes) <= 3 {
		return name
	}
	switch runes[len(runes)-1] {
	case 'и':
		return string(runes[:len(runes)-1]) + "а"
	case 'і', 'ї':
		return string(runes[:len(runes)-1]) + "я"
	}
	return name
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
