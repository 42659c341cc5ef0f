// Package label defines the input contracts for a label check: the structured
// data an extraction pass (OCR/LLM) produces for one supplement label. The core
// never calls the extractor; it only consumes these shapes.
package label

// IngredientRecord is one item of a label's composition list, as extracted.
// Quantity is nil when the label states no amount for the ingredient.
type IngredientRecord struct {
	Name         string   `json:"name"`
	Quantity     *float64 `json:"quantity"`
	Unit         string   `json:"unit"`
	Form         string   `json:"form,omitempty"`
	DeclaredType string   `json:"declared_type,omitempty"` // active | excipient | plant | microorganism
}

// Operator identifies the food business operator named on the label.
type Operator struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Edrpou  string `json:"edrpou"`
}

// MandatoryPhrases flags the fixed warning phrases the extractor looked for.
type MandatoryPhrases struct {
	HasDietarySupplementLabel bool `json:"has_dietary_supplement_label"`
	HasNotExceedDose          bool `json:"has_not_exceed_dose"`
	HasNotReplaceDiet         bool `json:"has_not_replace_diet"`
	HasKeepAwayChildren       bool `json:"has_keep_away_children"`
}

// ProductInfo carries the product identity fields from the label face.
type ProductInfo struct {
	Name     string `json:"name"`
	Form     string `json:"form"`
	Quantity string `json:"quantity"`
}

// Data is the complete extracted label: the unit every check operates on.
type Data struct {
	ProductInfo      ProductInfo        `json:"product_info"`
	Ingredients      []IngredientRecord `json:"ingredients"`
	FullText         string             `json:"full_text"`
	Operator         Operator           `json:"operator"`
	MandatoryPhrases MandatoryPhrases   `json:"mandatory_phrases"`
	DailyDose        string             `json:"daily_dose"`
	ShelfLife        string             `json:"shelf_life"`
	Storage          string             `json:"storage"`
	Manufacturer     string             `json:"manufacturer"`
}
