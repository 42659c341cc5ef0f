package entities

import "strings"

// Category is the regulatory category a substance belongs to. A name belongs
// to at most one category in the authoritative catalog; classification
// conflicts are resolved by precedence (banned always wins).
type Category string

const (
	CategoryBanned         Category = "banned"
	CategoryVitaminMineral Category = "vitamin_mineral"
	CategoryAminoAcid      Category = "amino_acid"
	CategoryPlant          Category = "plant"
	CategoryMicroorganism  Category = "microorganism"
	CategoryPhysiological  Category = "physiological"
	CategoryNovelFood      Category = "novel_food"
	CategoryOther          Category = "other"
	CategoryExcipient      Category = "excipient"
	CategoryUnknown        Category = "unknown"
)

// CategoryPrecedence lists the mutually exclusive categories in the order the
// classifier probes them. Banned is first and overrides any other match.
var CategoryPrecedence = []Category{
	CategoryBanned,
	CategoryVitaminMineral,
	CategoryAminoAcid,
	CategoryPlant,
	CategoryMicroorganism,
	CategoryPhysiological,
	CategoryNovelFood,
	CategoryOther,
}

// ParseCategory maps a free-form string onto a known Category. Extraction
// output declares types in the same vocabulary, but is not trusted blindly.
func ParseCategory(s string) (Category, bool) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryBanned, CategoryVitaminMineral, CategoryAminoAcid,
		CategoryPlant, CategoryMicroorganism, CategoryPhysiological,
		CategoryNovelFood, CategoryOther, CategoryExcipient:
		return c, true
	}
	return CategoryUnknown, false
}

// BannedSubstance is a substance whose presence at any dose is a violation.
type BannedSubstance struct {
	ID               int      `json:"id"`
	NameUA           string   `json:"name_ua"`
	NameEN           string   `json:"name_en"`
	NameVariations   []string `json:"name_variations"`
	RegulatorySource string   `json:"regulatory_source"`
}

// VitaminMineral is an allowed vitamin or mineral with its permitted chemical
// forms. EfsaMapping keys into the EFSA limits table; empty means no EFSA
// figure exists for the substance.
type VitaminMineral struct {
	ID               int      `json:"id"`
	NameUA           string   `json:"name_ua"`
	NameEN           string   `json:"name_en"`
	NameVariations   []string `json:"name_variations"`
	AllowedForms     []string `json:"allowed_forms"`
	EfsaMapping      string   `json:"efsa_mapping"`
	RegulatorySource string   `json:"regulatory_source"`
}

// AminoAcid carries its dose ceiling directly; a nil MaxDailyDose means the
// acid is allowed with no numeric ceiling.
type AminoAcid struct {
	ID               int      `json:"id"`
	NameUA           string   `json:"name_ua"`
	NameEN           string   `json:"name_en"`
	NameVariations   []string `json:"name_variations"`
	MaxDailyDose     *float64 `json:"max_daily_dose"`
	Unit             string   `json:"unit"`
	RegulatorySource string   `json:"regulatory_source"`
}

// Plant is an allowed botanical. Plants are never dose-checked; only
// membership matters.
type Plant struct {
	ID               int    `json:"id"`
	BotanicalFamily  string `json:"botanical_family_ua"`
	CommonNameUA     string `json:"common_name_ua"`
	BotanicalNameLat string `json:"botanical_name_lat"`
	UsableParts      string `json:"usable_parts"`
}

// Microorganism is an allowed probiotic strain, identified by genus+species.
type Microorganism struct {
	ID      int    `json:"id"`
	Genus   string `json:"genus"`
	Species string `json:"species"`
}

// DoseLimitedSubstance backs the physiological, novel-food and
// other-substances tables, which share one shape: a name list and an optional
// numeric daily ceiling. A nil MaxDailyDose means allowed, unlimited.
type DoseLimitedSubstance struct {
	ID               int      `json:"id"`
	Category         Category `json:"category"`
	NameUA           string   `json:"name_ua"`
	NameEN           string   `json:"name_en"`
	NameVariations   []string `json:"name_variations"`
	MaxDailyDose     *float64 `json:"max_daily_dose"`
	Unit             string   `json:"unit"`
	RegulatorySource string   `json:"regulatory_source"`
}

// Excipient is an inert carrier ingredient, exempt from dose checking.
type Excipient struct {
	ID             int      `json:"id"`
	NameUA         string   `json:"name_ua"`
	NameEN         string   `json:"name_en"`
	NameVariations []string `json:"name_variations"`
}

// FormConversion maps a compound chemical form to its base substance and the
// fraction of the stated quantity that is elemental active substance. When
// both coefficients are present the max is the bound used (the permissive
// reading of a published range).
type FormConversion struct {
	ID             int      `json:"id"`
	SubstanceUA    string   `json:"substance_name_ua"`
	SubstanceEN    string   `json:"substance_name_en"`
	FormUA         string   `json:"form_name_ua"`
	NameVariations []string `json:"name_variations"`
	CoefficientMin *float64 `json:"elemental_coefficient_min"`
	CoefficientMax *float64 `json:"elemental_coefficient_max"`
}

// Coefficient returns the elemental coefficient to apply, preferring the max
// bound and falling back to 1.0 when the row carries no figure at all.
func (f *FormConversion) Coefficient() float64 {
	if f.CoefficientMax != nil {
		return *f.CoefficientMax
	}
	if f.CoefficientMin != nil {
		return *f.CoefficientMin
	}
	return 1.0
}
