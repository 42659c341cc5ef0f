package entities

// LimitTier identifies the legal source of a dose ceiling. Tiers are walked
// top-down by the evaluator; the first tier with a numeric value decides.
type LimitTier string

const (
	TierEfsaUL   LimitTier = "efsa_ul"
	TierEfsaSafe LimitTier = "efsa_safe_level"
	TierTable1   LimitTier = "table1"
	TierAppendix LimitTier = "appendix"
)

// EfsaLimit is one EFSA figure (Upper Limit or Safe Level) for a nutrient.
// SubstanceKey matches VitaminMineral.EfsaMapping.
type EfsaLimit struct {
	ID           int       `json:"id"`
	SubstanceKey string    `json:"substance_key"`
	Tier         LimitTier `json:"tier"`
	Value        *float64  `json:"value"`
	Unit         string    `json:"unit"`
	Source       string    `json:"source"`
}

// DomesticLimit is a dose ceiling from the Ukrainian regulatory order:
// Table-1 rows or Appendix physiological limits.
type DomesticLimit struct {
	ID            int       `json:"id"`
	SubstanceName string    `json:"substance_name"`
	Tier          LimitTier `json:"tier"`
	Category      Category  `json:"category"`
	Value         *float64  `json:"value"`
	Unit          string    `json:"unit"`
	Source        string    `json:"source"`
}
