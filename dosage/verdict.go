package dosage

import "github.com/labelcheck/labelcheck-api/catalog/entities"

// Status is the terminal state of one ingredient's evaluation.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Hierarchy levels, highest precedence first. Level is meaningful on errors
// and on catalog-absence warnings; ok verdicts leave it zero.
const (
	LevelBanned   = 0
	LevelEfsaUL   = 1
	LevelEfsaSafe = 2
	LevelTable1   = 3
	LevelAppendix = 4
)

// PenaltyDosage is the statutory fine in UAH for any dosage violation.
const PenaltyDosage = 640000

// Verdict is the outcome for a single ingredient: at most one error or
// warning, with the regulatory context a manufacturer needs to fix it.
type Verdict struct {
	Ingredient       string            `json:"ingredient"`
	Status           Status            `json:"status"`
	Category         entities.Category `json:"category"`
	Level            int               `json:"level"`
	Source           string            `json:"source,omitempty"`
	Message          string            `json:"message,omitempty"`
	CurrentDose      string            `json:"current_dose,omitempty"`
	MaxAllowed       string            `json:"max_allowed,omitempty"`
	RegulatorySource string            `json:"regulatory_source,omitempty"`
	Recommendation   string            `json:"recommendation,omitempty"`
	PenaltyAmount    int               `json:"penalty_amount,omitempty"`
	Note             string            `json:"note,omitempty"`
}

// Result aggregates one label's dosage evaluation. AllValid turns false only
// on errors; warnings never fail a label.
type Result struct {
	Verdicts                []Verdict `json:"verdicts"`
	AllValid                bool      `json:"all_valid"`
	ErrorCount              int       `json:"error_count"`
	WarningCount            int       `json:"warning_count"`
	TotalIngredientsChecked int       `json:"total_ingredients_checked"`
	SubstancesNotFound      int       `json:"substances_not_found"`
}
