// Package compliance checks the non-dosage legal requirements of a label:
// forbidden marketing phrases in the full text and presence of the fields the
// law mandates.
package compliance

// Error is one compliance violation, carrying the statutory context from the
// catalog rule that produced it.
type Error struct {
	Type             string `json:"type"` // forbidden_phrase | mandatory_field
	Phrase           string `json:"phrase,omitempty"`
	FieldName        string `json:"field_name,omitempty"`
	Category         string `json:"category,omitempty"`
	RegulatorySource string `json:"regulatory_source,omitempty"`
	ArticleNumber    string `json:"article_number,omitempty"`
	ErrorMessage     string `json:"error_message"`
	Explanation      string `json:"explanation,omitempty"`
	Severity         string `json:"severity,omitempty"`
	Recommendation   string `json:"recommendation,omitempty"`
	PenaltyAmount    int    `json:"penalty_amount"`
}

const (
	TypeForbiddenPhrase = "forbidden_phrase"
	TypeMandatoryField  = "mandatory_field"
)

// PenaltyForbiddenPhrase is the statutory fine in UAH for a forbidden
// marketing claim. Mandatory-field penalties come from the catalog per field.
const PenaltyForbiddenPhrase = 640000
