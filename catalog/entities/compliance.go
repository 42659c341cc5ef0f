package entities

// ForbiddenPhrase is a marketing claim banned from supplement labels, with
// the spelling variations the checker scans for.
type ForbiddenPhrase struct {
	ID               int      `json:"id"`
	Phrase           string   `json:"phrase"`
	Variations       []string `json:"phrase_variations"`
	Category         string   `json:"category"` // treatment | disease | medical | veiled
	RegulatorySource string   `json:"regulatory_source"`
	Explanation      string   `json:"explanation"`
	Severity         string   `json:"severity"`
}

// MandatoryField is one field the law requires on a label. Criticality
// "critical" fields are enforced; the rest are advisory.
type MandatoryField struct {
	ID               int    `json:"id"`
	FieldName        string `json:"field_name"`
	FieldNameUA      string `json:"field_name_ua"`
	Description      string `json:"description"`
	Criticality      string `json:"criticality"`
	RegulatorySource string `json:"regulatory_source"`
	ArticleNumber    string `json:"article_number"`
	ErrorMessage     string `json:"error_message"`
	Recommendation   string `json:"recommendation"`
	PenaltyAmount    int    `json:"penalty_amount"`
}
