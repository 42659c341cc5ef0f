// Package report assembles the dosage and compliance results of one label
// check into the final report the API returns.
package report

import (
	"time"

	"github.com/labelcheck/labelcheck-api/compliance"
	"github.com/labelcheck/labelcheck-api/dosage"
	"github.com/labelcheck/labelcheck-api/label"
)

// Currency of every statutory penalty in the report.
const Currency = "UAH"

// Stats summarizes the check numerically for the report header.
type Stats struct {
	TotalIngredients      int `json:"total_ingredients"`
	SubstancesNotFound    int `json:"substances_not_found"`
	TotalDosageErrors     int `json:"total_dosage_errors"`
	TotalDosageWarnings   int `json:"total_dosage_warnings"`
	TotalForbiddenPhrases int `json:"total_forbidden_phrases"`
	TotalMissingFields    int `json:"total_missing_fields"`
}

// Penalties totals the potential fines, split by check group.
type Penalties struct {
	DosagePenalties     int    `json:"dosage_penalties"`
	CompliancePenalties int    `json:"compliance_penalties"`
	TotalAmount         int    `json:"total_amount"`
	Currency            string `json:"currency"`
}

// Report is the complete outcome of one label check.
type Report struct {
	IsValid          bool               `json:"is_valid"`
	ProductInfo      label.ProductInfo  `json:"product_info"`
	Errors           []dosage.Verdict   `json:"errors"`
	Warnings         []dosage.Verdict   `json:"warnings"`
	ComplianceErrors []compliance.Error `json:"compliance_errors"`
	Stats            Stats              `json:"stats"`
	Penalties        Penalties          `json:"penalties"`
	CheckedAt        time.Time          `json:"checked_at"`
}

// Build merges one label's dosage result and compliance errors. The label is
// valid only when dosage produced no errors and compliance found nothing;
// warnings never invalidate.
func Build(product label.ProductInfo, dosageResult dosage.Result, complianceErrors []compliance.Error, checkedAt time.Time) Report {
	errors := []dosage.Verdict{}
	warnings := []dosage.Verdict{}
	dosagePenalty := 0
	for _, v := range dosageResult.Verdicts {
		switch v.Status {
		case dosage.StatusError:
			errors = append(errors, v)
			dosagePenalty += v.PenaltyAmount
		case dosage.StatusWarning:
			warnings = append(warnings, v)
		}
	}

	if complianceErrors == nil {
		complianceErrors = []compliance.Error{}
	}
	compliancePenalty := 0
	forbiddenCount := 0
	missingCount := 0
	for _, e := range complianceErrors {
		compliancePenalty += e.PenaltyAmount
		switch e.Type {
		case compliance.TypeForbiddenPhrase:
			forbiddenCount++
		case compliance.TypeMandatoryField:
			missingCount++
		}
	}

	return Report{
		IsValid:          dosageResult.AllValid && len(complianceErrors) == 0,
		ProductInfo:      product,
		Errors:           errors,
		Warnings:         warnings,
		ComplianceErrors: complianceErrors,
		Stats: Stats{
			TotalIngredients:      dosageResult.TotalIngredientsChecked,
			SubstancesNotFound:    dosageResult.SubstancesNotFound,
			TotalDosageErrors:     len(errors),
			TotalDosageWarnings:   len(warnings),
			TotalForbiddenPhrases: forbiddenCount,
			TotalMissingFields:    missingCount,
		},
		Penalties: Penalties{
			DosagePenalties:     dosagePenalty,
			CompliancePenalties: compliancePenalty,
			TotalAmount:         dosagePenalty + compliancePenalty,
			Currency:            Currency,
		},
		CheckedAt: checkedAt,
	}
}
