package compliance

import (
	"fmt"
	"strings"

	"github.com/labelcheck/labelcheck-api/interfaces"
	"github.com/labelcheck/labelcheck-api/label"
	"github.com/labelcheck/labelcheck-api/logging"
)

// fieldExtractors maps every catalog field name onto the label value that
// satisfies it. Explicit and finite on purpose: the legal contract of each
// field should be readable here, not hidden behind reflection.
var fieldExtractors = map[string]func(*label.Data) any{
	"product_name_label":     func(d *label.Data) any { return d.MandatoryPhrases.HasDietarySupplementLabel },
	"edrpou_code":            func(d *label.Data) any { return d.Operator.Edrpou },
	"operator_full_name":     func(d *label.Data) any { return d.Operator.Name },
	"operator_address":       func(d *label.Data) any { return d.Operator.Address },
	"composition":            func(d *label.Data) any { return len(d.Ingredients) > 0 },
	"recommended_dose":       func(d *label.Data) any { return d.DailyDose },
	"do_not_exceed_warning":  func(d *label.Data) any { return d.MandatoryPhrases.HasNotExceedDose },
	"not_substitute_warning": func(d *label.Data) any { return d.MandatoryPhrases.HasNotReplaceDiet },
	"keep_away_children":     func(d *label.Data) any { return d.MandatoryPhrases.HasKeepAwayChildren },
	"expiry_date":            func(d *label.Data) any { return d.ShelfLife },
	"net_quantity":           func(d *label.Data) any { return d.ProductInfo.Quantity },
	"storage_conditions":     func(d *label.Data) any { return d.Storage },
	// The extraction layer does not capture these yet.
	// TODO: wire batch_number and allergen_info once extraction provides them.
	"batch_number":  func(d *label.Data) any { return nil },
	"allergen_info": func(d *label.Data) any { return nil },
}

// FieldChecker verifies that every critical mandatory field is present on
// the label.
type FieldChecker struct {
	catalog interfaces.CatalogStore
}

// NewFieldChecker creates a checker reading field definitions from the
// catalog.
func NewFieldChecker(catalog interfaces.CatalogStore) *FieldChecker {
	return &FieldChecker{catalog: catalog}
}

// Check resolves each critical field through its extractor and reports the
// missing ones with the catalog's message, citation and penalty.
func (c *FieldChecker) Check(data *label.Data) ([]Error, error) {
	if data == nil {
		data = &label.Data{}
	}

	fields, err := c.catalog.CriticalFields()
	if err != nil {
		return nil, fmt.Errorf("loading mandatory fields: %w", err)
	}

	errors := []Error{}
	for _, field := range fields {
		extractor, known := fieldExtractors[field.FieldName]
		if !known {
			logging.Warn("Mandatory field has no extractor", "field", field.FieldName)
			continue
		}

		if !isMissing(extractor(data)) {
			continue
		}
		logging.Info("Mandatory field missing",
			"field", field.FieldName, "field_ua", field.FieldNameUA)

		message := field.ErrorMessage
		if message == "" {
			message = "Поле обов'язкове"
		}
		errors = append(errors, Error{
			Type:             TypeMandatoryField,
			FieldName:        field.FieldName,
			RegulatorySource: field.RegulatorySource,
			ArticleNumber:    field.ArticleNumber,
			ErrorMessage:     message,
			Recommendation:   field.Recommendation,
			PenaltyAmount:    field.PenaltyAmount,
		})
	}

	logging.Info("Mandatory fields check completed", "violations", len(errors))
	return errors, nil
}

// isMissing defines absence per type: nil always, boolean false, blank
// string. Anything else counts as present.
func isMissing(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case bool:
		return !v
	case string:
		return strings.TrimSpace(v) == ""
	default:
		return false
	}
}
