// Package validation provides structural validation for submitted label data.
package validation

import (
	"fmt"
	"strings"

	"github.com/labelcheck/labelcheck-api/interfaces"
	"github.com/labelcheck/labelcheck-api/label"
)

// Dangerous patterns as strings (faster than regex for simple substring matching)
// strings.Contains is 5-10x faster than regex for these patterns
var dangerousPatterns = []string{
	"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
	"onclick=", "onmouseover=", "onfocus=", "onblur=", "onchange=", "onsubmit=",
	"eval(", "expression(", "url(", "import ", "@import", "binding(", "behavior(",
	// SQL injection patterns
	"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
	"update set", "xp_", "sp_", "exec(", "execute(",
	// Path traversal patterns
	"../", "..\\", "%2e%2e", "file://",
	// NoSQL injection patterns
	"{$ne:", "{$gt:", "{$where:", "{$or:", "{$regex:", "{$expr:",
}

const (
	maxIngredientNameLen = 300
	maxIngredients       = 200
	maxFullTextLen       = 50000
	maxFieldLen          = 500
)

// Compile-time check to ensure LabelValidatorImpl implements LabelValidator
var _ interfaces.LabelValidator = (*LabelValidatorImpl)(nil)

// LabelValidatorImpl implements the interfaces.LabelValidator interface
type LabelValidatorImpl struct{}

// NewLabelValidator creates a new label validator
func NewLabelValidator() interfaces.LabelValidator {
	return &LabelValidatorImpl{}
}

// ValidateLabel checks the structural integrity of one submitted label.
// It rejects labels the checkers cannot meaningfully process; regulatory
// completeness is the compliance checker's job, not this one's.
func (v *LabelValidatorImpl) ValidateLabel(data *label.Data) error {
	if data == nil {
		return fmt.Errorf("label data is nil")
	}

	if len(data.Ingredients) > maxIngredients {
		return fmt.Errorf("too many ingredients: %d (maximum %d)", len(data.Ingredients), maxIngredients)
	}

	for i := range data.Ingredients {
		if err := v.ValidateIngredient(&data.Ingredients[i]); err != nil {
			return fmt.Errorf("invalid ingredient at index %d: %w", i, err)
		}
	}

	if len(data.FullText) > maxFullTextLen {
		return fmt.Errorf("full text too long: %d characters (maximum %d)", len(data.FullText), maxFullTextLen)
	}

	fields := map[string]string{
		"product name":     data.ProductInfo.Name,
		"product form":     data.ProductInfo.Form,
		"product quantity": data.ProductInfo.Quantity,
		"operator name":    data.Operator.Name,
		"operator address": data.Operator.Address,
		"operator edrpou":  data.Operator.Edrpou,
		"daily dose":       data.DailyDose,
		"shelf life":       data.ShelfLife,
		"storage":          data.Storage,
		"manufacturer":     data.Manufacturer,
	}
	for name, value := range fields {
		if len(value) > maxFieldLen {
			return fmt.Errorf("%s too long: %d characters (maximum %d)", name, len(value), maxFieldLen)
		}
		if containsDangerousContent(value) {
			return fmt.Errorf("%s contains potentially dangerous content", name)
		}
	}

	if containsDangerousContent(data.FullText) {
		return fmt.Errorf("full text contains potentially dangerous content")
	}

	return nil
}

// ValidateIngredient checks one composition entry. A record without a name
// cannot be resolved against the catalog and is rejected outright.
func (v *LabelValidatorImpl) ValidateIngredient(ing *label.IngredientRecord) error {
	if ing == nil {
		return fmt.Errorf("ingredient is nil")
	}

	if strings.TrimSpace(ing.Name) == "" {
		return fmt.Errorf("ingredient name is empty")
	}

	if len(ing.Name) > maxIngredientNameLen {
		return fmt.Errorf("ingredient name too long: %d characters (maximum %d)", len(ing.Name), maxIngredientNameLen)
	}

	if ing.Quantity != nil && *ing.Quantity < 0 {
		return fmt.Errorf("negative quantity for %q: %v", ing.Name, *ing.Quantity)
	}

	if len(ing.Unit) > 50 {
		return fmt.Errorf("unit too long for %q: %d characters", ing.Name, len(ing.Unit))
	}

	if containsDangerousContent(ing.Name) || containsDangerousContent(ing.Form) {
		return fmt.Errorf("ingredient %q contains potentially dangerous content", ing.Name)
	}

	return nil
}

func containsDangerousContent(input string) bool {
	if input == "" {
		return false
	}

	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return true
		}
	}

	return false
}
