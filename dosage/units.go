package dosage

import "strings"

// unitFactors converts measurement units to milligrams. IU and CFU have no
// true mass conversion; they pass through with factor 1 and only compare
// meaningfully when the limit is expressed in the same unit.
var unitFactors = map[string]float64{
	"мг":  1,
	"mg":  1,
	"г":   1000,
	"g":   1000,
	"кг":  1_000_000,
	"kg":  1_000_000,
	"мкг": 0.001,
	"mcg": 0.001,
	"μg":  0.001,
	"мо":  1,
	"iu":  1,
	"куо": 1,
	"cfu": 1,
}

var daySuffixes = []string{"/день", "/добу", "/day", "/доба"}

// normalizeUnit lowercases a unit and strips per-day suffixes before the
// factor lookup.
func normalizeUnit(unit string) string {
	unit = strings.ToLower(strings.TrimSpace(unit))
	for _, suffix := range daySuffixes {
		unit = strings.TrimSuffix(unit, suffix)
	}
	return strings.TrimSpace(unit)
}

// toMilligrams converts a value to the milligram base. The second return is
// false when the unit is unrecognized: the value passes through with factor
// 1.0 and the caller must surface a warning instead of trusting the
// comparison silently.
func toMilligrams(value float64, unit string) (float64, bool) {
	factor, ok := unitFactors[normalizeUnit(unit)]
	if !ok {
		return value, false
	}
	return value * factor, true
}
