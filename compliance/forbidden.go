package compliance

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/labelcheck/labelcheck-api/interfaces"
	"github.com/labelcheck/labelcheck-api/logging"
)

// negationLeadIns suppress a match when they appear in the window right
// before it: "не призначений для лікування" is a legally required disclaimer,
// not a medical claim.
var negationLeadIns = []string{
	"не призначений",
	"не призначена",
	"не призначене",
	"не є",
	"не використовується",
}

// negationWindow is how many runes before a match are scanned for a negation
// lead-in.
const negationWindow = 50

// PhraseChecker scans label text for forbidden marketing phrases.
type PhraseChecker struct {
	catalog interfaces.CatalogStore
}

// NewPhraseChecker creates a checker reading phrase rules from the catalog.
func NewPhraseChecker(catalog interfaces.CatalogStore) *PhraseChecker {
	return &PhraseChecker{catalog: catalog}
}

// Check searches the full label text for every catalog phrase and its
// variations. Whole-word, case-insensitive; the first matching variation per
// rule records one violation and stops, so a rule never reports twice.
func (c *PhraseChecker) Check(fullText string) ([]Error, error) {
	if strings.TrimSpace(fullText) == "" {
		logging.Debug("Forbidden phrases check skipped, empty text")
		return []Error{}, nil
	}

	rules, err := c.catalog.ForbiddenPhrases()
	if err != nil {
		return nil, fmt.Errorf("loading forbidden phrases: %w", err)
	}

	textRunes := []rune(fullText)
	lowerRunes := lowerEachRune(textRunes)

	errors := []Error{}
	for _, rule := range rules {
		candidates := make([]string, 0, 1+len(rule.Variations))
		if rule.Phrase != "" {
			candidates = append(candidates, rule.Phrase)
		}
		for _, v := range rule.Variations {
			if v != "" {
				candidates = append(candidates, v)
			}
		}

		for _, candidate := range candidates {
			phrase := lowerEachRune([]rune(candidate))
			start := -1
			for _, match := range wholeWordMatches(lowerRunes, phrase) {
				if hasNegationContext(lowerRunes, match) {
					logging.Debug("Forbidden phrase negated in context", "phrase", candidate)
					continue
				}
				start = match
				break
			}
			if start < 0 {
				continue
			}

			found := string(textRunes[start : start+len(phrase)])
			recommendation := fmt.Sprintf("Видаліть фразу '%s' з етикетки.", found)
			if explanation := strings.TrimSpace(rule.Explanation); explanation != "" {
				recommendation += " " + explanation
			}
			errors = append(errors, Error{
				Type:             TypeForbiddenPhrase,
				Phrase:           found,
				Category:         rule.Category,
				RegulatorySource: rule.RegulatorySource,
				ErrorMessage:     "Знайдено заборонену фразу: " + found,
				Explanation:      rule.Explanation,
				Severity:         rule.Severity,
				Recommendation:   recommendation,
				PenaltyAmount:    PenaltyForbiddenPhrase,
			})
			break
		}
	}

	logging.Info("Forbidden phrases check completed", "violations", len(errors))
	return errors, nil
}

// wholeWordMatches returns the rune indexes of every whole-word occurrence of
// phrase in text. Boundaries are any non-letter, non-digit rune; text and
// phrase must already share case. The stdlib regexp \b is ASCII-only, so
// Cyrillic word boundaries are checked by hand.
func wholeWordMatches(text, phrase []rune) []int {
	if len(phrase) == 0 || len(phrase) > len(text) {
		return nil
	}

	var matches []int
	for i := 0; i+len(phrase) <= len(text); i++ {
		if !runesEqual(text[i:i+len(phrase)], phrase) {
			continue
		}
		if i > 0 && isWordRune(text[i-1]) {
			continue
		}
		if end := i + len(phrase); end < len(text) && isWordRune(text[end]) {
			continue
		}
		matches = append(matches, i)
	}
	return matches
}

// lowerEachRune lowercases one rune at a time so the result stays
// index-aligned with the input. strings.ToLower can change the rune count
// (İ becomes i plus a combining dot) and would shift match offsets away from
// the original text.
func lowerEachRune(rs []rune) []rune {
	lowered := make([]rune, len(rs))
	for i, r := range rs {
		lowered[i] = unicode.ToLower(r)
	}
	return lowered
}

func runesEqual(a, b []rune) bool {
	for i := range b {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// hasNegationContext reports whether a negation lead-in appears in the window
// immediately preceding the match.
func hasNegationContext(text []rune, matchStart int) bool {
	windowStart := matchStart - negationWindow
	if windowStart < 0 {
		windowStart = 0
	}
	window := string(text[windowStart:matchStart])
	for _, negation := range negationLeadIns {
		if strings.Contains(window, negation) {
			return true
		}
	}
	return false
}
