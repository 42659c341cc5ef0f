// Package normalizer canonicalizes free-text ingredient names for catalog
// matching. Labels arrive from fallible OCR extraction: parenthetical asides,
// inconsistent whitespace, Cyrillic letters used as Latin vitamin codes
// (В6 instead of B6) and swapped word order all have to collapse onto the
// single spelling the catalog stores.
package normalizer

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	parentheticalRegex = regexp.MustCompile(`\s*\([^)]*\)`)
	digitsRegex        = regexp.MustCompile(`\d+`)
	ratioRegex         = regexp.MustCompile(`\d+:\d+`)

	caseFolder = cases.Fold()
)

// synonymRules rewrites known name families onto their canonical catalog
// spelling. The table is small and explicit, not inferred.
var synonymRules = []struct {
	contains  []string
	canonical string
}{
	{contains: []string{"b7", "в7", "біотин"}, canonical: "Біотин"},
}

// serviceWords are stripped before plant matching: they describe preparation,
// not identity.
var serviceWords = []string{
	"екстракт", "порошок", "олія", "сік",
	"extract", "powder", "oil", "juice",
}

// standaloneLetters maps single Cyrillic letters that labels use as Latin
// vitamin codes. Applied only to whole tokens (optionally followed by
// digits), so ordinary Cyrillic words are never corrupted.
var standaloneLetters = map[rune]rune{
	'а': 'a',
	'в': 'b',
	'с': 'c',
	'е': 'e',
	'к': 'k',
}

// CleanDisplay prepares a name for display: newlines become spaces, runs of
// whitespace collapse, surrounding space is trimmed. Content is otherwise
// untouched.
func CleanDisplay(raw string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(raw, "\n", " ")), " ")
}

// Clean prepares a name for lookup: drops parenthetical asides, collapses
// whitespace and applies the synonym table. Falls back to the raw name when
// cleaning leaves nothing.
func Clean(raw string) string {
	cleaned := parentheticalRegex.ReplaceAllString(raw, "")
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	lower := strings.ToLower(cleaned)
	for _, rule := range synonymRules {
		for _, marker := range rule.contains {
			if strings.Contains(lower, marker) {
				return rule.canonical
			}
		}
	}

	if cleaned == "" {
		return strings.TrimSpace(raw)
	}
	return cleaned
}

// MatchKey produces the case-folded lookup key for a name. The Cyrillic
// letter В is mapped to b everywhere (the only blanket substitution that is
// safe for this vocabulary); А, С, Е and К are mapped only when they stand
// alone or prefix digits, which is how vitamin codes are written.
func MatchKey(name string) string {
	folded := caseFolder.String(norm.NFC.String(name))
	folded = strings.TrimSpace(folded)
	folded = strings.ReplaceAll(folded, "в", "b")

	tokens := strings.Fields(folded)
	for i, token := range tokens {
		tokens[i] = transliterateToken(token)
	}
	return strings.Join(tokens, " ")
}

// transliterateToken rewrites a token that is a bare vitamin-code letter or a
// letter+digits code (к2 → k2). Anything longer passes through unchanged.
func transliterateToken(token string) string {
	runes := []rune(token)
	if len(runes) == 0 {
		return token
	}

	latin, ok := standaloneLetters[runes[0]]
	if !ok {
		return token
	}

	if len(runes) == 1 {
		return string(latin)
	}
	for _, r := range runes[1:] {
		if r < '0' || r > '9' {
			return token
		}
	}
	return string(latin) + string(runes[1:])
}

// MatchKeys returns the lookup keys to try for a name: the match key itself
// and, for exactly two-word names, the word-order-swapped variant. Catalogs
// store one canonical order but labels use both.
func MatchKeys(name string) []string {
	key := MatchKey(name)
	words := strings.Fields(key)
	if len(words) != 2 {
		return []string{key}
	}
	return []string{key, words[1] + " " + words[0]}
}

// PlantStem reduces a plant ingredient name to a matching stem: service
// words, parenthesized ratios and bare digits go away, then every word
// longer than four runes loses its last two. The crude suffix cut tolerates
// Ukrainian case-ending variation (кропиви / кропива / кропиві).
func PlantStem(name string) string {
	cleaned := strings.ToLower(strings.TrimSpace(name))
	for _, word := range serviceWords {
		cleaned = strings.ReplaceAll(cleaned, word, "")
	}
	cleaned = parentheticalRegex.ReplaceAllString(cleaned, "")
	cleaned = ratioRegex.ReplaceAllString(cleaned, "")
	cleaned = digitsRegex.ReplaceAllString(cleaned, "")

	words := strings.Fields(cleaned)
	stemmed := make([]string, 0, len(words))
	for _, word := range words {
		runes := []rune(word)
		if len(runes) > 4 {
			word = string(runes[:len(runes)-2])
		}
		stemmed = append(stemmed, word)
	}
	return strings.Join(stemmed, " ")
}

// ExtractRatio pulls an extract concentration ratio ("10:1") out of a name,
// or returns the empty string.
func ExtractRatio(name string) string {
	return ratioRegex.FindString(name)
}
