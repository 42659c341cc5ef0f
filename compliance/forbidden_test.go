package compliance

import (
	"strings"
	"testing"
	"time"

	"github.com/labelcheck/labelcheck-api/catalog"
	"github.com/labelcheck/labelcheck-api/catalog/entities"
)

func testPhraseChecker() *PhraseChecker {
	tables := catalog.Tables{
		ForbiddenPhrases: []entities.ForbiddenPhrase{
			{ID: 1, Phrase: "лікування захворювань", Category: "medical_claim",
				RegulatorySource: "Наказ МОЗ №1114", Explanation: "Медичні твердження заборонені для дієтичних добавок.",
				Severity: "critical"},
			{ID: 2, Phrase: "лікує", Variations: []string{"лікує", "виліковує"}, Category: "medical_claim"},
		},
	}
	return NewPhraseChecker(catalog.New(tables, time.Now()))
}

func TestCheckPhraseDetected(t *testing.T) {
	c := testPhraseChecker()

	got, err := c.Check("Засіб для лікування захворювань")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one violation, got %d: %+v", len(got), got)
	}
	if got[0].Type != TypeForbiddenPhrase {
		t.Errorf("type = %q", got[0].Type)
	}
	if got[0].Phrase != "лікування захворювань" {
		t.Errorf("phrase = %q", got[0].Phrase)
	}
	if got[0].PenaltyAmount != 640000 {
		t.Errorf("penalty = %d, want 640000", got[0].PenaltyAmount)
	}
}

func TestCheckPhraseNegated(t *testing.T) {
	c := testPhraseChecker()

	got, err := c.Check("Продукт не призначений для лікування захворювань")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("negated phrase must not be reported, got %+v", got)
	}
}

func TestCheckPhraseNegationBeyondWindow(t *testing.T) {
	c := testPhraseChecker()

	// The negation sits further back than the lookback window reaches.
	filler := strings.Repeat("а ", 30)
	got, err := c.Check("не є " + filler + "лікування захворювань")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("negation outside the window must not suppress, got %+v", got)
	}
}

func TestCheckPhraseWholeWordOnly(t *testing.T) {
	c := testPhraseChecker()

	got, err := c.Check("Прополікуєтесь вдома")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("substring inside a longer word must not match, got %+v", got)
	}
}

func TestCheckPhraseCaseInsensitive(t *testing.T) {
	c := testPhraseChecker()

	got, err := c.Check("ЛІКУЄ всі хвороби")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("case must not matter, got %+v", got)
	}
	if got[0].Phrase != "ЛІКУЄ" {
		t.Errorf("reported phrase should keep the label's casing, got %q", got[0].Phrase)
	}
}

func TestCheckPhraseMixedScriptCasing(t *testing.T) {
	c := testPhraseChecker()

	// U+0130 (İ) grows from one rune to two under strings.ToLower; offsets
	// into the original text must stay aligned past it, even with the match
	// at the very end.
	got, err := c.Check("İQ-бренд стверджує, що продукт лікує")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one violation, got %d: %+v", len(got), got)
	}
	if got[0].Phrase != "лікує" {
		t.Errorf("reported phrase must come from the original text, got %q", got[0].Phrase)
	}
}

func TestCheckPhraseFirstVariationWins(t *testing.T) {
	c := testPhraseChecker()

	got, err := c.Check("Препарат лікує та виліковує")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Both variations of rule 2 are present; one violation per rule.
	if len(got) != 1 {
		t.Errorf("one violation per catalog rule, got %d: %+v", len(got), got)
	}
}

func TestCheckPhraseNegatedFirstOccurrence(t *testing.T) {
	c := testPhraseChecker()

	// First occurrence negated, second far past the lookback window: still a
	// violation.
	filler := strings.Repeat(" корисний продукт для щоденного вжитку", 2)
	got, err := c.Check("Не є засобом, що лікує." + filler + ". Він лікує безсоння.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("later non-negated occurrence must be reported, got %+v", got)
	}
}

func TestCheckPhraseEmptyText(t *testing.T) {
	c := testPhraseChecker()

	got, err := c.Check("   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("empty text has no violations, got %+v", got)
	}
}
